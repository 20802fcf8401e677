package fix

import (
	"fmt"
	"os"
	"time"

	"github.com/quickfixgo/quickfix"
)

// buildSettings translates config.Session into a quickfix.SessionSettings,
// keyed by the fixed (SenderCompID, TargetCompID, BeginString) session
// name. TLS is on by default; plain TCP is rejected by the exchange so
// disabling it is refused here rather than silently sent.
func (m *SessionManager) buildSettings() (*quickfix.SessionSettings, error) {
	if !m.cfg.TLSEnabled {
		return nil, fmt.Errorf("plain TCP is rejected by the exchange; TLS must stay enabled")
	}
	if m.cfg.MaxCustomTag < 21009 {
		return nil, fmt.Errorf("max custom tag %d below required floor 21009", m.cfg.MaxCustomTag)
	}
	if err := os.MkdirAll(m.cfg.ScratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", m.cfg.ScratchDir, err)
	}

	settings := quickfix.NewSessionSettings()
	global := settings.GlobalSettings()
	global.Set("ConnectionType", "initiator")
	global.Set("ReconnectInterval", durationSeconds(m.cfg.ReconnectInterval))
	global.Set("FileStorePath", m.cfg.ScratchDir)
	global.Set("SocketUseSSL", "Y")

	sessionID := quickfix.SessionID{
		BeginString:  m.cfg.BeginString,
		SenderCompID: m.cfg.SenderCompID,
		TargetCompID: m.cfg.TargetCompID,
	}
	sessionSettings := settings.AddSession(sessionID)
	sessionSettings.Set("SocketConnectHost", m.cfg.Host)
	sessionSettings.Set("SocketConnectPort", fmt.Sprintf("%d", m.cfg.Port))
	sessionSettings.Set("HeartBtInt", durationSeconds(m.cfg.HeartbeatInterval))
	sessionSettings.Set("ResetOnLogon", boolStr(m.cfg.ResetOnLogon))
	sessionSettings.Set("StartTime", "00:00:00")
	sessionSettings.Set("EndTime", "00:00:00")

	return settings, nil
}

func durationSeconds(d time.Duration) string {
	return fmt.Sprintf("%d", int(d.Seconds()))
}

func boolStr(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
