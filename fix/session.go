// Package fix implements the FIX-specific core of the order gateway:
// the session lifecycle wrapper, the order state tracker, and the FIX
// transport plus HTTP fallback. The session lifecycle is built around
// client/okx/persistent_websocket.go's connection-lifecycle shape,
// reworked to drive github.com/quickfixgo/quickfix as the underlying
// FIX framing engine.
package fix

import (
	"fmt"
	"sync"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/sirupsen/logrus"

	"github.com/ljm2ya/quickex-go/config"
)

// SessionState is the session manager's lifecycle enum.
type SessionState string

const (
	StateCreated      SessionState = "created"
	StateConnecting   SessionState = "connecting"
	StateConnected    SessionState = "connected"
	StateLogonSent    SessionState = "logon_sent"
	StateLoggedOn     SessionState = "logged_on"
	StateLoggedOut    SessionState = "logged_out"
	StateDisconnected SessionState = "disconnected"
	StateError        SessionState = "error"
)

// MessageListener receives every inbound application message. The
// order state tracker implements this and must register before Start.
type MessageListener interface {
	OnMessage(msg *quickfix.Message, sessionID quickfix.SessionID)
}

// StateListener observes session lifecycle transitions.
type StateListener interface {
	OnStateChange(old, new SessionState)
}

// SessionManager owns the single exchange session: the engine
// instance, the session handle, and the state enum. Grounded on
// client/okx/persistent_websocket.go's "mutex-guarded flags +
// reconnect loop + registered listener fan-out" shape; the WS ping/
// reconnect loop itself is replaced by quickfix's own heartbeat/
// reconnect machinery (configured here, not reimplemented) since the
// underlying FIX engine is assumed to exist as a library.
type SessionManager struct {
	cfg config.Session
	log *logrus.Entry

	mu        sync.RWMutex
	state     SessionState
	sessionID *quickfix.SessionID
	initiator *quickfix.Initiator

	listenersMu      sync.Mutex
	messageListeners []MessageListener
	stateListeners   []StateListener

	logonOnce   sync.Once
	logonSignal chan struct{}

	lastLogonAt time.Time
}

// NewSessionManager constructs a manager with no sockets opened yet.
func NewSessionManager(cfg config.Session) *SessionManager {
	return &SessionManager{
		cfg:         cfg,
		log:         logrus.WithField("component", "fix.session"),
		state:       StateCreated,
		logonSignal: make(chan struct{}),
	}
}

// RegisterMessageListener subscribes a listener to inbound application
// messages. Must be called before Start.
func (m *SessionManager) RegisterMessageListener(l MessageListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.messageListeners = append(m.messageListeners, l)
}

// RegisterStateListener subscribes a listener to state transitions.
// Must be called before Start.
func (m *SessionManager) RegisterStateListener(l StateListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.stateListeners = append(m.stateListeners, l)
}

// Start builds the engine config, instantiates the FIX initiator,
// attaches this manager as its Application, and starts it. From this
// point the engine autonomously connects and attempts logon.
func (m *SessionManager) Start() error {
	settings, err := m.buildSettings()
	if err != nil {
		return fmt.Errorf("build session settings: %w", err)
	}

	storeFactory := quickfix.NewFileStoreFactory(settings)
	logFactory := quickfix.NewNullLogFactory()

	initiator, err := quickfix.NewInitiator(m, storeFactory, settings, logFactory)
	if err != nil {
		return fmt.Errorf("construct initiator: %w", err)
	}
	m.mu.Lock()
	m.initiator = initiator
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	if err := initiator.Start(); err != nil {
		m.mu.Lock()
		m.setStateLocked(StateError)
		m.mu.Unlock()
		return fmt.Errorf("start initiator: %w", err)
	}
	return nil
}

// AwaitLogon blocks up to timeout on the one-shot logon-completion
// signal armed at Start. Returns true on success, false on timeout.
func (m *SessionManager) AwaitLogon(timeout time.Duration) bool {
	select {
	case <-m.logonSignal:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Stop stops the engine and drops the session reference. Idempotent.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initiator != nil {
		m.initiator.Stop()
		m.initiator = nil
	}
	m.sessionID = nil
}

// IsLoggedOn observes the last cached state with sequential
// consistency: after the logon callback returns, the next call from
// any goroutine observes true (guarded by the same mutex every state
// transition takes).
func (m *SessionManager) IsLoggedOn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateLoggedOn
}

// State returns the current cached session state.
func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SessionID returns the handle published at OnCreate, if any. Reads
// take the same mutex as OnCreate and Stop, which clears the handle.
func (m *SessionManager) SessionID() (quickfix.SessionID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sessionID == nil {
		return quickfix.SessionID{}, false
	}
	return *m.sessionID, true
}

// Send hands a populated, committed message to the engine for the
// owned session.
func (m *SessionManager) Send(msg *quickfix.Message) error {
	sid, ok := m.SessionID()
	if !ok {
		return fmt.Errorf("no session established")
	}
	return quickfix.SendToTarget(msg, sid)
}

// OrderTimeout returns the configured per-call deadline. Exposed as a
// method (rather than letting Transport reach into cfg directly) so
// Transport can depend on the narrow sessionSender interface instead
// of the full SessionManager.
func (m *SessionManager) OrderTimeout() time.Duration {
	return m.cfg.OrderTimeout
}

func (m *SessionManager) setStateLocked(new SessionState) {
	old := m.state
	m.state = new
	if old == new {
		return
	}
	m.log.WithFields(logrus.Fields{"from": old, "to": new}).Info("session state transition")
	m.fanOutStateChange(old, new)
}

// fanOutStateChange invokes every state listener in registration
// order; a listener panic is recovered and logged, never propagated.
func (m *SessionManager) fanOutStateChange(old, new SessionState) {
	m.listenersMu.Lock()
	listeners := append([]StateListener(nil), m.stateListeners...)
	m.listenersMu.Unlock()

	for _, l := range listeners {
		func(l StateListener) {
			defer func() {
				if r := recover(); r != nil {
					m.log.WithField("panic", r).Error("state listener panicked")
				}
			}()
			l.OnStateChange(old, new)
		}(l)
	}
}

// --- quickfix.Application ---

func (m *SessionManager) OnCreate(sessionID quickfix.SessionID) {
	m.mu.Lock()
	m.sessionID = &sessionID
	m.mu.Unlock()
}

func (m *SessionManager) OnLogon(sessionID quickfix.SessionID) {
	m.mu.Lock()
	m.lastLogonAt = time.Now()
	m.setStateLocked(StateLoggedOn)
	m.mu.Unlock()

	m.logonOnce.Do(func() { close(m.logonSignal) })
}

// OnLogout models the reconnection policy: the engine re-initiates
// after ReconnectInterval indefinitely. Pending requests outstanding
// at disconnect time are NOT drained here — the tracker owns their
// eventual timeout via stale cleanup.
func (m *SessionManager) OnLogout(sessionID quickfix.SessionID) {
	m.mu.Lock()
	m.setStateLocked(StateLoggedOut)
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	go func() {
		time.Sleep(m.cfg.ReconnectInterval)
		m.mu.Lock()
		if m.initiator != nil {
			m.setStateLocked(StateConnecting)
		}
		m.mu.Unlock()
	}()
}

func (m *SessionManager) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (m *SessionManager) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (m *SessionManager) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

// FromApp is the entry point for every inbound application message —
// it runs on the engine's dedicated inbound-message thread and must
// not block. It simply fans out to registered listeners; the order
// state tracker does the actual parsing/dispatch.
func (m *SessionManager) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	m.listenersMu.Lock()
	listeners := append([]MessageListener(nil), m.messageListeners...)
	m.listenersMu.Unlock()

	for _, l := range listeners {
		func(l MessageListener) {
			defer func() {
				if r := recover(); r != nil {
					m.log.WithField("panic", r).Error("message listener panicked")
				}
			}()
			l.OnMessage(msg, sessionID)
		}(l)
	}
	return nil
}
