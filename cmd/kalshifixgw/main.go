// Command kalshifixgw wires the gateway's components together: it
// loads configuration, starts the FIX session (when configured), and
// exposes the resulting core.Transport to whatever in-process caller
// needs to route orders. Config load, client construction, and a
// readiness wait run as a long-running service entrypoint with
// structured logging throughout, rather than a one-shot demo script.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ljm2ya/quickex-go/config"
	"github.com/ljm2ya/quickex-go/core"
	"github.com/ljm2ya/quickex-go/fix"
	"github.com/ljm2ya/quickex-go/rest"
)

func main() {
	configPath := flag.String("config", "", "path to the session TOML config file")
	statefeedAddr := flag.String("statefeed-addr", "", "address to serve the ops state feed on (empty disables it)")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("component", "cmd.kalshifixgw")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	transport, stop, err := buildTransport(cfg, *statefeedAddr, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build transport")
	}
	defer stop()

	log.WithFields(logrus.Fields{
		"transportMode": cfg.TransportMode,
		"kind":          transport.Kind(),
	}).Info("gateway ready")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	log.Info("shutting down")
}

// buildTransport constructs the core.Transport indicated by
// cfg.TransportMode and returns a stop function that releases every
// resource it opened (session, statefeed listener, sweep goroutine).
func buildTransport(cfg config.Session, statefeedAddr string, log *logrus.Entry) (core.Transport, func(), error) {
	var stoppers []func()
	stopAll := func() {
		for i := len(stoppers) - 1; i >= 0; i-- {
			stoppers[i]()
		}
	}

	restTransport, restErr := rest.NewTransport(cfg.RESTBaseURL, cfg.SenderCompID, cfg.RESTBearerKeyPath)

	switch cfg.TransportMode {
	case config.ModeREST:
		if restErr != nil {
			return nil, stopAll, restErr
		}
		return restTransport, stopAll, nil

	case config.ModeFIX, config.ModeFIXWithFallback:
		session := fix.NewSessionManager(cfg)
		tracker := fix.NewTracker()
		session.RegisterMessageListener(tracker)

		broadcaster := fix.NewBroadcaster()
		session.RegisterStateListener(broadcaster)
		if statefeedAddr != "" {
			mux := http.NewServeMux()
			mux.HandleFunc("/statefeed", broadcaster.ServeHTTP)
			server := &http.Server{Addr: statefeedAddr, Handler: mux}
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.WithError(err).Warn("statefeed server stopped")
				}
			}()
			stoppers = append(stoppers, func() { server.Close() })
		}
		stoppers = append(stoppers, broadcaster.Close)

		if err := session.Start(); err != nil {
			return nil, stopAll, err
		}
		stoppers = append(stoppers, session.Stop)

		if !session.AwaitLogon(30 * time.Second) {
			log.Warn("fix session did not log on within the startup window; continuing, it will keep retrying")
		}

		sweepDone := make(chan struct{})
		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					tracker.SweepStale(cfg.OrderTimeout)
				case <-sweepDone:
					return
				}
			}
		}()
		stoppers = append(stoppers, func() { close(sweepDone) })

		fixTransport := fix.NewTransport(session, tracker)

		if cfg.TransportMode == config.ModeFIX {
			return fixTransport, stopAll, nil
		}

		if restErr != nil {
			log.WithError(restErr).Warn("rest fallback leg unavailable; fix will run without failover")
			return fixTransport, stopAll, nil
		}
		return fix.NewFallbackTransport(fixTransport, restTransport), stopAll, nil

	default:
		return nil, stopAll, restErr
	}
}
