package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"traffic_supervisor/internal/handlers"
	"traffic_supervisor/internal/logger"
	"traffic_supervisor/internal/publish"
	"traffic_supervisor/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the device, simulate the cycle and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a.services.Init(ctx)
	a.startMQTT(ctx)

	done := make(chan struct{})
	go func() {
		a.services.Run(ctx)
		close(done)
	}()

	apiHandler := handlers.NewHandler(a.services, a.log.Named("http"))
	srv := &server.Server{}
	runHTTPServer(srv, a.cfg.Port, server.WithCORS(apiHandler.InitRoutes(), a.cfg.CORS.AllowedOrigins), a.log)

	waitForShutdown(cancel, srv, a.log)
	<-done
	return nil
}

// startMQTT mirrors state changes to the broker when one is configured.
func (a *app) startMQTT(ctx context.Context) {
	if strings.TrimSpace(a.cfg.MQTT.Broker) == "" {
		return
	}
	log := a.log.Named("mqtt")
	broker, err := publish.Dial(publish.Options{
		Broker:   a.cfg.MQTT.Broker,
		ClientID: a.cfg.MQTT.ClientID,
		Username: a.cfg.MQTT.Username,
		Password: a.cfg.MQTT.Password,
	}, log)
	if err != nil {
		log.Errorw("mqtt_disabled", "err", err)
		return
	}
	pub := publish.NewStatePublisher(broker, a.cfg.MQTT.Topic, log)
	a.services.Tracker.Subscribe(pub.Observe)
	go pub.Run(ctx)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8090"
		}
		log.Infow("http_listening", "port", port)
		if err := srv.Run(port, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop polling, the simulator and the publisher
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
