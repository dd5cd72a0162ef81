package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-console/internal/handler"
	appointmentHandler "github.com/jwalitptl/clinic-console/internal/handler/appointment"
	diagnosisHandler "github.com/jwalitptl/clinic-console/internal/handler/diagnosis"
	"github.com/jwalitptl/clinic-console/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-console/internal/handler/patient"
	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/router"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				a.cfg.Server.Port = port
			}
			return runServer(a)
		},
	}
	cmd.Flags().Int("port", 0, "listen port, overrides server.port")
	return cmd
}

func runServer(a *app) error {
	gin.SetMode(gin.ReleaseMode)

	r := router.NewRouter(
		a.log,
		handler.NewHandler(a.registry),
		middleware.NewHTTPMetrics("clinic", a.registry),
		health.NewHandler(a.checks),
		router.RouterConfig{
			RateEnabled: a.cfg.RateLimit.Enabled,
			RateLimit: middleware.RateLimiterConfig{
				RPS:        a.cfg.RateLimit.RequestsPerSecond,
				Burst:      a.cfg.RateLimit.Burst,
				Expiration: a.cfg.RateLimit.Expiration,
			},
		},
		patientHandler.NewHandler(a.patients),
		appointmentHandler.NewHandler(a.appointments, a.loc),
		diagnosisHandler.NewHandler(a.diagnoses),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	outboxDone := make(chan struct{})
	if a.outbox != nil {
		go func() {
			a.outbox.Start(ctx)
			close(outboxDone)
		}()
	} else {
		close(outboxDone)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		a.log.Info("shutting down server...")
	case err := <-errCh:
		stop()
		<-outboxDone
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error(err, "server forced to shutdown")
	}

	stop()
	<-outboxDone
	a.log.Info("server exited properly")
	return nil
}
