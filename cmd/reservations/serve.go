package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/facility-reservations/internal/application"
	httptransport "github.com/example/facility-reservations/internal/http"
	"github.com/example/facility-reservations/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reservation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			handler, err := a.buildHandler(ctx)
			if err != nil {
				return err
			}
			return a.serve(ctx, addr, handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func (a *app) buildHandler(ctx context.Context) (http.Handler, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := []application.ReservationOption{
		application.WithReservationLogger(a.logger),
		application.WithReservationIDGenerator(uuid.NewString),
	}
	routerCfg := httptransport.RouterConfig{
		Health:     store,
		Logger:     a.logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(a.logger)},
	}
	if a.cfg.Metrics.Enabled {
		recorder := metrics.New()
		opts = append(opts, application.WithReservationMetrics(recorder))
		routerCfg.Metrics = recorder.Handler()
		routerCfg.Observer = recorder
	}

	reservations := application.NewReservationService(store, a.policy, a.hasher, opts...)
	devices := application.NewDeviceServiceWithLogger(store, a.hasher, uuid.NewString, time.Now, a.logger)

	routerCfg.Grid = httptransport.NewGridHandler(reservations, time.Now, a.logger)
	routerCfg.Reservations = httptransport.NewReservationHandler(reservations, a.logger)
	routerCfg.Devices = devices
	return httptransport.NewRouter(routerCfg), nil
}

func (a *app) serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	a.logger.Info("reservations API listening",
		"addr", server.Addr,
		"time_zone", a.policy.Location.String(),
		"driver", a.cfg.Storage.Driver,
		"metrics", a.cfg.Metrics.Enabled,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
