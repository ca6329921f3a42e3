package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Grid         *GridHandler
	Reservations *ReservationHandler
	// Devices authenticates office routes. Office routes are not mounted
	// without it.
	Devices DeviceAuthenticator
	Health  Pinger
	// Metrics serves GET /metrics when set; Observer counts routed requests.
	Metrics    http.Handler
	Observer   RequestObserver
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	responder := newResponder(cfg.Logger)

	if cfg.Observer != nil {
		r.Use(RequestMetrics(cfg.Observer))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health.Ping(req.Context()); err != nil {
				responder.writeJSON(req.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(req.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}).Methods(http.MethodGet)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	if cfg.Grid != nil {
		public := r.PathPrefix("/api/public").Subrouter()
		public.HandleFunc("/grid", cfg.Grid.Public).Methods(http.MethodGet)
	}

	if cfg.Devices != nil {
		office := r.PathPrefix("/api/office").Subrouter()
		office.Use(RequireDevice(cfg.Devices, cfg.Logger))
		if cfg.Grid != nil {
			office.HandleFunc("/grid", cfg.Grid.Office).Methods(http.MethodGet)
		}
		if cfg.Reservations != nil {
			office.HandleFunc("/reservations", cfg.Reservations.Create).Methods(http.MethodPost)
			office.HandleFunc("/reservations/{id}", cfg.Reservations.Update).Methods(http.MethodPatch)
			office.HandleFunc("/reservations/{id}/cancel", cfg.Reservations.Cancel).Methods(http.MethodPost)
		}
	}

	var handler http.Handler = r
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

type healthResponse struct {
	Status string `json:"status"`
}
