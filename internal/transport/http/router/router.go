// Package router wires the HTTP edge, grounded on event-service's
// transport/http/router.New: operational endpoints unauthenticated,
// domain endpoints behind request-id/security/rate-limit middleware,
// writes behind JWT auth. Prometheus RED metrics and the /metrics
// endpoint are carried from the same file's authmw.Metrics +
// promhttp.Handler() wiring.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/config"
	rediscache "github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/caching/redis"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/handlers"
	mw "github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/middleware"
)

type Dependencies struct {
	DeadLetters *handlers.DeadLettersHandler
	AreaGen     *handlers.AreaGenHandler
	Auth        *mw.Auth
	Pool        *pgxpool.Pool
	Redis       *rediscache.Client
	Config      *config.Config
	Logger      zerolog.Logger
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Metrics)
	r.Use(mw.SecurityHeaders)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.AccessLog(deps.Logger))
	r.Use(mw.CORS(deps.Config.CORSAllowedOrigins))

	if deps.Config.RLEnabled {
		r.Use(httprate.LimitByIP(deps.Config.RLLimit, deps.Config.RLWindow))
	}

	r.Get("/healthz", handlers.Health)
	r.Get("/readyz", readyzHandler(deps.Pool, deps.Redis))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/worldcore/v1", func(r chi.Router) {
		r.Get("/dead-letters", deps.DeadLetters.List)
		r.Get("/dead-letters/{record_id}", deps.DeadLetters.Get)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Require)
			r.Post("/area-generation", deps.AreaGen.Trigger)
		})
	})

	return r
}

func readyzHandler(pool *pgxpool.Pool, rdb *rediscache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				checks["database"] = "unhealthy: " + err.Error()
				healthy = false
			} else {
				checks["database"] = "healthy"
			}
		} else {
			checks["database"] = "not_configured"
			healthy = false
		}

		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				checks["redis"] = "unhealthy: " + err.Error()
				healthy = false
			} else {
				checks["redis"] = "healthy"
			}
		} else {
			checks["redis"] = "not_configured"
		}

		status := http.StatusOK
		checks["status"] = "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			checks["status"] = "not_ready"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(checks)
	}
}
