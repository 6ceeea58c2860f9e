package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/serenadecraft/serenade-backend/api/responses"
	"github.com/serenadecraft/serenade-backend/pkg/config"
	pkgerrors "github.com/serenadecraft/serenade-backend/pkg/errors"
	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Serenade-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency. A nil pinger is skipped so
// partial wiring in tests stays green.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis, gcs pinger) http.HandlerFunc {
	checks := map[string]pinger{
		"database": db,
		"redis":    redis,
		"gcs":      gcs,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Serenade-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, p := range checks {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
