package http

import (
	"context"
	"net/http"
	"time"

	"github.com/filmdoms/community/internal/common/logger"
)

type HealthCheck func(ctx context.Context) error

// HealthHandler reports 503 with the failing dependency names when any
// check fails.
func HealthHandler(log *logger.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteErrorEnvelope(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil, "")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			log.WithFields(ctx, logger.Fields{"action": "health_check_failed"}).Warnf("health check failed: %v", failed)
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failed": failed})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
