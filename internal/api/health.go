package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthTimeout = 3 * time.Second

// HealthHandlerFunc returns an http.HandlerFunc that pings every dependency
// concurrently. It answers 200 when all of them respond and 503 otherwise.
func HealthHandlerFunc(checks map[string]Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			result = map[string]string{"status": "ok"}
			status = http.StatusOK
		)

		// Individual failures are recorded, never returned, so one slow
		// dependency does not cancel the others.
		var g errgroup.Group
		for name, p := range checks {
			name, p := name, p
			g.Go(func() error {
				state := "ok"
				if err := p.Ping(ctx); err != nil {
					log.Error("health check failed", "dependency", name, "err", err)
					state = "error"
				}

				mu.Lock()
				defer mu.Unlock()
				result[name] = state
				if state != "ok" {
					result["status"] = "degraded"
					status = http.StatusServiceUnavailable
				}
				return nil
			})
		}
		_ = g.Wait()

		writeJSON(w, status, result)
	}
}
