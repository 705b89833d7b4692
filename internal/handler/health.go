package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealthz responds with 200 and {status: "ok"} while the database
// answers, and 503 otherwise.
func HandleHealthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				slog.Error("health check", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"code":    http.StatusServiceUnavailable,
					"message": http.StatusText(http.StatusServiceUnavailable),
					"status":  "unavailable",
				})
				return
			}
		}
		writeSuccess(w, map[string]any{"status": "ok"})
	}
}
