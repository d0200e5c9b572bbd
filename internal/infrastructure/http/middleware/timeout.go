package middleware

import (
	"context"
	"net/http"
	"time"

	"3tcapital/facturas_sri/internal/infrastructure/config"
)

// ExtendedTimeout gives batch endpoints more time than the server-wide
// WriteTimeout. Both the request context and the connection write deadline
// are extended.
func ExtendedTimeout(cfg config.HTTPSettings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.WriteTimeoutBatch <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			// Not every writer supports deadlines (httptest.ResponseRecorder).
			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(cfg.WriteTimeoutBatch))

			ctx, cancel := context.WithTimeout(r.Context(), cfg.WriteTimeoutBatch)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
