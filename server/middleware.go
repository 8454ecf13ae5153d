package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"os"
)

// adminAuth protects admin endpoints with token auth (X-Admin-Token header,
// ADMIN_TOKEN env). When no token is configured, admin endpoints are open;
// that's acceptable for local dev and loudly warned about at request time.
func adminAuth(next http.Handler) http.Handler {
	token := os.Getenv("ADMIN_TOKEN")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			slog.Warn("admin endpoint accessed without ADMIN_TOKEN configured", slog.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get("X-Admin-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
