package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/rate"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code, desc string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": code, "error_description": desc,
	})
}

// rlOr429 aplica el rate limit si hay limiter. Un limiter caído (Redis
// inalcanzable) no bloquea notificaciones: se loguea y se deja pasar.
func rlOr429(w http.ResponseWriter, r *http.Request, l rate.Limiter, key string) bool {
	if l == nil {
		return true
	}
	res, err := l.Allow(r.Context(), key)
	if err != nil {
		logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
		return true
	}
	if !res.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
		writeErr(w, "rate_limited", "too many requests", http.StatusTooManyRequests)
		return false
	}
	return true
}

// RequireAdminKey protege rutas admin con X-Admin-API-Key.
// Sin key configurada el endpoint queda deshabilitado (503), no abierto.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeErr(w, "admin_disabled", "admin API key not configured", http.StatusServiceUnavailable)
				return
			}
			got := r.Header.Get("X-Admin-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeErr(w, "unauthorized", "invalid admin API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
