// Package router arma el chi.Mux del servicio de notificaciones.
package router

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/mailjohn/internal/http/handlers"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Notify *handlers.NotifyHandler
	Admin  *handlers.AdminHandler
}

// New construye el router con middlewares base, health, métricas y rutas.
func New(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(withRequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if deps.Notify != nil {
		deps.Notify.Register(r)
	}
	if deps.Admin != nil {
		deps.Admin.Register(r)
	}
	return r
}

// withRequestLogger inyecta un logger con request-id en el context (los layers
// de abajo lo levantan con logger.From) y escribe un access log por request.
func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		log := logger.L().With(logger.RequestID(reqID))
		ctx := logger.ToContext(r.Context(), log)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Info("http request",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			logger.Duration(time.Since(start)),
			logger.ClientIP(r.RemoteAddr),
		)
	})
}
