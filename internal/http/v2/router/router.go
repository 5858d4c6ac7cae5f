// Package router arma el router chi con todas las rutas V2.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/simguard/internal/http/v2/controllers"
	httperrors "github.com/dropDatabas3/simguard/internal/http/v2/errors"
	mw "github.com/dropDatabas3/simguard/internal/http/v2/middlewares"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers

	// Metrics es el handler de /metrics (nil = sin endpoint).
	Metrics http.Handler

	TrustProxy  bool
	CORSOrigins []string

	// Rate limits por grupo de rutas; Limiter nil desactiva el grupo.
	CheckLimit   mw.RateLimitConfig
	VerifyLimit  mw.RateLimitConfig
	PaymentLimit mw.RateLimitConfig
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	c := deps.Controllers

	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(deps.TrustProxy),
		// antes del routing: los preflight OPTIONS no matchean ninguna ruta
		mw.WithCORS(deps.CORSOrigins),
	)

	// Infra: sin logging por request (muy frecuentes)
	r.Get("/healthz", c.Health.Healthz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithLogging(),
			mw.WithMetrics(),
			mw.WithSecurityHeaders(),
			mw.WithNoStore(),
		)
		registerSecurityRoutes(r, deps)
		registerPaymentRoutes(r, deps)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})
	return r
}
