package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/simguard/internal/http/v2/middlewares"
)

// registerSecurityRoutes registra consultas de SIM swap, verificación y audit.
func registerSecurityRoutes(r chi.Router, deps Deps) {
	c := deps.Controllers

	r.Route("/security", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(deps.CheckLimit))
			r.Get("/sim-swap-check", c.Security.SimSwap.Check)
			r.Post("/batch-sim-swap-check", c.Security.SimSwap.Batch)
			r.Get("/sim-swap-history/{phoneNumber}", c.Security.SimSwap.History)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(deps.VerifyLimit))
			r.Post("/verify-after-swap", c.Security.Verification.Verify)
			r.Get("/challenges/{id}", c.Security.Verification.Status)
		})

		r.Get("/audit", c.Audit.List)
	})
}
