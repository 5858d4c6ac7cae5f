package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/simguard/internal/http/v2/middlewares"
)

// registerPaymentRoutes registra el endpoint de pagos protegidos por el gate.
func registerPaymentRoutes(r chi.Router, deps Deps) {
	r.Route("/payments", func(r chi.Router) {
		r.Use(mw.WithRateLimit(deps.PaymentLimit))
		r.Post("/secure-payment", deps.Controllers.Payments.SecurePayment)
	})
}
