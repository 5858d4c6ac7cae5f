// Package controllers agrupa todos los controllers HTTP V2.
// Este es el "composition root" de controllers:
//
//	svcs := services.New(deps)      ← services/services.go
//	ctrls := controllers.New(svcs)  ← este archivo
//	router.New(router.Deps{...})    ← router/router.go
package controllers

import (
	"github.com/dropDatabas3/simguard/internal/http/v2/controllers/audit"
	"github.com/dropDatabas3/simguard/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/simguard/internal/http/v2/controllers/payments"
	"github.com/dropDatabas3/simguard/internal/http/v2/controllers/security"
	"github.com/dropDatabas3/simguard/internal/http/v2/services"
)

// Controllers agrupa los controllers de cada dominio.
type Controllers struct {
	Security *security.Controllers
	Payments *payments.PaymentController
	Audit    *audit.AuditController
	Health   *health.HealthController
}

func New(s *services.Services) *Controllers {
	return &Controllers{
		Security: security.NewControllers(s.Security),
		Payments: payments.NewPaymentController(s.Payments),
		Audit:    audit.NewAuditController(s.Audit),
		Health:   health.NewHealthController(s.Health),
	}
}
