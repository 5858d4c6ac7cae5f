// Package services agrupa todos los services HTTP V2.
// Este es el "composition root" de services: server/wiring.go arma Deps
// y los controllers reciben los services ya construidos.
package services

import (
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/http/v2/services/audit"
	"github.com/dropDatabas3/simguard/internal/http/v2/services/health"
	"github.com/dropDatabas3/simguard/internal/http/v2/services/payments"
	"github.com/dropDatabas3/simguard/internal/http/v2/services/security"
)

// Deps contiene las dependencias externas de todos los services.
type Deps struct {
	Oracle      security.Oracle
	Gate        Gate
	Attempts    security.AttemptLookup
	Links       security.LinkParser
	AuditReader repository.AuditReader
	Health      health.Deps
	Now         func() time.Time
}

// Gate es la superficie del gate usada por security y payments.
type Gate interface {
	security.Confirmer
	payments.Authorizer
}

// Services agrupa los services de cada dominio.
type Services struct {
	Security security.Services
	Payments payments.PaymentService
	Audit    audit.AuditService
	Health   health.HealthService
}

func New(d Deps) *Services {
	return &Services{
		Security: security.NewServices(security.Deps{
			Oracle:   d.Oracle,
			Gate:     d.Gate,
			Attempts: d.Attempts,
			Links:    d.Links,
			Now:      d.Now,
		}),
		Payments: payments.NewPaymentService(d.Gate),
		Audit:    audit.NewAuditService(d.AuditReader),
		Health:   health.NewHealthService(d.Health),
	}
}
