// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/health"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Probe chequea un componente. Critical marca el servicio unavailable si falla.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version  string
	Provider string
	Probes   []Probe
	Timeout  time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	sort.SliceStable(deps.Probes, func(i, j int) bool { return deps.Probes[i].Name < deps.Probes[j].Name })
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	response := dto.HealthResponse{
		Version:    s.deps.Version,
		Provider:   s.deps.Provider,
		Components: make(map[string]dto.HealthStatus, len(s.deps.Probes)),
		Timestamp:  time.Now().UTC(),
	}

	hasErrors, hasCriticalErrors := false, false
	for _, p := range s.deps.Probes {
		if p.Check == nil {
			response.Components[p.Name] = dto.HealthStatus{Status: "disabled"}
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		err := p.Check(cctx)
		cancel()
		if err != nil {
			response.Components[p.Name] = dto.HealthStatus{
				Status:  "error",
				Message: fmt.Sprintf("unavailable: %v", err),
			}
			log.Error("component unavailable", logger.String("component_name", p.Name), logger.Err(err))
			if p.Critical {
				hasCriticalErrors = true
			} else {
				hasErrors = true
			}
			continue
		}
		response.Components[p.Name] = dto.HealthStatus{Status: "ok"}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	default:
		response.Status = "ready"
	}
	return response
}
