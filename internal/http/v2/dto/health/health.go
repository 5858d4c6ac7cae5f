// Package health contiene DTOs para health checks.
package health

import "time"

// HealthStatus es el estado de un componente.
type HealthStatus struct {
	Status  string `json:"status"` // "ok", "error", "disabled"
	Message string `json:"message,omitempty"`
}

// HealthResponse representa la respuesta de /healthz.
type HealthResponse struct {
	Status     string                  `json:"status"` // "ready", "degraded", "unavailable"
	Version    string                  `json:"version,omitempty"`
	Provider   string                  `json:"provider,omitempty"`
	Components map[string]HealthStatus `json:"components"`
	Timestamp  time.Time               `json:"timestamp"`
}
