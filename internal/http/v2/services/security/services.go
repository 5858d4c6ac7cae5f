// Package security contiene los services de consulta de SIM swap y
// verificación post-swap.
package security

import "time"

// Deps contiene las dependencias del dominio security.
type Deps struct {
	Oracle   Oracle
	Gate     Confirmer
	Attempts AttemptLookup
	Links    LinkParser
	Now      func() time.Time
}

// Services agrupa los services del dominio.
type Services struct {
	SimSwap      SimSwapService
	Verification VerificationService
}

func NewServices(d Deps) Services {
	return Services{
		SimSwap:      NewSimSwapService(d.Oracle, d.Now),
		Verification: NewVerificationService(d.Gate, d.Attempts, d.Links),
	}
}
