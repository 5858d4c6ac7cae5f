// Package security contiene los controllers de SIM swap y verificación.
package security

import svc "github.com/dropDatabas3/simguard/internal/http/v2/services/security"

// Controllers agrupa los controllers del dominio security.
type Controllers struct {
	SimSwap      *SimSwapController
	Verification *VerificationController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		SimSwap:      NewSimSwapController(s.SimSwap),
		Verification: NewVerificationController(s.Verification),
	}
}
