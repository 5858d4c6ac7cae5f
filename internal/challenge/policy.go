package challenge

import (
	"slices"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// AllowedMethods retorna los métodos permitidos para el tier, en orden de preferencia.
// En High no se ofrece alternate_phone: el atacante que hizo el swap
// puede controlar también números asociados.
func AllowedMethods(tier types.RiskTier) []types.VerificationMethod {
	switch tier {
	case types.RiskHigh:
		return []types.VerificationMethod{types.MethodEmail, types.MethodSecurityQuestions}
	case types.RiskMedium:
		return []types.VerificationMethod{types.MethodEmail, types.MethodAlternatePhone, types.MethodSecurityQuestions}
	default:
		return nil
	}
}

// MethodAllowed reporta si m es válido para tier.
func MethodAllowed(tier types.RiskTier, m types.VerificationMethod) bool {
	return slices.Contains(AllowedMethods(tier), m)
}
