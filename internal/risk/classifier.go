// Package risk clasifica el riesgo de un número a partir de su historial de SIM swap.
package risk

import (
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

const (
	// HighRiskDays: swaps de hasta 7 días (inclusive) son High.
	HighRiskDays = 7
	// MediumRiskDays: swaps de 8 a 30 días (inclusive) son Medium.
	// El día 30 sigue siendo Medium; Low empieza en el día 31.
	MediumRiskDays = 30
)

// Classify es una función pura: mismo record y mismo now dan el mismo resultado.
// No lee el reloj; el caller provee now.
func Classify(rec types.SwapRecord, now time.Time) types.RiskAssessment {
	a := types.RiskAssessment{PhoneNumber: rec.PhoneNumber}

	if rec.LastSwapAt == nil {
		a.Tier = types.RiskLow
		a.Reasons = []string{types.ReasonNoSwap}
		return a
	}

	days := DaysSince(*rec.LastSwapAt, now)
	a.DaysSinceSwap = &days
	a.RecentSwap = true

	switch {
	case days <= HighRiskDays:
		a.Tier = types.RiskHigh
		a.Reasons = append(a.Reasons, types.ReasonSwapWithin7)
	case days <= MediumRiskDays:
		a.Tier = types.RiskMedium
		a.Reasons = append(a.Reasons, types.ReasonSwapWithin30)
	default:
		a.Tier = types.RiskLow
		a.Reasons = append(a.Reasons, types.ReasonSwapOlderThan30)
		return a
	}

	// cambio de dispositivo junto a un swap reciente escala a High
	if rec.DeviceChanged {
		a.Tier = types.RiskHigh
		a.Reasons = append(a.Reasons, types.ReasonDeviceChanged)
	}
	if rec.LocationChanged {
		a.Reasons = append(a.Reasons, types.ReasonLocationChanged)
	}
	return a
}

// DaysSince es floor((now - at) / 24h). Fechas futuras cuentan como día 0.
func DaysSince(at, now time.Time) int {
	d := now.Sub(at)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
