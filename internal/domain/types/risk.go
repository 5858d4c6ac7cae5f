package types

// RiskTier es el nivel de riesgo asignado a un número.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// IsValid retorna true si el tier es conocido.
func (t RiskTier) IsValid() bool {
	switch t {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RequiresChallenge indica si el tier exige verificación out-of-band.
func (t RiskTier) RequiresChallenge() bool {
	return t == RiskMedium || t == RiskHigh
}

// RiskAssessment es el resultado del clasificador.
// DaysSinceSwap es nil cuando no hay swap registrado.
type RiskAssessment struct {
	PhoneNumber   string   `json:"phoneNumber"`
	RecentSwap    bool     `json:"recentSwap"`
	DaysSinceSwap *int     `json:"daysSinceSwap"`
	Tier          RiskTier `json:"riskLevel"`
	Reasons       []string `json:"reasons"`
}

// Reason codes del clasificador.
const (
	ReasonNoSwap          = "no_swap_on_record"
	ReasonSwapWithin7     = "swap_within_7_days"
	ReasonSwapWithin30    = "swap_within_30_days"
	ReasonSwapOlderThan30 = "swap_older_than_30_days"
	ReasonDeviceChanged   = "device_changed"
	ReasonLocationChanged = "location_changed"
)
