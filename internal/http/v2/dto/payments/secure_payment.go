// Package payments contiene DTOs para el endpoint de pagos protegidos.
package payments

import "time"

// SecurePaymentRequest representa POST /payments/secure-payment.
// Amount y phoneNumber se validan en el gate para que el rechazo quede auditado.
type SecurePaymentRequest struct {
	PaymentID          string  `json:"paymentId" validate:"omitempty,max=128"`
	WorkerID           string  `json:"workerId" validate:"required,max=128"`
	Amount             float64 `json:"amount"`
	Method             string  `json:"method" validate:"required,max=64"`
	PhoneNumber        string  `json:"phoneNumber" validate:"required"`
	BypassSimSwapCheck bool    `json:"bypassSimSwapCheck,omitempty"`
	VerificationMethod string  `json:"verificationMethod,omitempty" validate:"omitempty,oneof=email alternate_phone security_questions"`
}

// SecurityChecks resume la evaluación de riesgo aplicada al pago.
type SecurityChecks struct {
	SimSwapChecked bool     `json:"simSwapChecked"`
	RiskLevel      string   `json:"riskLevel,omitempty"`
	DaysSinceSwap  *int     `json:"daysSinceSwap,omitempty"`
	Reasons        []string `json:"reasons,omitempty"`
	Degraded       bool     `json:"degraded"`
	Bypassed       bool     `json:"bypassed"`
	Decision       string   `json:"decision"`
	Reason         string   `json:"reason"`
}

// SecurePaymentResponse: success=false cuando hace falta verificación o el
// pago quedó bloqueado (se responde 200 igual).
type SecurePaymentResponse struct {
	Success             bool           `json:"success"`
	PaymentID           string         `json:"paymentId"`
	Status              string         `json:"status"`
	SimSwapDetected     bool           `json:"simSwapDetected"`
	SecurityChecks      SecurityChecks `json:"securityChecks"`
	VerificationOptions []string       `json:"verificationOptions,omitempty"`
	VerificationMethod  string         `json:"verificationMethod,omitempty"`
	VerificationURL     string         `json:"verificationUrl,omitempty"`
	ChallengeID         string         `json:"challengeId,omitempty"`
	ExpiresAt           *time.Time     `json:"expiresAt,omitempty"`
	AttemptsRemaining   int            `json:"attemptsRemaining,omitempty"`
}

// Valores de SecurePaymentResponse.Status.
const (
	StatusPending              = "pending"
	StatusVerificationRequired = "verification_required"
	StatusBlocked              = "blocked"
)
