package types

import "time"

// AuditDecision es la decisión registrada en el audit log.
type AuditDecision string

const (
	AuditAuthorized           AuditDecision = "authorized"
	AuditAuthorizedBypass     AuditDecision = "authorized_bypass"
	AuditVerificationRequired AuditDecision = "verification_required"
	AuditBlocked              AuditDecision = "blocked"
	AuditRejected             AuditDecision = "rejected"
)

// AuditEntry es un registro write-once. Nunca se actualiza ni se borra.
type AuditEntry struct {
	ID               string        `json:"id"`
	Timestamp        time.Time     `json:"timestamp"`
	PaymentAttemptID string        `json:"paymentAttemptId"`
	PhoneNumber      string        `json:"phoneNumber"`
	RiskTier         RiskTier      `json:"riskTier,omitempty"`
	Decision         AuditDecision `json:"decision"`
	ChallengeID      string        `json:"challengeId,omitempty"`
	Reason           string        `json:"reason,omitempty"`
	Degraded         bool          `json:"degraded"`
	Amount           float64       `json:"amount"`
	WorkerID         string        `json:"workerId,omitempty"`
	Operator         string        `json:"operator,omitempty"`
}
