package gate

import (
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// Kind es el resultado que el caller aplica al pago.
type Kind string

const (
	Authorized           Kind = "authorized"
	VerificationRequired Kind = "verification_required"
	Blocked              Kind = "blocked"
)

// Motivos que viajan en Decision.Reason y en el audit log.
const (
	ReasonOperatorBypass       = "operator_bypass"
	ReasonLowRisk              = "low_risk"
	ReasonChallengeIssued      = "challenge_issued"
	ReasonChallengePending     = "challenge_pending"
	ReasonChallengeVerified    = "challenge_verified"
	ReasonChallengeFailed      = "challenge_failed"
	ReasonChallengeExpired     = "challenge_expired"
	ReasonProofMismatch        = "proof_mismatch"
	ReasonRiskCheckUnavailable = "risk_check_unavailable"
)

// Decision es la respuesta autoritativa del gate.
type Decision struct {
	Kind              Kind                       `json:"decision"`
	PaymentAttemptID  string                     `json:"paymentAttemptId"`
	ChallengeID       string                     `json:"challengeId,omitempty"`
	AllowedMethods    []types.VerificationMethod `json:"allowedMethods,omitempty"`
	Method            types.VerificationMethod   `json:"verificationMethod,omitempty"`
	Tier              types.RiskTier             `json:"riskLevel,omitempty"`
	Assessment        *types.RiskAssessment      `json:"assessment,omitempty"`
	Reason            string                     `json:"reason,omitempty"`
	Degraded          bool                       `json:"degraded,omitempty"`
	ExpiresAt         *time.Time                 `json:"expiresAt,omitempty"`
	AttemptsRemaining int                        `json:"attemptsRemaining,omitempty"`
	VerificationURL   string                     `json:"verificationUrl,omitempty"`
}

func (d Decision) IsAuthorized() bool { return d.Kind == Authorized }

func (k Kind) auditDecision() types.AuditDecision {
	switch k {
	case Authorized:
		return types.AuditAuthorized
	case VerificationRequired:
		return types.AuditVerificationRequired
	}
	return types.AuditBlocked
}

func fromChallenge(d *Decision, c *types.Challenge) {
	d.ChallengeID = c.ID
	d.Method = c.Method
	d.Tier = c.RiskTier
	d.AttemptsRemaining = c.AttemptsRemaining
	exp := c.ExpiresAt
	d.ExpiresAt = &exp
}
