package types

import "time"

// VerificationMethod es el canal out-of-band usado para un challenge.
type VerificationMethod string

const (
	MethodEmail             VerificationMethod = "email"
	MethodAlternatePhone    VerificationMethod = "alternate_phone"
	MethodSecurityQuestions VerificationMethod = "security_questions"
)

// IsValid retorna true si el método es conocido.
func (m VerificationMethod) IsValid() bool {
	switch m {
	case MethodEmail, MethodAlternatePhone, MethodSecurityQuestions:
		return true
	}
	return false
}

// UsesCode indica si el método entrega un código numérico.
func (m VerificationMethod) UsesCode() bool {
	return m == MethodEmail || m == MethodAlternatePhone
}

// ChallengeStatus es el estado del ciclo de vida de un challenge.
type ChallengeStatus string

const (
	ChallengePending  ChallengeStatus = "pending"
	ChallengeVerified ChallengeStatus = "verified"
	ChallengeFailed   ChallengeStatus = "failed"
	ChallengeExpired  ChallengeStatus = "expired"
)

// IsTerminal: verified, failed y expired no vuelven a pending.
func (s ChallengeStatus) IsTerminal() bool {
	return s != ChallengePending
}

// Challenge es una verificación out-of-band ligada a un intento de pago.
// SecretHash nunca sale del proceso (json:"-").
type Challenge struct {
	ID                string             `json:"id"`
	PaymentAttemptID  string             `json:"paymentAttemptId"`
	PhoneNumber       string             `json:"phoneNumber"`
	RiskTier          RiskTier           `json:"riskTier"`
	Method            VerificationMethod `json:"method"`
	SecretHash        string             `json:"-"`
	CreatedAt         time.Time          `json:"createdAt"`
	ExpiresAt         time.Time          `json:"expiresAt"`
	AttemptsRemaining int                `json:"attemptsRemaining"`
	Status            ChallengeStatus    `json:"status"`
	VerifiedAt        *time.Time         `json:"verifiedAt,omitempty"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// ExpiredAt reporta si el challenge venció respecto de now (now > ExpiresAt).
func (c *Challenge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ActiveAt reporta si el challenge sigue pending y sin vencer en now.
func (c *Challenge) ActiveAt(now time.Time) bool {
	return c.Status == ChallengePending && !c.ExpiredAt(now)
}

// Clone retorna una copia independiente.
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	cp := *c
	if c.VerifiedAt != nil {
		t := *c.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}
