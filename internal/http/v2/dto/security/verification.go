package security

import "time"

// VerifyRequest representa POST /security/verify-after-swap.
// El challenge se resuelve por challengeId, por el token del link o por paymentId
// (en ese orden).
type VerifyRequest struct {
	ChallengeID        string           `json:"challengeId" validate:"required_without_all=PaymentID Token"`
	PaymentID          string           `json:"paymentId"`
	Token              string           `json:"token"`
	PhoneNumber        string           `json:"phoneNumber" validate:"required"`
	VerificationMethod string           `json:"verificationMethod" validate:"required,oneof=email alternate_phone security_questions"`
	VerificationData   VerificationData `json:"verificationData"`
}

// VerificationData es el proof: code para email/alternate_phone, answers
// (questionID -> respuesta) para security_questions.
type VerificationData struct {
	Code    string            `json:"code,omitempty"`
	Answers map[string]string `json:"answers,omitempty"`
}

// VerifyResponse es el resultado de aplicar el proof.
type VerifyResponse struct {
	Verified           bool       `json:"verified"`
	ChallengeID        string     `json:"challengeId"`
	PaymentID          string     `json:"paymentId"`
	VerificationMethod string     `json:"verificationMethod"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	Status             string     `json:"status"`
	AttemptsRemaining  int        `json:"attemptsRemaining"`
	Decision           string     `json:"decision"`
	Reason             string     `json:"reason,omitempty"`
}

// ChallengeStatusResponse es el estado público de un challenge (sin secreto).
type ChallengeStatusResponse struct {
	ChallengeID        string     `json:"challengeId"`
	PaymentID          string     `json:"paymentId"`
	PhoneNumber        string     `json:"phoneNumber"`
	RiskLevel          string     `json:"riskLevel"`
	VerificationMethod string     `json:"verificationMethod"`
	Status             string     `json:"status"`
	AttemptsRemaining  int        `json:"attemptsRemaining"`
	CreatedAt          time.Time  `json:"createdAt"`
	ExpiresAt          time.Time  `json:"expiresAt"`
	VerifiedAt         *time.Time `json:"verifiedAt,omitempty"`
}
