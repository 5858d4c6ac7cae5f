// Package audit contiene DTOs para la revisión del audit log.
package audit

import "time"

type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	PaymentID   string    `json:"paymentId"`
	PhoneNumber string    `json:"phoneNumber"`
	RiskLevel   string    `json:"riskLevel,omitempty"`
	Decision    string    `json:"decision"`
	ChallengeID string    `json:"challengeId,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Degraded    bool      `json:"degraded"`
	Amount      float64   `json:"amount"`
	WorkerID    string    `json:"workerId,omitempty"`
	Operator    string    `json:"operator,omitempty"`
}

// ListResponse es el resultado de GET /security/audit.
type ListResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}
