// Package security contiene DTOs para los endpoints de SIM swap y verificación.
package security

import "time"

// CheckResponse es el resultado de GET /security/sim-swap-check.
type CheckResponse struct {
	PhoneNumber   string     `json:"phoneNumber"`
	RecentSwap    bool       `json:"recentSwap"`
	LastSwapDate  *time.Time `json:"lastSwapDate"`
	RiskLevel     string     `json:"riskLevel"`
	DaysSinceSwap *int       `json:"daysSinceSwap"`
	Reasons       []string   `json:"reasons"`
}

// BatchRequest representa POST /security/batch-sim-swap-check.
type BatchRequest struct {
	PhoneNumbers []string `json:"phoneNumbers" validate:"required,min=1"`
}

// BatchSummary cuenta resultados por nivel de riesgo.
type BatchSummary struct {
	Total      int `json:"total"`
	HighRisk   int `json:"highRisk"`
	MediumRisk int `json:"mediumRisk"`
	LowRisk    int `json:"lowRisk"`
}

// BatchResponse mantiene el orden de entrada (sin duplicados).
type BatchResponse struct {
	Results []CheckResponse `json:"results"`
	Summary BatchSummary    `json:"summary"`
}

type HistoryEvent struct {
	Date            time.Time `json:"date"`
	PreviousNetwork string    `json:"previousNetwork"`
	NewNetwork      string    `json:"newNetwork"`
}

// HistoryResponse es el resultado de GET /security/sim-swap-history/{phoneNumber}.
type HistoryResponse struct {
	PhoneNumber string         `json:"phoneNumber"`
	History     []HistoryEvent `json:"history"`
	TotalSwaps  int            `json:"totalSwaps"`
}
