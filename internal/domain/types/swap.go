package types

import "time"

// SwapRecord es lo que el operador reporta sobre un número.
// LastSwapAt nil significa que no hay swap registrado.
type SwapRecord struct {
	PhoneNumber     string     `json:"phoneNumber"`
	LastSwapAt      *time.Time `json:"lastSwapAt,omitempty"`
	PriorNetwork    string     `json:"priorNetwork,omitempty"`
	NewNetwork      string     `json:"newNetwork,omitempty"`
	DeviceChanged   bool       `json:"deviceChanged"`
	LocationChanged bool       `json:"locationChanged"`
}

// HasSwap indica si el operador tiene algún swap registrado.
func (r SwapRecord) HasSwap() bool { return r.LastSwapAt != nil }

// SwapEvent es una entrada del historial de swaps de un número.
type SwapEvent struct {
	Date            time.Time `json:"date"`
	PreviousNetwork string    `json:"previousNetwork"`
	NewNetwork      string    `json:"newNetwork"`
}
