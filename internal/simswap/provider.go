// Package simswap consulta a operadores telecom por cambios de SIM recientes.
//
// Oracle es el punto de entrada: valida números, acota la latencia de cada
// consulta y traduce cualquier falla del proveedor a ErrOracleUnavailable.
// Los Provider implementan el transporte concreto (gateway HTTP, Twilio, fixtures).
package simswap

import (
	"context"
	"errors"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

var (
	// ErrOracleUnavailable: el proveedor falló o no respondió a tiempo.
	ErrOracleUnavailable = errors.New("sim swap oracle unavailable")

	// ErrBatchTooLarge: el lote supera MaxBatchTotal números.
	ErrBatchTooLarge = errors.New("sim swap batch too large")

	// ErrNotSupported: el proveedor no implementa la operación.
	ErrNotSupported = errors.New("operation not supported by provider")
)

// Provider es la frontera con el operador telecom.
type Provider interface {
	Name() string

	// LastSwap retorna el último swap conocido. Sin swap: LastSwapAt nil.
	LastSwap(ctx context.Context, phone string) (types.SwapRecord, error)

	// LastSwapBatch consulta varios números en una sola llamada.
	// len(phones) nunca supera MaxBatchSize().
	LastSwapBatch(ctx context.Context, phones []string) (map[string]types.SwapRecord, error)

	// History retorna los swaps conocidos, más reciente primero.
	History(ctx context.Context, phone string) ([]types.SwapEvent, error)

	MaxBatchSize() int
}

// MessageReceipt es la respuesta del gateway al enviar un SMS.
type MessageReceipt struct {
	MessageID string
	Status    string
}

// Messenger envía SMS por el mismo gateway telecom.
type Messenger interface {
	SendSMS(ctx context.Context, to, body string) (MessageReceipt, error)
}
