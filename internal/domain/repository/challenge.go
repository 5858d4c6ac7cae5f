package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// ChallengeRepository persiste challenges de verificación.
//
// Toda mutación es atómica por challenge: dos Update concurrentes sobre el
// mismo ID se serializan y el segundo ve el resultado del primero.
type ChallengeRepository interface {
	// Insert persiste un challenge nuevo en estado pending.
	// Si existe un challenge pending para el mismo PaymentAttemptID que sigue
	// vigente a c.CreatedAt retorna ErrConflict. Un pending ya vencido se marca
	// expired y no bloquea la inserción.
	Insert(ctx context.Context, c *types.Challenge) error

	// Get retorna ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*types.Challenge, error)

	// LatestForAttempt retorna el challenge más reciente del intento de pago.
	// Retorna ErrNotFound si el intento nunca tuvo challenge.
	LatestForAttempt(ctx context.Context, paymentAttemptID string) (*types.Challenge, error)

	// Update aplica fn sobre el estado actual y persiste el resultado.
	// Si fn retorna error no se persiste nada y el error se propaga.
	Update(ctx context.Context, id string, fn func(c *types.Challenge) error) (*types.Challenge, error)

	// Sweep marca expired los pending vencidos a now y elimina los challenges
	// terminales con UpdatedAt anterior a now-retention.
	Sweep(ctx context.Context, now time.Time, retention time.Duration) (expired, purged int, err error)
}
