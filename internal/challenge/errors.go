package challenge

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

var (
	ErrChallengeNotFound        = errors.New("challenge not found")
	ErrChallengeExpired         = errors.New("challenge expired")
	ErrChallengeAlreadyTerminal = errors.New("challenge already terminal")
	ErrChallengeAlreadyActive   = errors.New("challenge already active for payment attempt")
	ErrUnsupportedMethodForTier = errors.New("verification method not allowed for risk tier")
	// ErrMethodUnavailable: el método es válido pero no hay backend configurado para él.
	ErrMethodUnavailable = errors.New("verification method unavailable")
)

// ActiveError lleva el challenge pending que bloqueó la creación.
type ActiveError struct {
	Existing *types.Challenge
}

func (e *ActiveError) Error() string {
	return fmt.Sprintf("%s: %s", ErrChallengeAlreadyActive, e.Existing.ID)
}

func (e *ActiveError) Unwrap() error { return ErrChallengeAlreadyActive }
