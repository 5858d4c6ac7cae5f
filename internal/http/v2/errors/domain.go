package errors

import (
	stderrors "errors"

	"github.com/dropDatabas3/simguard/internal/challenge"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/gate"
	jwtx "github.com/dropDatabas3/simguard/internal/jwt"
	"github.com/dropDatabas3/simguard/internal/members"
	"github.com/dropDatabas3/simguard/internal/simswap"
)

// domainMap en orden de prioridad: audit caído gana sobre cualquier otra
// causa que venga unida en el mismo error.
var domainMap = []struct {
	target error
	app    *AppError
}{
	{gate.ErrAuditUnavailable, ErrAuditUnavailable},
	{types.ErrInvalidPhoneNumber, ErrInvalidPhoneNumber},
	{gate.ErrInvalidAmount, ErrInvalidAmount},
	{gate.ErrMissingPaymentAttempt, ErrMissingPaymentAttempt},
	{gate.ErrAttemptMismatch, ErrAttemptMismatch},
	{simswap.ErrBatchTooLarge, ErrBatchTooLarge},
	{simswap.ErrOracleUnavailable, ErrOracleUnavailable},
	{challenge.ErrChallengeNotFound, ErrChallengeNotFound},
	{challenge.ErrChallengeAlreadyActive, ErrChallengeAlreadyActive},
	{challenge.ErrChallengeAlreadyTerminal, ErrChallengeAlreadyTerminal},
	{challenge.ErrChallengeExpired, ErrChallengeExpired},
	{challenge.ErrUnsupportedMethodForTier, ErrUnsupportedMethodForTier},
	{challenge.ErrMethodUnavailable, ErrMethodUnavailable},
	{members.ErrNoContact, ErrMethodUnavailable},
	{jwtx.ErrInvalidLink, ErrInvalidVerificationLink},
	{jwtx.ErrExpiredLink, ErrInvalidVerificationLink},
	{jwtx.ErrInvalidIssuer, ErrInvalidVerificationLink},
}

func fromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	for _, m := range domainMap {
		if stderrors.Is(err, m.target) {
			return m.app.WithCause(err)
		}
	}
	return nil
}
