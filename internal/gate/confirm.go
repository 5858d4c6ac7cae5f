package gate

import (
	"context"
	"errors"

	"github.com/dropDatabas3/simguard/internal/challenge"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/observability/tracing"
)

// ConfirmVerification aplica el proof del miembro al challenge.
//
// Un challenge expirado o fallido devuelve Blocked junto con el error del
// challenge (ErrChallengeExpired / ErrChallengeAlreadyTerminal), para que
// el caller pueda distinguir la causa. Un proof incorrecto con intentos
// restantes no es error: VerificationRequired con proof_mismatch.
func (g *Gate) ConfirmVerification(ctx context.Context, challengeID string, proof challenge.Proof) (d Decision, err error) {
	ctx, span := tracing.StartSpan(ctx, "gate.ConfirmVerification", tracing.ChallengeID(challengeID))
	defer func() {
		span.SetAttributes(tracing.Decision(string(d.Kind)))
		tracing.EndSpan(span, err)
	}()
	ctx = logger.Enrich(ctx, logger.ChallengeID(challengeID))

	cur, err := g.challenges.Get(ctx, challengeID)
	if err != nil {
		return Decision{}, g.reject(ctx, Request{}, challengeID, err)
	}
	req := Request{PaymentAttemptID: cur.PaymentAttemptID, PhoneNumber: cur.PhoneNumber}
	ctx = logger.Enrich(ctx, logger.PaymentAttempt(cur.PaymentAttemptID))

	// re-verificar un challenge ya verificado no genera otra entrada de audit
	if cur.Status == types.ChallengeVerified {
		d = Decision{Kind: Authorized, PaymentAttemptID: cur.PaymentAttemptID, Reason: ReasonChallengeVerified}
		fromChallenge(&d, cur)
		logger.From(ctx).Info("challenge already verified")
		return d, nil
	}

	res, verr := g.challenges.Validate(ctx, challengeID, proof)
	d = Decision{PaymentAttemptID: cur.PaymentAttemptID}
	if res.Challenge != nil {
		fromChallenge(&d, res.Challenge)
	} else {
		fromChallenge(&d, cur)
	}

	switch {
	case errors.Is(verr, challenge.ErrChallengeExpired):
		d.Kind, d.Reason = Blocked, ReasonChallengeExpired
	case errors.Is(verr, challenge.ErrChallengeAlreadyTerminal):
		d.Kind, d.Reason = Blocked, ReasonChallengeFailed
	case verr != nil:
		return Decision{}, g.reject(ctx, req, challengeID, verr)
	case res.Verified:
		d.Kind, d.Reason = Authorized, ReasonChallengeVerified
	case res.Status == types.ChallengeFailed:
		d.Kind, d.Reason = Blocked, ReasonChallengeFailed
	default:
		d.Kind, d.Reason = VerificationRequired, ReasonProofMismatch
		d.AllowedMethods = challenge.AllowedMethods(d.Tier)
	}

	d, err = g.finish(ctx, req, d, "")
	if err != nil {
		return Decision{}, err
	}
	return d, verr
}

// Challenge expone el estado de un challenge (sin secreto) para consultas.
func (g *Gate) Challenge(ctx context.Context, id string) (*types.Challenge, error) {
	return g.challenges.Get(ctx, id)
}
