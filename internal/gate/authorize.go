package gate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/simguard/internal/challenge"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/metrics"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/observability/tracing"
	"github.com/dropDatabas3/simguard/internal/risk"
	"github.com/dropDatabas3/simguard/internal/simswap"
)

// Authorize decide si el pago puede salir.
//
// Un error de retorno significa que no hubo decisión (entrada inválida,
// store o audit caídos); Blocked y VerificationRequired son decisiones.
func (g *Gate) Authorize(ctx context.Context, req Request) (d Decision, err error) {
	ctx, span := tracing.StartSpan(ctx, "gate.Authorize", tracing.PaymentAttempt(req.PaymentAttemptID))
	defer func() {
		span.SetAttributes(tracing.Decision(string(d.Kind)), tracing.RiskTier(string(d.Tier)))
		tracing.EndSpan(span, err)
	}()

	ctx = logger.Enrich(ctx, logger.PaymentAttempt(req.PaymentAttemptID), logger.Phone(req.PhoneNumber))

	phone, err := validate(&req)
	if err != nil {
		return Decision{}, g.reject(ctx, req, "", err)
	}
	req.PhoneNumber = phone

	if req.Options.BypassSimSwapCheck {
		d = Decision{Kind: Authorized, PaymentAttemptID: req.PaymentAttemptID, Reason: ReasonOperatorBypass}
		logger.From(ctx).Warn("sim swap check bypassed by operator", logger.String("operator", req.Options.Operator))
		return g.finish(ctx, req, d, types.AuditAuthorizedBypass)
	}

	// un challenge previo del intento manda sobre una nueva evaluación
	if prev, err := g.challenges.LatestForAttempt(ctx, req.PaymentAttemptID); err == nil {
		if prev.PhoneNumber != req.PhoneNumber {
			return Decision{}, g.reject(ctx, req, prev.ID, ErrAttemptMismatch)
		}
		if d, ok := g.fromExisting(req, prev); ok {
			return g.finish(ctx, req, d, "")
		}
	} else if !errors.Is(err, challenge.ErrChallengeNotFound) {
		return Decision{}, g.reject(ctx, req, "", err)
	}

	assessment, err := g.assess(ctx, req.PaymentAttemptID, req.PhoneNumber)
	if err != nil {
		// el caller se fue: no hay a quién entregar la decisión ni outage que degradar
		if cerr := ctx.Err(); cerr != nil {
			return Decision{}, fmt.Errorf("gate: authorize %s: %w", req.PaymentAttemptID, cerr)
		}
		if !errors.Is(err, simswap.ErrOracleUnavailable) {
			return Decision{}, g.reject(ctx, req, "", err)
		}
		d = g.unavailable(ctx, req)
		return g.finish(ctx, req, d, "")
	}

	d = Decision{
		PaymentAttemptID: req.PaymentAttemptID,
		Tier:             assessment.Tier,
		Assessment:       &assessment,
	}
	if !assessment.Tier.RequiresChallenge() {
		d.Kind = Authorized
		d.Reason = ReasonLowRisk
		return g.finish(ctx, req, d, "")
	}

	d, err = g.issue(ctx, req, d)
	if err != nil {
		return Decision{}, g.reject(ctx, req, "", err)
	}
	return g.finish(ctx, req, d, "")
}

func validate(req *Request) (string, error) {
	req.PaymentAttemptID = strings.TrimSpace(req.PaymentAttemptID)
	if req.PaymentAttemptID == "" {
		return "", ErrMissingPaymentAttempt
	}
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return "", fmt.Errorf("%w: %v", ErrInvalidAmount, req.Amount)
	}
	return types.ValidatePhone(req.PhoneNumber)
}

// fromExisting resuelve la decisión a partir del último challenge del intento.
// Un challenge expirado no decide: se evalúa de nuevo.
func (g *Gate) fromExisting(req Request, c *types.Challenge) (Decision, bool) {
	d := Decision{PaymentAttemptID: req.PaymentAttemptID}
	fromChallenge(&d, c)
	switch c.Status {
	case types.ChallengePending:
		d.Kind = VerificationRequired
		d.Reason = ReasonChallengePending
		d.AllowedMethods = challenge.AllowedMethods(c.RiskTier)
	case types.ChallengeVerified:
		d.Kind = Authorized
		d.Reason = ReasonChallengeVerified
	case types.ChallengeFailed:
		d.Kind = Blocked
		d.Reason = ReasonChallengeFailed
	default:
		return Decision{}, false
	}
	return d, true
}

// assess consulta el oracle y clasifica. Llamadas concurrentes del mismo
// intento comparten la consulta.
//
// La consulta compartida no hereda la cancelación de quien la inició: solo la
// acota el timeout del oracle. Cada caller deja de esperar con su propio ctx.
func (g *Gate) assess(ctx context.Context, attemptID, phone string) (types.RiskAssessment, error) {
	shared := context.WithoutCancel(ctx)
	ch := g.sf.DoChan(attemptID+"|"+phone, func() (any, error) {
		rec, err := g.oracle.CheckSwap(shared, phone)
		if err != nil {
			return nil, err
		}
		return risk.Classify(rec, g.challenges.Now()), nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return types.RiskAssessment{}, ctx.Err()
	}
	if res.Err != nil {
		return types.RiskAssessment{}, res.Err
	}
	if res.Shared {
		logger.From(ctx).Debug("risk assessment shared with concurrent request")
	}
	a := res.Val.(types.RiskAssessment)
	a.Reasons = append([]string(nil), a.Reasons...)
	return a, nil
}

func (g *Gate) unavailable(ctx context.Context, req Request) Decision {
	d := Decision{PaymentAttemptID: req.PaymentAttemptID, Reason: ReasonRiskCheckUnavailable}
	if req.Amount > g.cfg.FailClosedAboveAmount {
		d.Kind = Blocked
		logger.From(ctx).Warn("risk check unavailable: failing closed",
			logger.Any("amount", req.Amount), logger.Any("threshold", g.cfg.FailClosedAboveAmount))
		return d
	}
	d.Kind = Authorized
	d.Degraded = true
	metrics.GateDegraded.Inc()
	logger.From(ctx).Warn("risk check unavailable: failing open", logger.Any("amount", req.Amount))
	return d
}

// issue crea el challenge o reutiliza el que ganó la carrera de creación.
func (g *Gate) issue(ctx context.Context, req Request, d Decision) (Decision, error) {
	method, err := g.pickMethod(d.Tier, req.Options.Method)
	if err != nil {
		return Decision{}, err
	}
	d.Kind = VerificationRequired
	d.AllowedMethods = challenge.AllowedMethods(d.Tier)

	issued, err := g.challenges.Create(ctx, req.PaymentAttemptID, req.PhoneNumber, d.Tier, method)
	var active *challenge.ActiveError
	switch {
	case errors.As(err, &active):
		fromChallenge(&d, active.Existing)
		d.Reason = ReasonChallengePending
		return d, nil
	case err != nil:
		return Decision{}, err
	}

	c := issued.Challenge
	fromChallenge(&d, c)
	d.Reason = ReasonChallengeIssued

	if g.links != nil {
		link, err := g.links.Link(c.ID, req.PaymentAttemptID, c.ExpiresAt)
		if err != nil {
			logger.From(ctx).Warn("verification link signing failed", logger.Err(err))
		}
		d.VerificationURL = link
	}
	// una entrega fallida no invalida el challenge: el miembro puede pedir reenvío
	if g.notifier != nil {
		if err := g.notifier.Notify(ctx, c, issued.Secret, d.VerificationURL); err != nil {
			logger.From(ctx).Warn("challenge delivery failed", logger.ChallengeID(c.ID), logger.Err(err))
		}
	}
	return d, nil
}

func (g *Gate) pickMethod(tier types.RiskTier, requested types.VerificationMethod) (types.VerificationMethod, error) {
	if requested != "" {
		if !challenge.MethodAllowed(tier, requested) {
			return "", fmt.Errorf("%w: %s for %s", challenge.ErrUnsupportedMethodForTier, requested, tier)
		}
		return requested, nil
	}
	if challenge.MethodAllowed(tier, g.cfg.DefaultMethod) {
		return g.cfg.DefaultMethod, nil
	}
	return challenge.AllowedMethods(tier)[0], nil
}
