package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/metrics"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// finish registra la decisión y la entrega solo si el audit la aceptó.
func (g *Gate) finish(ctx context.Context, req Request, d Decision, override types.AuditDecision) (Decision, error) {
	decision := override
	if decision == "" {
		decision = d.Kind.auditDecision()
	}
	_, err := g.audit.Record(ctx, types.AuditEntry{
		PaymentAttemptID: req.PaymentAttemptID,
		PhoneNumber:      req.PhoneNumber,
		RiskTier:         d.Tier,
		Decision:         decision,
		ChallengeID:      d.ChallengeID,
		Reason:           d.Reason,
		Degraded:         d.Degraded,
		Amount:           req.Amount,
		WorkerID:         req.WorkerID,
		Operator:         req.Options.Operator,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrAuditUnavailable, err)
	}

	metrics.GateDecisions.WithLabelValues(string(decision), tierLabel(d.Tier)).Inc()
	logger.From(ctx).Info("payment decision",
		logger.Decision(string(decision)),
		logger.Tier(string(d.Tier)),
		logger.ChallengeID(d.ChallengeID),
		logger.String("reason", d.Reason),
		logger.Bool("degraded", d.Degraded),
	)
	return d, nil
}

// reject registra un error (sin decisión) y lo devuelve. Si el audit
// también falla, gana ErrAuditUnavailable.
func (g *Gate) reject(ctx context.Context, req Request, challengeID string, cause error) error {
	_, err := g.audit.Record(ctx, types.AuditEntry{
		PaymentAttemptID: req.PaymentAttemptID,
		PhoneNumber:      req.PhoneNumber,
		Decision:         types.AuditRejected,
		ChallengeID:      challengeID,
		Reason:           cause.Error(),
		Amount:           req.Amount,
		WorkerID:         req.WorkerID,
		Operator:         req.Options.Operator,
	})
	if err != nil {
		return errors.Join(fmt.Errorf("%w: %w", ErrAuditUnavailable, err), cause)
	}
	metrics.GateDecisions.WithLabelValues(string(types.AuditRejected), "none").Inc()
	logger.From(ctx).Info("payment rejected", logger.Err(cause))
	return cause
}

func tierLabel(t types.RiskTier) string {
	if t == "" {
		return "none"
	}
	return string(t)
}
