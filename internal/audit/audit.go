// Package audit registra cada decisión del gate de pagos.
//
// El sink primario es obligatorio: si falla, la decisión no se entrega.
// Los mirrors (por ejemplo el log estructurado) son best-effort.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// Log escribe entradas write-once.
type Log struct {
	primary repository.AuditRepository
	mirrors []repository.AuditRepository
	now     func() time.Time
}

// New crea el log. primary no puede ser nil.
func New(primary repository.AuditRepository, mirrors ...repository.AuditRepository) *Log {
	return &Log{primary: primary, mirrors: mirrors, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// Record completa ID y Timestamp si faltan y persiste la entrada.
func (l *Log) Record(ctx context.Context, e types.AuditEntry) (types.AuditEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if err := l.primary.Append(ctx, e); err != nil {
		logger.From(ctx).Error("audit append failed",
			logger.PaymentAttempt(e.PaymentAttemptID), logger.Decision(string(e.Decision)), logger.Err(err))
		return e, fmt.Errorf("audit: append: %w", err)
	}
	for _, m := range l.mirrors {
		if err := m.Append(ctx, e); err != nil {
			logger.From(ctx).Warn("audit mirror append failed", logger.Err(err))
		}
	}
	return e, nil
}

// ZapSink vuelca cada entrada como un evento de log estructurado (mirror para SIEM).
type ZapSink struct{ l *zap.Logger }

func NewZapSink(l *zap.Logger) *ZapSink {
	if l == nil {
		l = logger.Named("audit")
	}
	return &ZapSink{l: l}
}

func (s *ZapSink) Append(_ context.Context, e types.AuditEntry) error {
	s.l.Info("payment_decision",
		logger.String("audit_id", e.ID),
		logger.Time("ts", e.Timestamp),
		logger.PaymentAttempt(e.PaymentAttemptID),
		logger.Phone(e.PhoneNumber),
		logger.Tier(string(e.RiskTier)),
		logger.Decision(string(e.Decision)),
		logger.ChallengeID(e.ChallengeID),
		logger.String("reason", e.Reason),
		logger.Bool("degraded", e.Degraded),
		logger.Any("amount", e.Amount),
	)
	return nil
}
