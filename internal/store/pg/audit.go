package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// AuditLog escribe en payment_audit_entry. Solo INSERT; la tabla rechaza UPDATE/DELETE.
type AuditLog struct{ pool *pgxpool.Pool }

var (
	_ repository.AuditRepository = (*AuditLog)(nil)
	_ repository.AuditReader     = (*AuditLog)(nil)
)

func NewAuditLog(pool *pgxpool.Pool) *AuditLog { return &AuditLog{pool: pool} }

const auditColumns = `id, ts, payment_attempt_id, phone_number, risk_tier, decision,
	challenge_id, reason, degraded, amount, worker_id, operator`

func (l *AuditLog) Append(ctx context.Context, e types.AuditEntry) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO payment_audit_entry (`+auditColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, e.ID, e.Timestamp, e.PaymentAttemptID, e.PhoneNumber, string(e.RiskTier), string(e.Decision),
		e.ChallengeID, e.Reason, e.Degraded, e.Amount, e.WorkerID, e.Operator)
	return err
}

func (l *AuditLog) ListByAttempt(ctx context.Context, attemptID string) ([]types.AuditEntry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+auditColumns+` FROM payment_audit_entry
		WHERE payment_attempt_id = $1 ORDER BY ts ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	return collectAudit(rows)
}

func (l *AuditLog) ListByPhone(ctx context.Context, phone string, limit int) ([]types.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := l.pool.Query(ctx, `
		SELECT `+auditColumns+` FROM payment_audit_entry
		WHERE phone_number = $1 ORDER BY ts DESC LIMIT $2`, phone, limit)
	if err != nil {
		return nil, err
	}
	return collectAudit(rows)
}

func collectAudit(rows pgx.Rows) ([]types.AuditEntry, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.AuditEntry, error) {
		var e types.AuditEntry
		var tier, decision string
		err := row.Scan(&e.ID, &e.Timestamp, &e.PaymentAttemptID, &e.PhoneNumber, &tier, &decision,
			&e.ChallengeID, &e.Reason, &e.Degraded, &e.Amount, &e.WorkerID, &e.Operator)
		e.RiskTier = types.RiskTier(tier)
		e.Decision = types.AuditDecision(decision)
		e.Timestamp = e.Timestamp.UTC()
		return e, err
	})
}
