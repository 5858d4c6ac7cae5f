package repository

import (
	"context"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// AuditRepository es append-only: no hay Update ni Delete.
type AuditRepository interface {
	Append(ctx context.Context, e types.AuditEntry) error
}

// AuditReader expone consultas para revisión de compliance.
type AuditReader interface {
	ListByAttempt(ctx context.Context, paymentAttemptID string) ([]types.AuditEntry, error)
	ListByPhone(ctx context.Context, phone string, limit int) ([]types.AuditEntry, error)
}
