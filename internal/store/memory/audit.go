package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// AuditLog es un audit log append-only en memoria.
type AuditLog struct {
	mu      sync.RWMutex
	entries []types.AuditEntry
}

var (
	_ repository.AuditRepository = (*AuditLog)(nil)
	_ repository.AuditReader     = (*AuditLog)(nil)
)

func NewAuditLog() *AuditLog { return &AuditLog{} }

func (l *AuditLog) Append(_ context.Context, e types.AuditEntry) error {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return nil
}

func (l *AuditLog) ListByAttempt(_ context.Context, attemptID string) ([]types.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.AuditEntry
	for _, e := range l.entries {
		if e.PaymentAttemptID == attemptID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListByPhone retorna las últimas limit entradas del número, más reciente primero.
func (l *AuditLog) ListByPhone(_ context.Context, phone string, limit int) ([]types.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.AuditEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].PhoneNumber != phone {
			continue
		}
		out = append(out, l.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// All retorna una copia de todas las entradas en orden de escritura.
func (l *AuditLog) All() []types.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]types.AuditEntry(nil), l.entries...)
}
