// Package audit contiene el service de revisión del audit log.
package audit

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/audit"
)

// DefaultLimit acota las consultas por teléfono.
const DefaultLimit = 100

// ErrMissingFilter: hace falta paymentId o phoneNumber.
var ErrMissingFilter = errors.New("paymentId or phoneNumber required")

type AuditService interface {
	List(ctx context.Context, paymentID, phone string, limit int) (dto.ListResponse, error)
}

type auditService struct {
	reader repository.AuditReader
}

func NewAuditService(reader repository.AuditReader) AuditService {
	return &auditService{reader: reader}
}

func (s *auditService) List(ctx context.Context, paymentID, phone string, limit int) (dto.ListResponse, error) {
	paymentID, phone = strings.TrimSpace(paymentID), strings.TrimSpace(phone)
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	var (
		entries []types.AuditEntry
		err     error
	)
	switch {
	case paymentID != "":
		entries, err = s.reader.ListByAttempt(ctx, paymentID)
	case phone != "":
		p, verr := types.ValidatePhone(phone)
		if verr != nil {
			return dto.ListResponse{}, verr
		}
		entries, err = s.reader.ListByPhone(ctx, p, limit)
	default:
		return dto.ListResponse{}, ErrMissingFilter
	}
	if err != nil {
		return dto.ListResponse{}, err
	}

	out := dto.ListResponse{Entries: make([]dto.Entry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.Entry{
			ID:          e.ID,
			Timestamp:   e.Timestamp,
			PaymentID:   e.PaymentAttemptID,
			PhoneNumber: e.PhoneNumber,
			RiskLevel:   string(e.RiskTier),
			Decision:    string(e.Decision),
			ChallengeID: e.ChallengeID,
			Reason:      e.Reason,
			Degraded:    e.Degraded,
			Amount:      e.Amount,
			WorkerID:    e.WorkerID,
			Operator:    e.Operator,
		})
	}
	out.Total = len(out.Entries)
	return out, nil
}
