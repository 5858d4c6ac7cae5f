package security

import (
	"context"
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
	dto "github.com/dropDatabas3/simguard/internal/http/v2/dto/security"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/risk"
)

// Oracle es lo que el service necesita del simswap.Oracle.
type Oracle interface {
	CheckSwap(ctx context.Context, phone string) (types.SwapRecord, error)
	CheckSwapBatch(ctx context.Context, phones []string) (map[string]types.SwapRecord, error)
	History(ctx context.Context, phone string) ([]types.SwapEvent, error)
}

// SimSwapService expone las consultas de solo lectura (no autorizan pagos).
type SimSwapService interface {
	Check(ctx context.Context, phone string) (dto.CheckResponse, error)
	Batch(ctx context.Context, phones []string) (dto.BatchResponse, error)
	History(ctx context.Context, phone string) (dto.HistoryResponse, error)
}

type simSwapService struct {
	oracle Oracle
	now    func() time.Time
}

// NewSimSwapService crea el service. now nil usa time.Now.
func NewSimSwapService(oracle Oracle, now func() time.Time) SimSwapService {
	if now == nil {
		now = time.Now
	}
	return &simSwapService{oracle: oracle, now: now}
}

const componentSimSwap = "simswap"

func (s *simSwapService) Check(ctx context.Context, phone string) (dto.CheckResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentSimSwap), logger.Op("Check"))

	rec, err := s.oracle.CheckSwap(ctx, phone)
	if err != nil {
		return dto.CheckResponse{}, err
	}
	out := toCheck(rec, risk.Classify(rec, s.now()))
	log.Debug("sim swap checked", logger.Phone(rec.PhoneNumber), logger.Tier(out.RiskLevel))
	return out, nil
}

func (s *simSwapService) Batch(ctx context.Context, phones []string) (dto.BatchResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentSimSwap), logger.Op("Batch"))

	recs, err := s.oracle.CheckSwapBatch(ctx, phones)
	if err != nil {
		return dto.BatchResponse{}, err
	}

	now := s.now()
	out := dto.BatchResponse{Results: make([]dto.CheckResponse, 0, len(recs))}
	seen := make(map[string]struct{}, len(recs))
	// orden de entrada; el oracle ya validó y deduplicó
	for _, raw := range phones {
		p, err := types.ValidatePhone(raw)
		if err != nil {
			return dto.BatchResponse{}, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		rec, ok := recs[p]
		if !ok {
			continue
		}
		a := risk.Classify(rec, now)
		out.Results = append(out.Results, toCheck(rec, a))
		switch a.Tier {
		case types.RiskHigh:
			out.Summary.HighRisk++
		case types.RiskMedium:
			out.Summary.MediumRisk++
		default:
			out.Summary.LowRisk++
		}
	}
	out.Summary.Total = len(out.Results)

	log.Info("batch sim swap check completed",
		logger.Count(out.Summary.Total),
		logger.Int("high_risk", out.Summary.HighRisk),
		logger.Int("medium_risk", out.Summary.MediumRisk))
	return out, nil
}

func (s *simSwapService) History(ctx context.Context, phone string) (dto.HistoryResponse, error) {
	events, err := s.oracle.History(ctx, phone)
	if err != nil {
		return dto.HistoryResponse{}, err
	}
	p, _ := types.ValidatePhone(phone)
	out := dto.HistoryResponse{PhoneNumber: p, History: make([]dto.HistoryEvent, 0, len(events))}
	for _, ev := range events {
		out.History = append(out.History, dto.HistoryEvent{
			Date:            ev.Date.UTC(),
			PreviousNetwork: ev.PreviousNetwork,
			NewNetwork:      ev.NewNetwork,
		})
	}
	out.TotalSwaps = len(out.History)
	return out, nil
}

func toCheck(rec types.SwapRecord, a types.RiskAssessment) dto.CheckResponse {
	out := dto.CheckResponse{
		PhoneNumber:   rec.PhoneNumber,
		RecentSwap:    a.RecentSwap,
		RiskLevel:     string(a.Tier),
		DaysSinceSwap: a.DaysSinceSwap,
		Reasons:       a.Reasons,
	}
	if rec.LastSwapAt != nil {
		t := rec.LastSwapAt.UTC()
		out.LastSwapDate = &t
	}
	return out
}
