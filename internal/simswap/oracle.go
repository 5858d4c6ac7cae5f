package simswap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/metrics"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/observability/tracing"
)

const (
	DefaultTimeout   = 4 * time.Second
	DefaultBatchSize = 100
	// MaxBatchTotal es el máximo de números por llamada a CheckSwapBatch.
	MaxBatchTotal = 1000
)

// Config del oracle.
type Config struct {
	// Timeout por llamada al proveedor (default 4s).
	Timeout time.Duration
	// BatchSize máximo por chunk; si el proveedor declara uno menor se usa ese.
	BatchSize int
}

// Oracle consulta el estado de SIM swap. No cachea: cada llamada va al proveedor.
type Oracle struct {
	provider  Provider
	timeout   time.Duration
	batchSize int
}

// NewOracle crea un Oracle sobre el proveedor dado.
func NewOracle(p Provider, cfg Config) *Oracle {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	size := cfg.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	if m := p.MaxBatchSize(); m > 0 && m < size {
		size = m
	}
	return &Oracle{provider: p, timeout: cfg.Timeout, batchSize: size}
}

// ProviderName expone el nombre del proveedor configurado.
func (o *Oracle) ProviderName() string { return o.provider.Name() }

// CheckSwap consulta el último swap de un número.
func (o *Oracle) CheckSwap(ctx context.Context, phone string) (types.SwapRecord, error) {
	p, err := types.ValidatePhone(phone)
	if err != nil {
		metrics.OracleRequests.WithLabelValues(o.provider.Name(), "check", "invalid").Inc()
		return types.SwapRecord{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "simswap.CheckSwap", tracing.Provider(o.provider.Name()))
	var rec types.SwapRecord
	err = o.call(ctx, "check", func(ctx context.Context) error {
		var cerr error
		rec, cerr = o.provider.LastSwap(ctx, p)
		return cerr
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return types.SwapRecord{}, err
	}
	rec.PhoneNumber = p
	return rec, nil
}

// CheckSwapBatch valida todos los números antes de consultar y después
// consulta en chunks secuenciales de a lo sumo batchSize.
func (o *Oracle) CheckSwapBatch(ctx context.Context, phones []string) (map[string]types.SwapRecord, error) {
	if len(phones) > MaxBatchTotal {
		return nil, ErrBatchTooLarge
	}
	uniq := make([]string, 0, len(phones))
	seen := make(map[string]struct{}, len(phones))
	for _, raw := range phones {
		p, err := types.ValidatePhone(raw)
		if err != nil {
			metrics.OracleRequests.WithLabelValues(o.provider.Name(), "batch", "invalid").Inc()
			return nil, fmt.Errorf("%w: %q", err, raw)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}

	ctx, span := tracing.StartSpan(ctx, "simswap.CheckSwapBatch",
		tracing.Provider(o.provider.Name()), tracing.BatchSize(len(uniq)))
	out := make(map[string]types.SwapRecord, len(uniq))
	var err error
	for start := 0; start < len(uniq) && err == nil; start += o.batchSize {
		end := min(start+o.batchSize, len(uniq))
		chunk := uniq[start:end]
		err = o.call(ctx, "batch", func(ctx context.Context) error {
			res, cerr := o.provider.LastSwapBatch(ctx, chunk)
			if cerr != nil {
				return cerr
			}
			for _, p := range chunk {
				r, ok := res[p]
				if !ok {
					return fmt.Errorf("provider omitted %s from batch response", logger.MaskPhone(p))
				}
				r.PhoneNumber = p
				out[p] = r
			}
			return nil
		})
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History retorna el historial de swaps de un número.
func (o *Oracle) History(ctx context.Context, phone string) ([]types.SwapEvent, error) {
	p, err := types.ValidatePhone(phone)
	if err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "simswap.History", tracing.Provider(o.provider.Name()))
	var events []types.SwapEvent
	err = o.call(ctx, "history", func(ctx context.Context) error {
		var cerr error
		events, cerr = o.provider.History(ctx, p)
		return cerr
	})
	tracing.EndSpan(span, err)
	return events, err
}

// call acota fn con el timeout configurado y normaliza errores.
func (o *Oracle) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	result := "ok"
	if err != nil {
		result = "unavailable"
		logger.From(ctx).Warn("sim swap provider call failed",
			logger.Provider(o.provider.Name()), logger.Op(op), logger.Err(err))
		err = unavailable(err)
	}
	metrics.ObserveOracle(o.provider.Name(), op, result, time.Since(start))
	return err
}

func unavailable(err error) error {
	if errors.Is(err, ErrOracleUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
}
