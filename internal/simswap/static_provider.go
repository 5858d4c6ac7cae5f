package simswap

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// StaticEntry es un fixture de configuración (entornos dev/staging).
// Si DaysAgo > 0 se usa en lugar de LastSwapDate, relativo al arranque.
type StaticEntry struct {
	PhoneNumber     string   `yaml:"phone_number"`
	LastSwapDate    string   `yaml:"last_swap_date"`
	DaysAgo         int      `yaml:"days_ago"`
	PriorNetwork    string   `yaml:"prior_network"`
	NewNetwork      string   `yaml:"new_network"`
	DeviceChanged   bool     `yaml:"device_changed"`
	LocationChanged bool     `yaml:"location_changed"`
	History         []string `yaml:"history"` // fechas YYYY-MM-DD adicionales
}

// StaticProvider responde desde memoria. Los números sin fixture no tienen swap.
type StaticProvider struct {
	mu      sync.RWMutex
	records map[string]types.SwapRecord
	history map[string][]types.SwapEvent
	failure error
	delay   time.Duration
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		records: map[string]types.SwapRecord{},
		history: map[string][]types.SwapEvent{},
	}
}

// NewStaticProviderFromEntries carga fixtures; now ancla los DaysAgo.
func NewStaticProviderFromEntries(entries []StaticEntry, now time.Time) (*StaticProvider, error) {
	p := NewStaticProvider()
	for _, e := range entries {
		phone, err := types.ValidatePhone(e.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("simswap: static fixture %q: %w", e.PhoneNumber, err)
		}
		rec := types.SwapRecord{
			PhoneNumber:     phone,
			PriorNetwork:    e.PriorNetwork,
			NewNetwork:      e.NewNetwork,
			DeviceChanged:   e.DeviceChanged,
			LocationChanged: e.LocationChanged,
		}
		switch {
		case e.DaysAgo > 0:
			t := now.Add(-time.Duration(e.DaysAgo) * 24 * time.Hour).UTC()
			rec.LastSwapAt = &t
		case e.LastSwapDate != "":
			t, err := parseGatewayTime(e.LastSwapDate)
			if err != nil {
				return nil, fmt.Errorf("simswap: static fixture %s: %w", e.PhoneNumber, err)
			}
			rec.LastSwapAt = &t
		}
		p.Set(rec)
		for _, d := range e.History {
			t, err := parseGatewayTime(d)
			if err != nil {
				return nil, fmt.Errorf("simswap: static fixture %s history: %w", e.PhoneNumber, err)
			}
			p.AddHistory(phone, types.SwapEvent{Date: t})
		}
	}
	return p, nil
}

// Set registra (o reemplaza) el último swap de un número.
func (p *StaticProvider) Set(rec types.SwapRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[rec.PhoneNumber] = rec
	if rec.LastSwapAt != nil {
		p.history[rec.PhoneNumber] = append(p.history[rec.PhoneNumber], types.SwapEvent{
			Date:            *rec.LastSwapAt,
			PreviousNetwork: rec.PriorNetwork,
			NewNetwork:      rec.NewNetwork,
		})
	}
}

func (p *StaticProvider) AddHistory(phone string, ev types.SwapEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history[phone] = append(p.history[phone], ev)
}

// Fail hace que todas las llamadas fallen con err (nil restablece).
func (p *StaticProvider) Fail(err error) {
	p.mu.Lock()
	p.failure = err
	p.mu.Unlock()
}

// Delay simula latencia del operador.
func (p *StaticProvider) Delay(d time.Duration) {
	p.mu.Lock()
	p.delay = d
	p.mu.Unlock()
}

func (p *StaticProvider) Name() string      { return "static" }
func (p *StaticProvider) MaxBatchSize() int { return DefaultBatchSize }

func (p *StaticProvider) wait(ctx context.Context) error {
	p.mu.RLock()
	d, fail := p.delay, p.failure
	p.mu.RUnlock()
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fail
}

func (p *StaticProvider) LastSwap(ctx context.Context, phone string) (types.SwapRecord, error) {
	if err := p.wait(ctx); err != nil {
		return types.SwapRecord{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if rec, ok := p.records[phone]; ok {
		return rec, nil
	}
	return types.SwapRecord{PhoneNumber: phone}, nil
}

func (p *StaticProvider) LastSwapBatch(ctx context.Context, phones []string) (map[string]types.SwapRecord, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]types.SwapRecord, len(phones))
	for _, ph := range phones {
		if rec, ok := p.records[ph]; ok {
			out[ph] = rec
		} else {
			out[ph] = types.SwapRecord{PhoneNumber: ph}
		}
	}
	return out, nil
}

func (p *StaticProvider) History(ctx context.Context, phone string) ([]types.SwapEvent, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	events := append([]types.SwapEvent(nil), p.history[phone]...)
	p.mu.RUnlock()
	sort.Slice(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
	return events, nil
}

// SendSMS solo loguea: en dev no hay gateway real.
func (p *StaticProvider) SendSMS(ctx context.Context, to, body string) (MessageReceipt, error) {
	if err := p.wait(ctx); err != nil {
		return MessageReceipt{}, err
	}
	logger.From(ctx).Info("static sms", logger.Phone(to), logger.Int("length", len(body)))
	return MessageReceipt{MessageID: "static-" + fmt.Sprint(time.Now().UnixNano()), Status: "Sent"}, nil
}
