package simswap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	lookupsv2 "github.com/twilio/twilio-go/rest/lookups/v2"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// TwilioConfig credenciales y remitente.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromPhone  string
}

type lookupAPI interface {
	FetchPhoneNumber(phoneNumber string, params *lookupsv2.FetchPhoneNumberParams) (*lookupsv2.LookupsV2PhoneNumber, error)
}

type messageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioProvider usa Lookups v2 (paquete sim_swap) y la API de mensajes.
// Twilio solo informa el último swap, así que History retorna a lo sumo un evento.
type TwilioProvider struct {
	lookups  lookupAPI
	messages messageAPI
	from     string
}

// NewTwilioProvider crea el provider con un RestClient real.
func NewTwilioProvider(cfg TwilioConfig) (*TwilioProvider, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("simswap: twilio account sid and auth token required")
	}
	tw := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioProvider{lookups: tw.LookupsV2, messages: tw.Api, from: cfg.FromPhone}, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

// Lookups no tiene endpoint batch: se consulta número por número.
func (p *TwilioProvider) MaxBatchSize() int { return 25 }

type twilioSimSwap struct {
	LastSimSwap *struct {
		LastSimSwappedDate *time.Time `json:"last_sim_swapped_date"`
		SwappedPeriod      string     `json:"swapped_period"`
		SwappedInPeriod    *bool      `json:"swapped_in_period"`
	} `json:"last_sim_swap"`
	CarrierName string `json:"carrier_name"`
	ErrorCode   *int   `json:"error_code"`
}

func (p *TwilioProvider) LastSwap(ctx context.Context, phone string) (types.SwapRecord, error) {
	params := &lookupsv2.FetchPhoneNumberParams{}
	params.SetFields("sim_swap")

	var resp *lookupsv2.LookupsV2PhoneNumber
	err := runBlocking(ctx, func() error {
		var ferr error
		resp, ferr = p.lookups.FetchPhoneNumber(phone, params)
		return ferr
	})
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			// número desconocido para el operador: sin swap registrado
			return types.SwapRecord{PhoneNumber: phone}, nil
		}
		return types.SwapRecord{}, fmt.Errorf("twilio lookup: %w", err)
	}
	if resp == nil || resp.SimSwap == nil {
		return types.SwapRecord{}, fmt.Errorf("twilio lookup: sim_swap package missing in response")
	}

	raw, err := json.Marshal(resp.SimSwap)
	if err != nil {
		return types.SwapRecord{}, err
	}
	var ss twilioSimSwap
	if err := json.Unmarshal(raw, &ss); err != nil {
		return types.SwapRecord{}, fmt.Errorf("twilio lookup: decode sim_swap: %w", err)
	}
	if ss.ErrorCode != nil {
		return types.SwapRecord{}, fmt.Errorf("twilio lookup: sim_swap error code %d", *ss.ErrorCode)
	}

	rec := types.SwapRecord{PhoneNumber: phone, NewNetwork: ss.CarrierName}
	if ss.LastSimSwap != nil && ss.LastSimSwap.LastSimSwappedDate != nil {
		t := ss.LastSimSwap.LastSimSwappedDate.UTC()
		rec.LastSwapAt = &t
	}
	return rec, nil
}

func (p *TwilioProvider) LastSwapBatch(ctx context.Context, phones []string) (map[string]types.SwapRecord, error) {
	out := make(map[string]types.SwapRecord, len(phones))
	for _, ph := range phones {
		rec, err := p.LastSwap(ctx, ph)
		if err != nil {
			return nil, err
		}
		out[ph] = rec
	}
	return out, nil
}

func (p *TwilioProvider) History(ctx context.Context, phone string) ([]types.SwapEvent, error) {
	rec, err := p.LastSwap(ctx, phone)
	if err != nil {
		return nil, err
	}
	if rec.LastSwapAt == nil {
		return []types.SwapEvent{}, nil
	}
	return []types.SwapEvent{{Date: *rec.LastSwapAt, NewNetwork: rec.NewNetwork}}, nil
}

func (p *TwilioProvider) SendSMS(ctx context.Context, to, body string) (MessageReceipt, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetBody(body)

	var msg *twilioApi.ApiV2010Message
	err := runBlocking(ctx, func() error {
		var cerr error
		msg, cerr = p.messages.CreateMessage(params)
		return cerr
	})
	if err != nil {
		return MessageReceipt{}, fmt.Errorf("twilio send sms: %w", err)
	}
	var r MessageReceipt
	if msg != nil {
		if msg.Sid != nil {
			r.MessageID = *msg.Sid
		}
		if msg.Status != nil {
			r.Status = *msg.Status
		}
	}
	return r, nil
}

// runBlocking corre fn (que no acepta ctx) y deja de esperar cuando ctx termina.
func runBlocking(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
