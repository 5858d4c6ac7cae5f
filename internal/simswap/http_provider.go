package simswap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// HTTPProviderConfig configura el gateway REST del operador.
type HTTPProviderConfig struct {
	BaseURL  string
	APIKey   string
	Username string
	// SenderID es el remitente de los SMS (short code o alfanumérico).
	SenderID  string
	BatchSize int
	Client    *http.Client
}

// HTTPProvider habla con un gateway telecom estilo Africa's Talking:
// JSON sobre HTTPS con la API key en el header "apiKey".
type HTTPProvider struct {
	cfg    HTTPProviderConfig
	client *http.Client
}

// NewHTTPProvider crea el cliente. El timeout real lo impone el Oracle vía ctx.
func NewHTTPProvider(cfg HTTPProviderConfig) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("simswap: http provider base url required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("simswap: http provider api key required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := cfg.Client
	if c == nil {
		c = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProvider{cfg: cfg, client: c}, nil
}

func (p *HTTPProvider) Name() string { return "http" }

func (p *HTTPProvider) MaxBatchSize() int {
	if p.cfg.BatchSize > 0 {
		return p.cfg.BatchSize
	}
	return DefaultBatchSize
}

type wireSwap struct {
	PhoneNumber     string `json:"phoneNumber"`
	LastSwapDate    string `json:"lastSwapDate"`
	PreviousNetwork string `json:"previousNetwork"`
	NewNetwork      string `json:"newNetwork"`
	DeviceChanged   bool   `json:"deviceChanged"`
	LocationChanged bool   `json:"locationChanged"`
}

type checkResponse struct {
	Results []wireSwap `json:"results"`
}

type historyResponse struct {
	History []struct {
		Date            string `json:"date"`
		PreviousNetwork string `json:"previousNetwork"`
		NewNetwork      string `json:"newNetwork"`
	} `json:"history"`
}

func (p *HTTPProvider) LastSwap(ctx context.Context, phone string) (types.SwapRecord, error) {
	res, err := p.LastSwapBatch(ctx, []string{phone})
	if err != nil {
		return types.SwapRecord{}, err
	}
	rec, ok := res[phone]
	if !ok {
		return types.SwapRecord{}, fmt.Errorf("simswap: gateway returned no result")
	}
	return rec, nil
}

func (p *HTTPProvider) LastSwapBatch(ctx context.Context, phones []string) (map[string]types.SwapRecord, error) {
	body := map[string]any{"username": p.cfg.Username, "phoneNumbers": phones}
	var resp checkResponse
	if err := p.do(ctx, http.MethodPost, "/v1/sim-swap/check", body, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]types.SwapRecord, len(resp.Results))
	for _, w := range resp.Results {
		rec := types.SwapRecord{
			PhoneNumber:     w.PhoneNumber,
			PriorNetwork:    w.PreviousNetwork,
			NewNetwork:      w.NewNetwork,
			DeviceChanged:   w.DeviceChanged,
			LocationChanged: w.LocationChanged,
		}
		if w.LastSwapDate != "" {
			t, err := parseGatewayTime(w.LastSwapDate)
			if err != nil {
				return nil, fmt.Errorf("simswap: bad lastSwapDate %q: %w", w.LastSwapDate, err)
			}
			rec.LastSwapAt = &t
		}
		out[w.PhoneNumber] = rec
	}
	return out, nil
}

func (p *HTTPProvider) History(ctx context.Context, phone string) ([]types.SwapEvent, error) {
	q := url.Values{"phoneNumber": {phone}, "username": {p.cfg.Username}}
	var resp historyResponse
	if err := p.do(ctx, http.MethodGet, "/v1/sim-swap/history?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]types.SwapEvent, 0, len(resp.History))
	for _, h := range resp.History {
		t, err := parseGatewayTime(h.Date)
		if err != nil {
			return nil, fmt.Errorf("simswap: bad history date %q: %w", h.Date, err)
		}
		out = append(out, types.SwapEvent{Date: t, PreviousNetwork: h.PreviousNetwork, NewNetwork: h.NewNetwork})
	}
	return out, nil
}

// SendSMS envía un mensaje por el gateway (usado para alternate_phone).
func (p *HTTPProvider) SendSMS(ctx context.Context, to, msg string) (MessageReceipt, error) {
	body := map[string]any{"username": p.cfg.Username, "to": to, "message": msg, "from": p.cfg.SenderID}
	var resp struct {
		MessageID string `json:"messageId"`
		Status    string `json:"status"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/messaging", body, &resp); err != nil {
		return MessageReceipt{}, err
	}
	return MessageReceipt{MessageID: resp.MessageID, Status: resp.Status}, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, in, out any) error {
	var rdr io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", p.cfg.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("simswap: gateway status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out)
}

// parseGatewayTime acepta RFC3339 o fecha sola (YYYY-MM-DD, UTC).
func parseGatewayTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
