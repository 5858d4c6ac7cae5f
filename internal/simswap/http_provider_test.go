package simswap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, h http.HandlerFunc) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewHTTPProvider(HTTPProviderConfig{BaseURL: srv.URL + "/", APIKey: "test-key", Username: "sandbox", SenderID: "SIMGUARD"})
	require.NoError(t, err)
	return p
}

func TestNewHTTPProvider_RequiresConfig(t *testing.T) {
	_, err := NewHTTPProvider(HTTPProviderConfig{APIKey: "k"})
	require.Error(t, err)
	_, err = NewHTTPProvider(HTTPProviderConfig{BaseURL: "http://x"})
	require.Error(t, err)
}

func TestHTTPProvider_LastSwapBatch(t *testing.T) {
	p := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/sim-swap/check", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("apiKey"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Username     string   `json:"username"`
			PhoneNumbers []string `json:"phoneNumbers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sandbox", body.Username)
		assert.Equal(t, []string{"+254712345678", "+254700000001"}, body.PhoneNumbers)

		_, _ = w.Write([]byte(`{"results":[
			{"phoneNumber":"+254712345678","lastSwapDate":"2025-03-08T09:30:00Z","previousNetwork":"Safaricom","newNetwork":"Safaricom","deviceChanged":true},
			{"phoneNumber":"+254700000001"}
		]}`))
	})

	res, err := p.LastSwapBatch(context.Background(), []string{"+254712345678", "+254700000001"})
	require.NoError(t, err)
	require.Len(t, res, 2)

	swapped := res["+254712345678"]
	require.NotNil(t, swapped.LastSwapAt)
	assert.Equal(t, time.Date(2025, 3, 8, 9, 30, 0, 0, time.UTC), *swapped.LastSwapAt)
	assert.True(t, swapped.DeviceChanged)
	assert.Equal(t, "Safaricom", swapped.PriorNetwork)

	assert.Nil(t, res["+254700000001"].LastSwapAt)
}

func TestHTTPProvider_HistoryAcceptsDateOnly(t *testing.T) {
	p := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "+254712345678", r.URL.Query().Get("phoneNumber"))
		_, _ = w.Write([]byte(`{"history":[{"date":"2025-03-08","previousNetwork":"Airtel","newNetwork":"Safaricom"}]}`))
	})

	events, err := p.History(context.Background(), "+254712345678")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), events[0].Date)
	assert.Equal(t, "Airtel", events[0].PreviousNetwork)
}

func TestHTTPProvider_NonSuccessStatus(t *testing.T) {
	p := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	_, err := p.LastSwap(context.Background(), "+254712345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}

func TestHTTPProvider_SendSMS(t *testing.T) {
	p := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messaging", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+254722000000", body["to"])
		assert.Equal(t, "SIMGUARD", body["from"])
		_, _ = w.Write([]byte(`{"messageId":"ATXid_1","status":"Success"}`))
	})

	rc, err := p.SendSMS(context.Background(), "+254722000000", "code 123456")
	require.NoError(t, err)
	assert.Equal(t, "ATXid_1", rc.MessageID)
}

func TestHTTPProvider_RespectsContext(t *testing.T) {
	p := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	o := NewOracle(p, Config{Timeout: 30 * time.Millisecond})
	_, err := o.CheckSwap(context.Background(), "+254712345678")
	require.ErrorIs(t, err, ErrOracleUnavailable)
}
