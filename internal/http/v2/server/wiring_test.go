package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/simguard/internal/config"
	"github.com/dropDatabas3/simguard/internal/members"
	"github.com/dropDatabas3/simguard/internal/simswap"
)

func devConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Notify.LogOnly = true
	cfg.Telemetry.Metrics = true
	cfg.Verification.SigningKey = strings.Repeat("s", 32)
	cfg.Verification.LinkBaseURL = "https://pay.example.org/verify"
	cfg.Oracle.Static.Entries = []simswap.StaticEntry{
		{PhoneNumber: "+254712345678", DaysAgo: 3, DeviceChanged: true},
	}
	cfg.Members.Seed = []members.SeedMember{
		{MemberID: "m-1", PhoneNumber: "+254712345678", Email: "member@example.org"},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBuild_MemoryStack(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t))
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Handler)
	require.NotNil(t, app.Scheduler)
	assert.Equal(t, "static", app.Oracle.ProviderName())

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := `{"paymentId":"p-1","workerId":"w-1","amount":120,"method":"mobile_money","phoneNumber":"+254712345678"}`
	r := httptest.NewRequest(http.MethodPost, "/payments/secure-payment", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"verification_required"`)
	assert.Contains(t, rec.Body.String(), "https://pay.example.org/verify?token=")

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "simguard_gate_decisions_total")
}

func TestBuild_SweepRunsAgainstChallengeStore(t *testing.T) {
	app, err := Build(context.Background(), devConfig(t))
	require.NoError(t, err)
	defer app.Close()

	require.True(t, app.Scheduler.LastRun().IsZero())
	app.Scheduler.RunOnce(context.Background())
	assert.False(t, app.Scheduler.LastRun().IsZero())
}

func TestBuild_UnknownProviderFails(t *testing.T) {
	cfg := devConfig(t)
	cfg.Oracle.Provider = "smoke-signals"
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuild_SMSNeedsMessengerProvider(t *testing.T) {
	cfg := devConfig(t)
	cfg.Notify.LogOnly = false
	cfg.Notify.SMS.Enabled = true
	// el static provider implementa SendSMS
	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	_ = app.Close()
}
