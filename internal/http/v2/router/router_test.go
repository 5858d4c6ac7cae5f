package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/simguard/internal/audit"
	"github.com/dropDatabas3/simguard/internal/challenge"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/gate"
	"github.com/dropDatabas3/simguard/internal/http/v2/controllers"
	auditdto "github.com/dropDatabas3/simguard/internal/http/v2/dto/audit"
	paydto "github.com/dropDatabas3/simguard/internal/http/v2/dto/payments"
	secdto "github.com/dropDatabas3/simguard/internal/http/v2/dto/security"
	mw "github.com/dropDatabas3/simguard/internal/http/v2/middlewares"
	"github.com/dropDatabas3/simguard/internal/http/v2/services"
	"github.com/dropDatabas3/simguard/internal/http/v2/services/health"
	jwtx "github.com/dropDatabas3/simguard/internal/jwt"
	"github.com/dropDatabas3/simguard/internal/members"
	"github.com/dropDatabas3/simguard/internal/rate"
	"github.com/dropDatabas3/simguard/internal/security/answers"
	"github.com/dropDatabas3/simguard/internal/simswap"
	"github.com/dropDatabas3/simguard/internal/store/memory"
)

const (
	swappedPhone = "+254712345678"
	mediumPhone  = "+254722000333"
	cleanPhone   = "+254700000001"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type codeCapture struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeCapture) Notify(_ context.Context, ch *types.Challenge, secret, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[ch.ID] = secret
	return nil
}

func (c *codeCapture) code(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[id]
}

type stack struct {
	clock    *fakeClock
	provider *simswap.StaticProvider
	auditLog *memory.AuditLog
	codes    *codeCapture
	handler  http.Handler
}

func newStack(t *testing.T, mutate ...func(*Deps)) *stack {
	t.Helper()
	ctx := context.Background()
	s := &stack{
		clock:    &fakeClock{now: time.Now().UTC()},
		provider: simswap.NewStaticProvider(),
		auditLog: memory.NewAuditLog(),
		codes:    &codeCapture{codes: map[string]string{}},
	}
	ago := func(days int) *time.Time {
		at := s.clock.Now().Add(-time.Duration(days)*24*time.Hour - time.Hour)
		return &at
	}
	s.provider.Set(types.SwapRecord{PhoneNumber: swappedPhone, LastSwapAt: ago(2), DeviceChanged: true,
		PriorNetwork: "Safaricom", NewNetwork: "Airtel"})
	s.provider.Set(types.SwapRecord{PhoneNumber: mediumPhone, LastSwapAt: ago(12)})

	dir := members.NewDirectory(memory.NewMemberStore(), answers.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16})
	require.NoError(t, members.Seed(ctx, dir, []members.SeedMember{{
		MemberID:    "m-1",
		PhoneNumber: mediumPhone,
		Email:       "wanjiru@example.org",
		Questions:   []members.SeedAnswer{{ID: "q1", Question: "First school?", Answer: "Moi Primary"}},
	}}))

	mgr := challenge.NewManager(memory.NewChallengeStore(time.Hour), dir,
		challenge.Config{TTL: 10 * time.Minute, MaxAttempts: 3, Retention: time.Hour},
		challenge.WithClock(s.clock.Now))
	oracle := simswap.NewOracle(s.provider, simswap.Config{Timeout: time.Second})
	signer, err := jwtx.NewLinkSigner([]byte(strings.Repeat("k", 32)), "", "https://pay.example.org/verify")
	require.NoError(t, err)
	signer.WithClock(s.clock.Now)

	g := gate.New(gate.Config{}, oracle, mgr, audit.New(s.auditLog).WithClock(s.clock.Now),
		gate.WithNotifier(s.codes), gate.WithLinks(signer))
	svcs := services.New(services.Deps{
		Oracle:      oracle,
		Gate:        g,
		Attempts:    mgr,
		Links:       signer,
		AuditReader: s.auditLog,
		Health:      health.Deps{Version: "test", Provider: oracle.ProviderName()},
		Now:         s.clock.Now,
	})
	deps := Deps{Controllers: controllers.New(svcs), CORSOrigins: []string{"https://portal.example.org"}}
	for _, m := range mutate {
		m(&deps)
	}
	s.handler = New(deps)
	return s
}

func (s *stack) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[struct {
		Code string `json:"code"`
	}](t, rec).Code
}

func pay(phone, id string, amount float64) map[string]any {
	return map[string]any{
		"paymentId":   id,
		"workerId":    "w-77",
		"amount":      amount,
		"method":      "mobile_money",
		"phoneNumber": phone,
	}
}

func wrongCode(secret string) string {
	if secret == "000000" {
		return "111111"
	}
	return "000000"
}

func TestSimSwapCheck(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/security/sim-swap-check?phoneNumber=%2B254712345678", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[secdto.CheckResponse](t, rec)
	assert.Equal(t, swappedPhone, out.PhoneNumber)
	assert.True(t, out.RecentSwap)
	assert.Equal(t, "high", out.RiskLevel)
	require.NotNil(t, out.DaysSinceSwap)
	assert.Equal(t, 2, *out.DaysSinceSwap)
	assert.NotNil(t, out.LastSwapDate)
	assert.Contains(t, out.Reasons, types.ReasonDeviceChanged)

	rec = s.do(t, http.MethodGet, "/security/sim-swap-check?phoneNumber=%2B254700000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[secdto.CheckResponse](t, rec)
	assert.False(t, out.RecentSwap)
	assert.Nil(t, out.LastSwapDate)
	assert.Equal(t, "low", out.RiskLevel)

	rec = s.do(t, http.MethodGet, "/security/sim-swap-check?phoneNumber=0712345678", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PHONE_NUMBER", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/security/sim-swap-check", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestSimSwapCheck_OracleDown(t *testing.T) {
	s := newStack(t)
	s.provider.Fail(errors.New("gateway timeout"))

	rec := s.do(t, http.MethodGet, "/security/sim-swap-check?phoneNumber=%2B254712345678", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "RISK_CHECK_UNAVAILABLE", errorCode(t, rec))
}

func TestBatchCheck(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodPost, "/security/batch-sim-swap-check", map[string]any{
		"phoneNumbers": []string{swappedPhone, mediumPhone, cleanPhone, swappedPhone},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[secdto.BatchResponse](t, rec)
	require.Len(t, out.Results, 3)
	assert.Equal(t, []string{swappedPhone, mediumPhone, cleanPhone},
		[]string{out.Results[0].PhoneNumber, out.Results[1].PhoneNumber, out.Results[2].PhoneNumber})
	assert.Equal(t, secdto.BatchSummary{Total: 3, HighRisk: 1, MediumRisk: 1, LowRisk: 1}, out.Summary)

	rec = s.do(t, http.MethodPost, "/security/batch-sim-swap-check", map[string]any{"phoneNumbers": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/security/batch-sim-swap-check", map[string]any{
		"phoneNumbers": []string{swappedPhone, "not-a-phone"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PHONE_NUMBER", errorCode(t, rec))
}

func TestHistory(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/security/sim-swap-history/+254712345678", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[secdto.HistoryResponse](t, rec)
	assert.Equal(t, swappedPhone, out.PhoneNumber)
	require.Equal(t, 1, out.TotalSwaps)
	assert.Equal(t, "Safaricom", out.History[0].PreviousNetwork)
	assert.Equal(t, "Airtel", out.History[0].NewNetwork)

	rec = s.do(t, http.MethodGet, "/security/sim-swap-history/+254700000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[secdto.HistoryResponse](t, rec).TotalSwaps)
}

func TestSecurePayment_LowRiskAuthorized(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodPost, "/payments/secure-payment", pay(cleanPhone, "p-low", 250))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[paydto.SecurePaymentResponse](t, rec)
	assert.True(t, out.Success)
	assert.Equal(t, "p-low", out.PaymentID)
	assert.Equal(t, paydto.StatusPending, out.Status)
	assert.False(t, out.SimSwapDetected)
	assert.True(t, out.SecurityChecks.SimSwapChecked)
	assert.Equal(t, "low", out.SecurityChecks.RiskLevel)
	assert.Empty(t, out.VerificationOptions)

	rec = s.do(t, http.MethodGet, "/security/audit?paymentId=p-low", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[auditdto.ListResponse](t, rec)
	require.Equal(t, 1, entries.Total)
	assert.Equal(t, "authorized", entries.Entries[0].Decision)
	assert.Equal(t, "w-77", entries.Entries[0].WorkerID)
}

func TestSecurePayment_GeneratesPaymentID(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodPost, "/payments/secure-payment", pay(cleanPhone, "", 10))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[paydto.SecurePaymentResponse](t, rec)
	assert.Len(t, out.PaymentID, 36)
}

func TestSecurePayment_VerificationFlowWithCode(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-1", 300))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[paydto.SecurePaymentResponse](t, rec)
	assert.False(t, out.Success)
	assert.Equal(t, paydto.StatusVerificationRequired, out.Status)
	assert.True(t, out.SimSwapDetected)
	assert.Equal(t, []string{"email", "security_questions"}, out.VerificationOptions)
	assert.Equal(t, "email", out.VerificationMethod)
	require.NotEmpty(t, out.ChallengeID)
	require.Contains(t, out.VerificationURL, "token=")
	token := strings.SplitN(out.VerificationURL, "token=", 2)[1]
	secret := s.codes.code(out.ChallengeID)
	require.NotEmpty(t, secret)

	// proof incorrecto: sigue pendiente
	rec = s.do(t, http.MethodPost, "/security/verify-after-swap", map[string]any{
		"challengeId":        out.ChallengeID,
		"phoneNumber":        swappedPhone,
		"verificationMethod": "email",
		"verificationData":   map[string]any{"code": wrongCode(secret)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ver := decode[secdto.VerifyResponse](t, rec)
	assert.False(t, ver.Verified)
	assert.Equal(t, "pending", ver.Status)
	assert.Equal(t, 2, ver.AttemptsRemaining)
	assert.Equal(t, "verification_required", ver.Decision)

	// proof correcto usando el token del link
	rec = s.do(t, http.MethodPost, "/security/verify-after-swap", map[string]any{
		"token":              token,
		"phoneNumber":        swappedPhone,
		"verificationMethod": "email",
		"verificationData":   map[string]any{"code": secret},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ver = decode[secdto.VerifyResponse](t, rec)
	assert.True(t, ver.Verified)
	assert.Equal(t, "verified", ver.Status)
	assert.Equal(t, "p-1", ver.PaymentID)

	// el reintento del pago ya pasa
	rec = s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-1", 300))
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[paydto.SecurePaymentResponse](t, rec)
	assert.True(t, out.Success)
	assert.Equal(t, paydto.StatusPending, out.Status)

	rec = s.do(t, http.MethodGet, "/security/challenges/"+ver.ChallengeID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[secdto.ChallengeStatusResponse](t, rec)
	assert.Equal(t, "verified", st.Status)
	assert.NotEqual(t, swappedPhone, st.PhoneNumber)
	assert.NotContains(t, rec.Body.String(), secret)
}

func TestSecurePayment_SecurityQuestionsByPaymentID(t *testing.T) {
	s := newStack(t)

	body := pay(mediumPhone, "p-q", 120)
	body["verificationMethod"] = "security_questions"
	rec := s.do(t, http.MethodPost, "/payments/secure-payment", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[paydto.SecurePaymentResponse](t, rec)
	assert.Equal(t, "medium", out.SecurityChecks.RiskLevel)
	assert.Equal(t, "security_questions", out.VerificationMethod)

	rec = s.do(t, http.MethodPost, "/security/verify-after-swap", map[string]any{
		"paymentId":          "p-q",
		"phoneNumber":        mediumPhone,
		"verificationMethod": "security_questions",
		"verificationData":   map[string]any{"answers": map[string]string{"q1": "  moi   PRIMARY "}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[secdto.VerifyResponse](t, rec).Verified)
}

func TestVerify_Rejections(t *testing.T) {
	s := newStack(t)
	rec := s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-2", 300))
	require.Equal(t, http.StatusOK, rec.Code)
	cid := decode[paydto.SecurePaymentResponse](t, rec).ChallengeID

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"other phone", map[string]any{"challengeId": cid, "phoneNumber": cleanPhone, "verificationMethod": "email",
			"verificationData": map[string]any{"code": "123456"}}, http.StatusNotFound, "CHALLENGE_NOT_FOUND"},
		{"other method", map[string]any{"challengeId": cid, "phoneNumber": swappedPhone, "verificationMethod": "security_questions",
			"verificationData": map[string]any{"answers": map[string]string{"q1": "x"}}}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing code", map[string]any{"challengeId": cid, "phoneNumber": swappedPhone, "verificationMethod": "email"},
			http.StatusBadRequest, "VALIDATION_FAILED"},
		{"no reference", map[string]any{"phoneNumber": swappedPhone, "verificationMethod": "email",
			"verificationData": map[string]any{"code": "123456"}}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown method", map[string]any{"challengeId": cid, "phoneNumber": swappedPhone, "verificationMethod": "carrier_pigeon",
			"verificationData": map[string]any{"code": "123456"}}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad token", map[string]any{"token": "abc.def.ghi", "phoneNumber": swappedPhone, "verificationMethod": "email",
			"verificationData": map[string]any{"code": "123456"}}, http.StatusBadRequest, "INVALID_VERIFICATION_LINK"},
		{"unknown challenge", map[string]any{"challengeId": "nope", "phoneNumber": swappedPhone, "verificationMethod": "email",
			"verificationData": map[string]any{"code": "123456"}}, http.StatusNotFound, "CHALLENGE_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/security/verify-after-swap", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestVerify_ExpiredChallengeIsGone(t *testing.T) {
	s := newStack(t)
	rec := s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-exp", 300))
	require.Equal(t, http.StatusOK, rec.Code)
	cid := decode[paydto.SecurePaymentResponse](t, rec).ChallengeID

	s.clock.Advance(11 * time.Minute)
	rec = s.do(t, http.MethodPost, "/security/verify-after-swap", map[string]any{
		"challengeId":        cid,
		"phoneNumber":        swappedPhone,
		"verificationMethod": "email",
		"verificationData":   map[string]any{"code": s.codes.code(cid)},
	})
	assert.Equal(t, http.StatusGone, rec.Code, rec.Body.String())
	assert.Equal(t, "CHALLENGE_EXPIRED", errorCode(t, rec))
}

func TestVerify_ExhaustedChallengeBlocksPayment(t *testing.T) {
	s := newStack(t)
	rec := s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-3", 300))
	require.Equal(t, http.StatusOK, rec.Code)
	cid := decode[paydto.SecurePaymentResponse](t, rec).ChallengeID
	bad := wrongCode(s.codes.code(cid))

	var last secdto.VerifyResponse
	for i := 0; i < 3; i++ {
		rec = s.do(t, http.MethodPost, "/security/verify-after-swap", map[string]any{
			"challengeId": cid, "phoneNumber": swappedPhone, "verificationMethod": "email",
			"verificationData": map[string]any{"code": bad},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		last = decode[secdto.VerifyResponse](t, rec)
	}
	assert.Equal(t, "failed", last.Status)
	assert.Equal(t, "blocked", last.Decision)

	rec = s.do(t, http.MethodPost, "/security/verify-after-swap", map[string]any{
		"challengeId": cid, "phoneNumber": swappedPhone, "verificationMethod": "email",
		"verificationData": map[string]any{"code": s.codes.code(cid)},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CHALLENGE_ALREADY_TERMINAL", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-3", 300))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[paydto.SecurePaymentResponse](t, rec)
	assert.False(t, out.Success)
	assert.Equal(t, paydto.StatusBlocked, out.Status)
}

func TestSecurePayment_OracleDown(t *testing.T) {
	s := newStack(t)
	s.provider.Fail(errors.New("gateway timeout"))

	rec := s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-small", 500))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[paydto.SecurePaymentResponse](t, rec)
	assert.True(t, out.Success)
	assert.True(t, out.SecurityChecks.Degraded)
	assert.False(t, out.SecurityChecks.SimSwapChecked)
	assert.Equal(t, gate.ReasonRiskCheckUnavailable, out.SecurityChecks.Reason)

	rec = s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-big", 5000))
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[paydto.SecurePaymentResponse](t, rec)
	assert.False(t, out.Success)
	assert.Equal(t, paydto.StatusBlocked, out.Status)
}

func TestSecurePayment_BypassIsAudited(t *testing.T) {
	s := newStack(t)

	body := pay(swappedPhone, "p-bypass", 300)
	body["bypassSimSwapCheck"] = true
	rec := s.do(t, http.MethodPost, "/payments/secure-payment", body, "X-Operator-ID", "ops-jane")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[paydto.SecurePaymentResponse](t, rec)
	assert.True(t, out.Success)
	assert.True(t, out.SecurityChecks.Bypassed)

	rec = s.do(t, http.MethodGet, "/security/audit?phoneNumber=%2B254712345678", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[auditdto.ListResponse](t, rec)
	require.Equal(t, 1, entries.Total)
	assert.Equal(t, string(types.AuditAuthorizedBypass), entries.Entries[0].Decision)
	assert.Equal(t, "ops-jane", entries.Entries[0].Operator)
}

func TestSecurePayment_InputErrors(t *testing.T) {
	s := newStack(t)

	body := pay(swappedPhone, "p-x", 100)
	delete(body, "workerId")
	rec := s.do(t, http.MethodPost, "/payments/secure-payment", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/payments/secure-payment", pay(swappedPhone, "p-neg", -5))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, rec))
	// el rechazo del gate también queda auditado
	entries, err := s.auditLog.ListByAttempt(context.Background(), "p-neg")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.AuditRejected, entries[0].Decision)

	body = pay(swappedPhone, "p-m", 100)
	body["verificationMethod"] = "alternate_phone"
	rec = s.do(t, http.MethodPost, "/payments/secure-payment", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "UNSUPPORTED_METHOD_FOR_TIER", errorCode(t, rec))

	r := httptest.NewRequest(http.MethodPost, "/payments/secure-payment", strings.NewReader("{"))
	r.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, rr))
}

func TestAudit_RequiresFilter(t *testing.T) {
	s := newStack(t)
	rec := s.do(t, http.MethodGet, "/security/audit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestRouting_NotFoundAndMethod(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/payments/secure-payment", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Service-Version"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouting_ResponseHeaders(t *testing.T) {
	s := newStack(t)
	rec := s.do(t, http.MethodGet, "/security/sim-swap-check?phoneNumber=%2B254700000001", nil,
		"Origin", "https://portal.example.org")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "https://portal.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(t, http.MethodOptions, "/payments/secure-payment", nil,
		"Origin", "https://portal.example.org", "Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit_VerifyGroup(t *testing.T) {
	s := newStack(t, func(d *Deps) {
		d.VerifyLimit = mw.RateLimitConfig{Limiter: rate.NewMemoryLimiter(1, time.Hour), Limit: 1, Scope: "verify"}
	})

	rec := s.do(t, http.MethodGet, "/security/challenges/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = s.do(t, http.MethodGet, "/security/challenges/unknown", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// otros grupos no comparten el contador
	rec = s.do(t, http.MethodGet, "/security/sim-swap-check?phoneNumber=%2B254700000001", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
