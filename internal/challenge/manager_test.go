package challenge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/store/memory"
)

const phone = "+254712345678"

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

type fakeAnswers struct {
	want map[string]string
	err  error
}

func (f *fakeAnswers) VerifyAnswers(_ context.Context, _ string, got map[string]string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for k, v := range f.want {
		if got[k] != v {
			return false, nil
		}
	}
	return true, nil
}

func newManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(memory.NewChallengeStore(time.Hour),
		&fakeAnswers{want: map[string]string{"q1": "nairobi"}},
		Config{}, WithClock(clk.Now))
	return m, clk
}

func TestCreate_CodeChallenge(t *testing.T) {
	m, clk := newManager(t)

	iss, err := m.Create(context.Background(), "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)
	assert.Len(t, iss.Secret, 6)

	c := iss.Challenge
	assert.Equal(t, types.ChallengePending, c.Status)
	assert.Equal(t, 3, c.AttemptsRemaining)
	assert.Equal(t, clk.Now().Add(10*time.Minute), c.ExpiresAt)
	assert.NotEqual(t, iss.Secret, c.SecretHash)
	assert.NotEmpty(t, c.SecretHash)
}

func TestCreate_MethodPolicy(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodAlternatePhone)
	require.ErrorIs(t, err, ErrUnsupportedMethodForTier)

	_, err = m.Create(ctx, "pay-2", phone, types.RiskLow, types.MethodEmail)
	require.ErrorIs(t, err, ErrUnsupportedMethodForTier)

	iss, err := m.Create(ctx, "pay-3", phone, types.RiskMedium, types.MethodAlternatePhone)
	require.NoError(t, err)
	assert.NotEmpty(t, iss.Secret)

	iss, err = m.Create(ctx, "pay-4", phone, types.RiskHigh, types.MethodSecurityQuestions)
	require.NoError(t, err)
	assert.Empty(t, iss.Secret)
	assert.Empty(t, iss.Challenge.SecretHash)
}

func TestCreate_SecurityQuestionsWithoutVerifier(t *testing.T) {
	m := NewManager(memory.NewChallengeStore(time.Hour), nil, Config{})
	_, err := m.Create(context.Background(), "pay-1", phone, types.RiskHigh, types.MethodSecurityQuestions)
	require.ErrorIs(t, err, ErrMethodUnavailable)
}

func TestCreate_AlreadyActive(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)

	_, err = m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.ErrorIs(t, err, ErrChallengeAlreadyActive)
	var active *ActiveError
	require.True(t, errors.As(err, &active))
	assert.Equal(t, first.Challenge.ID, active.Existing.ID)

	// vencido el anterior se puede emitir otro
	clk.Advance(11 * time.Minute)
	second, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)
	assert.NotEqual(t, first.Challenge.ID, second.Challenge.ID)
}

func TestCreate_ConcurrentSingleActive(t *testing.T) {
	m, _ := newManager(t)
	var wg sync.WaitGroup
	ids := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			iss, err := m.Create(context.Background(), "pay-1", phone, types.RiskHigh, types.MethodEmail)
			var active *ActiveError
			switch {
			case err == nil:
				ids <- iss.Challenge.ID
			case errors.As(err, &active):
				ids <- active.Existing.ID
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)
}

func TestValidate_CorrectCode(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)

	res, err := m.Validate(ctx, iss.Challenge.ID, Proof{Code: iss.Secret})
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, types.ChallengeVerified, res.Status)

	// idempotente: cualquier proof sigue dando verified
	res, err = m.Validate(ctx, iss.Challenge.ID, Proof{Code: "000000x"})
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, 3, res.AttemptsRemaining)
}

func TestValidate_WrongWrongRight(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)
	wrong := wrongCode(iss.Secret)

	r1, err := m.Validate(ctx, iss.Challenge.ID, Proof{Code: wrong})
	require.NoError(t, err)
	assert.False(t, r1.Verified)
	assert.Equal(t, 2, r1.AttemptsRemaining)

	r2, err := m.Validate(ctx, iss.Challenge.ID, Proof{Code: wrong})
	require.NoError(t, err)
	assert.Equal(t, 1, r2.AttemptsRemaining)

	r3, err := m.Validate(ctx, iss.Challenge.ID, Proof{Code: iss.Secret})
	require.NoError(t, err)
	assert.True(t, r3.Verified)
	assert.Equal(t, 1, r3.AttemptsRemaining)
}

func TestValidate_ExhaustionThenTerminal(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)
	wrong := wrongCode(iss.Secret)

	var last Result
	for i := 0; i < 3; i++ {
		last, err = m.Validate(ctx, iss.Challenge.ID, Proof{Code: wrong})
		require.NoError(t, err)
	}
	assert.Equal(t, types.ChallengeFailed, last.Status)
	assert.Equal(t, 0, last.AttemptsRemaining)

	// incluso con el código correcto
	_, err = m.Validate(ctx, iss.Challenge.ID, Proof{Code: iss.Secret})
	require.ErrorIs(t, err, ErrChallengeAlreadyTerminal)
}

func TestValidate_ExpiryDoesNotConsumeAttempts(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)

	clk.Advance(10*time.Minute + time.Second)
	res, err := m.Validate(ctx, iss.Challenge.ID, Proof{Code: iss.Secret})
	require.ErrorIs(t, err, ErrChallengeExpired)
	assert.Equal(t, types.ChallengeExpired, res.Status)
	assert.Equal(t, 3, res.AttemptsRemaining)

	_, err = m.Validate(ctx, iss.Challenge.ID, Proof{Code: iss.Secret})
	require.ErrorIs(t, err, ErrChallengeExpired)
}

func TestValidate_ExactlyAtExpiryStillValid(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)
	res, err := m.Validate(ctx, iss.Challenge.ID, Proof{Code: iss.Secret})
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestValidate_NotFound(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Validate(context.Background(), "nope", Proof{Code: "123456"})
	require.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestValidate_SecurityQuestions(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodSecurityQuestions)
	require.NoError(t, err)

	r, err := m.Validate(ctx, iss.Challenge.ID, Proof{Answers: map[string]string{"q1": "mombasa"}})
	require.NoError(t, err)
	assert.False(t, r.Verified)
	assert.Equal(t, 2, r.AttemptsRemaining)

	r, err = m.Validate(ctx, iss.Challenge.ID, Proof{Answers: map[string]string{"q1": "nairobi"}})
	require.NoError(t, err)
	assert.True(t, r.Verified)
}

func TestValidate_VerifierErrorDoesNotConsumeAttempt(t *testing.T) {
	clk := &fakeClock{now: time.Now().UTC()}
	m := NewManager(memory.NewChallengeStore(time.Hour), &fakeAnswers{err: errors.New("db down")}, Config{}, WithClock(clk.Now))
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodSecurityQuestions)
	require.NoError(t, err)

	_, err = m.Validate(ctx, iss.Challenge.ID, Proof{Answers: map[string]string{"q1": "x"}})
	require.Error(t, err)

	c, err := m.Get(ctx, iss.Challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, c.AttemptsRemaining)
}

func TestGetAndLatest_LazyExpiry(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskMedium, types.MethodEmail)
	require.NoError(t, err)

	c, err := m.LatestForAttempt(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, types.ChallengePending, c.Status)

	clk.Advance(time.Hour)
	c, err = m.Get(ctx, iss.Challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ChallengeExpired, c.Status)

	_, err = m.LatestForAttempt(ctx, "pay-unknown")
	require.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestActiveForAttempt(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()
	iss, err := m.Create(ctx, "pay-1", phone, types.RiskHigh, types.MethodEmail)
	require.NoError(t, err)

	c, err := m.ActiveForAttempt(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, iss.Challenge.ID, c.ID)

	clk.Advance(11 * time.Minute)
	_, err = m.ActiveForAttempt(ctx, "pay-1")
	require.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestSweep(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()
	_, err := m.Create(ctx, "pay-1", phone, types.RiskMedium, types.MethodEmail)
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)
	expired, purged, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, purged)
}

func TestAllowedMethods(t *testing.T) {
	assert.Equal(t, []types.VerificationMethod{types.MethodEmail, types.MethodSecurityQuestions}, AllowedMethods(types.RiskHigh))
	assert.Contains(t, AllowedMethods(types.RiskMedium), types.MethodAlternatePhone)
	assert.Empty(t, AllowedMethods(types.RiskLow))
}

func wrongCode(secret string) string {
	if secret == "000000" {
		return "111111"
	}
	return "000000"
}
