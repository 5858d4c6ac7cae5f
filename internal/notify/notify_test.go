package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/simswap"
)

type fakeResolver map[types.VerificationMethod]string

func (f fakeResolver) Destination(_ context.Context, _ string, m types.VerificationMethod) (string, error) {
	if d, ok := f[m]; ok {
		return d, nil
	}
	return "", repository.ErrNotFound
}

type sentMail struct{ to, subject, html, text string }

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, html, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, html, text})
	return nil
}

type fakeMessenger struct {
	to, body string
}

func (f *fakeMessenger) SendSMS(_ context.Context, to, body string) (simswap.MessageReceipt, error) {
	f.to, f.body = to, body
	return simswap.MessageReceipt{MessageID: "ATXid_1", Status: "Success"}, nil
}

func challenge(m types.VerificationMethod) *types.Challenge {
	now := time.Now()
	return &types.Challenge{
		ID: "ch-1", PaymentAttemptID: "pay-1", PhoneNumber: "+254712345678",
		Method: m, CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute),
		Status: types.ChallengePending, AttemptsRemaining: 3,
	}
}

func TestRouter_Email(t *testing.T) {
	s := &fakeSender{}
	en, err := NewEmailNotifier(s, "")
	require.NoError(t, err)
	r := NewRouter(fakeResolver{types.MethodEmail: "wanjiru@example.org"}).Handle(types.MethodEmail, en)

	require.NoError(t, r.Notify(context.Background(), challenge(types.MethodEmail), "493817", "https://x/verify?token=t"))
	require.Len(t, s.sent, 1)
	m := s.sent[0]
	assert.Equal(t, "wanjiru@example.org", m.to)
	assert.Equal(t, defaultSubject, m.subject)
	assert.Contains(t, m.text, "493817")
	assert.Contains(t, m.text, "+254******678")
	assert.NotContains(t, m.text, "+254712345678")
	assert.Contains(t, m.html, "https://x/verify?token=t")
	assert.Contains(t, m.text, "10 minutes")
}

func TestRouter_SMS(t *testing.T) {
	msg := &fakeMessenger{}
	r := NewRouter(fakeResolver{types.MethodAlternatePhone: "+254733000111"}).
		Handle(types.MethodAlternatePhone, NewSMSNotifier(msg, ""))

	require.NoError(t, r.Notify(context.Background(), challenge(types.MethodAlternatePhone), "102938", ""))
	assert.Equal(t, "+254733000111", msg.to)
	assert.Contains(t, msg.body, "102938")
}

func TestRouter_SecurityQuestionsNoop(t *testing.T) {
	r := NewRouter(fakeResolver{})
	assert.NoError(t, r.Notify(context.Background(), challenge(types.MethodSecurityQuestions), "", ""))
}

func TestRouter_Errors(t *testing.T) {
	ctx := context.Background()

	err := NewRouter(fakeResolver{}).Notify(ctx, challenge(types.MethodEmail), "1", "")
	require.ErrorIs(t, err, ErrNoChannel)

	err = NewRouter(fakeResolver{}).Handle(types.MethodEmail, NewLogNotifier("")).
		Notify(ctx, challenge(types.MethodEmail), "1", "")
	require.ErrorIs(t, err, repository.ErrNotFound)

	boom := errors.New("connection refused")
	en, _ := NewEmailNotifier(&fakeSender{err: boom}, "")
	err = NewRouter(fakeResolver{types.MethodEmail: "a@b.c"}).Handle(types.MethodEmail, en).
		Notify(ctx, challenge(types.MethodEmail), "1", "")
	require.ErrorIs(t, err, boom)
}

func TestMaskDestination(t *testing.T) {
	assert.Equal(t, "w******@example.org", maskDestination("wanjiru@example.org"))
	assert.Equal(t, "*@x.io", maskDestination("a@x.io"))
	assert.Equal(t, "+254******678", maskDestination("+254712345678"))
}
