package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
	"github.com/dropDatabas3/simguard/internal/security/answers"
	"github.com/dropDatabas3/simguard/internal/store/memory"
)

const phone = "+254712345678"

func seeded(t *testing.T) *Directory {
	t.Helper()
	d := NewDirectory(memory.NewMemberStore(), answers.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16})
	err := Seed(context.Background(), d, []SeedMember{{
		MemberID: "m-1", PhoneNumber: phone, Name: "Wanjiru", Email: "wanjiru@example.org",
		Questions: []SeedAnswer{
			{ID: "q1", Question: "Town of birth?", Answer: "Nyeri"},
			{ID: "q2", Question: "First school?", Answer: "Kamukunji Primary"},
		},
	}})
	require.NoError(t, err)
	return d
}

func TestVerifyAnswers(t *testing.T) {
	d := seeded(t)
	ctx := context.Background()

	ok, err := d.VerifyAnswers(ctx, phone, map[string]string{"q1": "nyeri", "q2": "kamukunji  primary"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.VerifyAnswers(ctx, phone, map[string]string{"q1": "nyeri"})
	require.NoError(t, err)
	assert.False(t, ok, "todas las preguntas son obligatorias")

	ok, err = d.VerifyAnswers(ctx, "+254700000001", map[string]string{"q1": "nyeri"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDestination(t *testing.T) {
	d := seeded(t)
	ctx := context.Background()

	dest, err := d.Destination(ctx, phone, types.MethodEmail)
	require.NoError(t, err)
	assert.Equal(t, "wanjiru@example.org", dest)

	_, err = d.Destination(ctx, phone, types.MethodAlternatePhone)
	require.ErrorIs(t, err, ErrNoContact)

	_, err = d.Destination(ctx, "+254700000001", types.MethodEmail)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQuestionsNeverExposeHashes(t *testing.T) {
	qs, err := seeded(t).Questions(context.Background(), phone)
	require.NoError(t, err)
	assert.Len(t, qs, 2)
}

func TestSeed_InvalidPhone(t *testing.T) {
	d := NewDirectory(memory.NewMemberStore(), answers.Params{})
	err := Seed(context.Background(), d, []SeedMember{{PhoneNumber: "07"}})
	require.ErrorIs(t, err, types.ErrInvalidPhoneNumber)
}
