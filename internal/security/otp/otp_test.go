package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SixDigits(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c, err := Generate()
		require.NoError(t, err)
		require.Len(t, c, Digits)
		for _, r := range c {
			require.True(t, r >= '0' && r <= '9', c)
		}
		seen[c] = true
	}
	// 200 códigos de 6 dígitos: colisiones masivas indicarían un bug
	assert.Greater(t, len(seen), 190)
}

func TestEqual(t *testing.T) {
	h := Hash("123456")
	assert.True(t, Equal("123456", h))
	assert.True(t, Equal(" 123456 ", h))
	assert.False(t, Equal("123457", h))
	assert.False(t, Equal("123456", ""))
}
