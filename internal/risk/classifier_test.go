package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/simguard/internal/domain/types"
)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func swappedAgo(d time.Duration, device, location bool) types.SwapRecord {
	t := now.Add(-d)
	return types.SwapRecord{PhoneNumber: "+254712345678", LastSwapAt: &t, DeviceChanged: device, LocationChanged: location}
}

const day = 24 * time.Hour

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		rec     types.SwapRecord
		tier    types.RiskTier
		days    int
		reasons []string
	}{
		{"same day", swappedAgo(time.Hour, false, false), types.RiskHigh, 0, []string{types.ReasonSwapWithin7}},
		{"day 7", swappedAgo(7*day, false, false), types.RiskHigh, 7, []string{types.ReasonSwapWithin7}},
		{"day 7 plus hours floors to 7", swappedAgo(7*day+23*time.Hour, false, false), types.RiskHigh, 7, []string{types.ReasonSwapWithin7}},
		{"day 8", swappedAgo(8*day, false, false), types.RiskMedium, 8, []string{types.ReasonSwapWithin30}},
		{"day 30", swappedAgo(30*day, false, false), types.RiskMedium, 30, []string{types.ReasonSwapWithin30}},
		{"day 31", swappedAgo(31*day, false, false), types.RiskLow, 31, []string{types.ReasonSwapOlderThan30}},
		{"day 20 device changed", swappedAgo(20*day, true, false), types.RiskHigh, 20, []string{types.ReasonSwapWithin30, types.ReasonDeviceChanged}},
		{"day 3 device and location", swappedAgo(3*day, true, true), types.RiskHigh, 3, []string{types.ReasonSwapWithin7, types.ReasonDeviceChanged, types.ReasonLocationChanged}},
		{"day 12 location only", swappedAgo(12*day, false, true), types.RiskMedium, 12, []string{types.ReasonSwapWithin30, types.ReasonLocationChanged}},
		{"day 45 device changed stays low", swappedAgo(45*day, true, true), types.RiskLow, 45, []string{types.ReasonSwapOlderThan30}},
		{"future swap counts as day 0", swappedAgo(-2*day, false, false), types.RiskHigh, 0, []string{types.ReasonSwapWithin7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Classify(tt.rec, now)
			assert.Equal(t, tt.tier, a.Tier)
			require.NotNil(t, a.DaysSinceSwap)
			assert.Equal(t, tt.days, *a.DaysSinceSwap)
			assert.True(t, a.RecentSwap)
			assert.Equal(t, tt.reasons, a.Reasons)
		})
	}
}

func TestClassify_NoSwap(t *testing.T) {
	a := Classify(types.SwapRecord{PhoneNumber: "+254700000001", DeviceChanged: true}, now)
	assert.Equal(t, types.RiskLow, a.Tier)
	assert.False(t, a.RecentSwap)
	assert.Nil(t, a.DaysSinceSwap)
	assert.Equal(t, []string{types.ReasonNoSwap}, a.Reasons)
}

func TestClassify_Deterministic(t *testing.T) {
	rec := swappedAgo(2*day, true, false)
	first := Classify(rec, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(rec, now))
	}
}

func TestDaysSince(t *testing.T) {
	assert.Equal(t, 0, DaysSince(now, now))
	assert.Equal(t, 0, DaysSince(now.Add(day-time.Second), now.Add(day-time.Second).Add(23*time.Hour)))
	assert.Equal(t, 1, DaysSince(now.Add(-day), now))
	assert.Equal(t, 0, DaysSince(now.Add(time.Hour), now))
}
