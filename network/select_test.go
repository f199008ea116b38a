package network

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/feemeta/storage/types"
)

// uptimeStats returns stats scoring exactly 60 + 0.4*uptime
func uptimeStats(network string, uptime float64) Stats {
	s := perfectStats(network)
	s.UptimePct = uptime

	return s
}

func record(network string, minWithdrawal int64) types.NetworkRecord {
	return types.NetworkRecord{
		Network:       network,
		MinWithdrawal: decimal.NewFromInt(minWithdrawal),
		WithdrawalFee: decimal.NewFromInt(minWithdrawal).Div(decimal.NewFromInt(10)),
	}
}

func TestReference_SelectBest(t *testing.T) {
	t.Parallel()

	ref := Reference{
		"A": uptimeStats("A", 50), // 80
		"B": uptimeStats("B", 0),  // 60
		"C": uptimeStats("C", 75), // 90
		"D": uptimeStats("D", 25), // 70
	}

	t.Run("cheapest reliable network", func(t *testing.T) {
		t.Parallel()

		candidates := []types.NetworkRecord{
			record("A", 5),
			record("B", 3),
			record("C", 10),
		}

		best, ok := ref.SelectBest(candidates, DefaultThreshold)
		require.True(t, ok)

		assert.Equal(t, "A", best.Network)
		assert.Equal(t, 80.0, best.ReliabilityScore)
		assert.True(t, best.MinWithdrawal.Equal(decimal.NewFromInt(5)))
	})

	t.Run("no reliable network", func(t *testing.T) {
		t.Parallel()

		candidates := []types.NetworkRecord{
			record("B", 3),
			record("D", 1),
			record("UNKNOWN", 0),
		}

		_, ok := ref.SelectBest(candidates, DefaultThreshold)
		assert.False(t, ok)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()

		_, ok := ref.SelectBest(nil, DefaultThreshold)
		assert.False(t, ok)

		_, ok = ref.SelectBest([]types.NetworkRecord{}, DefaultThreshold)
		assert.False(t, ok)
	})

	t.Run("score equal to threshold", func(t *testing.T) {
		t.Parallel()

		candidates := []types.NetworkRecord{
			record("D", 1),
		}

		_, ok := ref.SelectBest(candidates, 70)
		assert.False(t, ok)

		best, ok := ref.SelectBest(candidates, 69.99)
		require.True(t, ok)
		assert.Equal(t, "D", best.Network)
	})

	t.Run("equal minimum keeps input order", func(t *testing.T) {
		t.Parallel()

		candidates := []types.NetworkRecord{
			record("C", 5),
			record("A", 5),
			record("B", 5),
		}

		best, ok := ref.SelectBest(candidates, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, "C", best.Network)

		candidates[0], candidates[1] = candidates[1], candidates[0]

		best, ok = ref.SelectBest(candidates, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, "A", best.Network)
	})

	t.Run("decimal minimums", func(t *testing.T) {
		t.Parallel()

		candidates := []types.NetworkRecord{
			{Network: "C", MinWithdrawal: decimal.RequireFromString("0.0002")},
			{Network: "A", MinWithdrawal: decimal.RequireFromString("0.00015")},
		}

		best, ok := ref.SelectBest(candidates, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, "A", best.Network)
	})

	t.Run("never below threshold", func(t *testing.T) {
		t.Parallel()

		candidates := []types.NetworkRecord{
			record("B", 1),
			record("D", 2),
			record("A", 3),
			record("C", 4),
		}

		for _, threshold := range []float64{0, 59.9, 60, 70, 80, 89.9, 90, 100} {
			best, ok := ref.SelectBest(candidates, threshold)
			if !ok {
				continue
			}

			assert.Greater(t, best.ReliabilityScore, threshold)
		}
	})

	t.Run("input is not reordered", func(t *testing.T) {
		t.Parallel()

		candidates := []types.NetworkRecord{
			record("C", 10),
			record("A", 5),
		}

		_, ok := ref.SelectBest(candidates, DefaultThreshold)
		require.True(t, ok)

		assert.Equal(t, "C", candidates[0].Network)
		assert.Equal(t, "A", candidates[1].Network)
	})
}
