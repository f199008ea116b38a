package network

import (
	"sort"

	"github.com/sig-0/feemeta/storage/types"
)

// DefaultThreshold is the reliability score a network needs to exceed
// in order to be considered for withdrawals
const DefaultThreshold = 70.0

// SelectBest picks the network with the lowest minimum withdrawal among the
// candidates whose reliability score is strictly above the threshold.
// Candidates with an equal minimum withdrawal keep their input order.
// Returns false if no candidate qualifies
func (r Reference) SelectBest(
	candidates []types.NetworkRecord,
	threshold float64,
) (types.ScoredNetwork, bool) {
	scored := make([]types.ScoredNetwork, 0, len(candidates))

	for _, candidate := range candidates {
		scored = append(scored, types.ScoredNetwork{
			NetworkRecord:    candidate,
			ReliabilityScore: r.Score(candidate.Network),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MinWithdrawal.LessThan(scored[j].MinWithdrawal)
	})

	for _, candidate := range scored {
		if candidate.ReliabilityScore > threshold {
			return candidate, true
		}
	}

	return types.ScoredNetwork{}, false
}
