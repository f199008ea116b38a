package network

import "math"

// Reliability score weights, summing up to 1
const (
	weightSpeed      = 0.3
	weightCongestion = 0.2
	weightUptime     = 0.4
	weightFailure    = 0.1
)

// blockTimePenalty is the speed score penalty per second of block time
const blockTimePenalty = 5

// Stats are the static reliability statistics of a network
type Stats struct {
	Network        string  `toml:"network"`          // canonical network symbol
	BlockTimeSec   float64 `toml:"block_time_sec"`   // average block time, in seconds
	Congestion     float64 `toml:"congestion"`       // 0-100, higher is worse
	UptimePct      float64 `toml:"uptime_pct"`       // 0-100, higher is better
	FailureRatePct float64 `toml:"failure_rate_pct"` // 0-100, higher is worse
}

// Score computes the 0-100 reliability score from the stats
func (s Stats) Score() float64 {
	var (
		speedScore      = math.Max(0, 100-blockTimePenalty*s.BlockTimeSec)
		congestionScore = math.Max(0, 100-s.Congestion)
		uptimeScore     = s.UptimePct
		failureScore    = math.Max(0, 100-s.FailureRatePct)
	)

	return weightSpeed*speedScore +
		weightCongestion*congestionScore +
		weightUptime*uptimeScore +
		weightFailure*failureScore
}

// Reference is the reliability reference table, keyed by canonical network symbol.
// It is read-only once loaded
type Reference map[string]Stats

// Score returns the reliability score of the given canonical network.
// Networks missing from the reference score 0, so they are never preferred
func (r Reference) Score(network string) float64 {
	stats, ok := r[network]
	if !ok {
		return 0
	}

	return stats.Score()
}
