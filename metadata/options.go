package metadata

import (
	"log/slog"
	"time"

	"github.com/sig-0/feemeta/metrics"
	"github.com/sig-0/feemeta/network"
)

type Option func(s *Service)

// WithLogger specifies the logger for the service
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock sets the time source used for freshness checks
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMaxAge sets the age after which the cached metadata goes stale
func WithMaxAge(maxAge time.Duration) Option {
	return func(s *Service) {
		if maxAge > 0 {
			s.maxAge = maxAge
		}
	}
}

// WithRefreshTimeout bounds how long a shared regeneration may run
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.refreshTimeout = timeout
		}
	}
}

// WithThreshold sets the reliability score a network needs to exceed
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithReference sets the reliability reference used for network scoring
func WithReference(reference network.Reference) Option {
	return func(s *Service) {
		s.reference = reference
	}
}

// WithQuoteAsset sets the quote asset of the tracked trading symbols.
// An empty quote asset keeps every fee and liquidity symbol
func WithQuoteAsset(quote string) Option {
	return func(s *Service) {
		s.quote = quote
	}
}

// WithMetrics sets the collectors the service reports to
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}
