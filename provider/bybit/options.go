package bybit

import "time"

type Option func(p *Provider)

// WithBaseURL specifies the Bybit API base URL.
// Defaults to https://api.bybit.com
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithClock specifies the clock used for request timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// WithRequestsPerSecond limits the request rate towards the exchange
func WithRequestsPerSecond(rps float64) Option {
	return func(p *Provider) {
		p.rps = rps
	}
}
