package config

import (
	"errors"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
)

const DefaultListenAddress = "0.0.0.0:8545"

// Metadata defaults
const (
	DefaultReliabilityThreshold  = 70.0
	DefaultMaxAgeSeconds         = 3600
	DefaultRequestTimeoutSeconds = 30
	DefaultRequestsPerSecond     = 5.0
	DefaultQuoteAsset            = "USDT"
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidThreshold     = errors.New("invalid reliability threshold")
	ErrInvalidMaxAge        = errors.New("invalid metadata max age")
	ErrInvalidTimeout       = errors.New("invalid request timeout")
	ErrInvalidRequestRate   = errors.New("invalid request rate")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level server configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The metadata generation config
	Metadata *Metadata `toml:"metadata"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`
}

// Metadata defines the metadata generation configuration
type Metadata struct {
	// Path to the reliability reference TOML.
	// The embedded reference is used if empty
	ReferencePath string `toml:"reference_path"`

	// Quote asset of the tracked trading symbols
	QuoteAsset string `toml:"quote_asset"`

	// The score a network needs to exceed to be selected, 0-100.
	// Unset means the default threshold, an explicit 0 is kept
	ReliabilityThreshold *float64 `toml:"reliability_threshold"`

	// Per-exchange request rate limit
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// Age after which the cached metadata is regenerated
	MaxAgeSeconds int64 `toml:"max_age_seconds"`

	// Timeout of a single exchange request
	RequestTimeoutSeconds int64 `toml:"request_timeout_seconds"`
}

// MaxAge returns the cache max age as a duration
func (m *Metadata) MaxAge() time.Duration {
	return time.Duration(m.MaxAgeSeconds) * time.Second
}

// Threshold returns the reliability threshold, or the default if unset
func (m *Metadata) Threshold() float64 {
	if m.ReliabilityThreshold == nil {
		return DefaultReliabilityThreshold
	}

	return *m.ReliabilityThreshold
}

// RequestTimeout returns the exchange request timeout as a duration
func (m *Metadata) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutSeconds) * time.Second
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		CORSConfig:    DefaultCORSConfig(),
		Metadata:      DefaultMetadataConfig(),
	}
}

// DefaultMetadataConfig returns the default metadata generation configuration
func DefaultMetadataConfig() *Metadata {
	threshold := DefaultReliabilityThreshold

	return &Metadata{
		QuoteAsset:            DefaultQuoteAsset,
		ReliabilityThreshold:  &threshold,
		RequestsPerSecond:     DefaultRequestsPerSecond,
		MaxAgeSeconds:         DefaultMaxAgeSeconds,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
	}
}

// ValidateConfig validates the server configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if config.Metadata == nil {
		return nil
	}

	return ValidateMetadata(config.Metadata)
}

// ValidateMetadata validates the metadata generation configuration
func ValidateMetadata(m *Metadata) error {
	if threshold := m.Threshold(); threshold < 0 || threshold >= 100 {
		return ErrInvalidThreshold
	}

	if m.MaxAgeSeconds <= 0 {
		return ErrInvalidMaxAge
	}

	if m.RequestTimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}

	if m.RequestsPerSecond <= 0 {
		return ErrInvalidRequestRate
	}

	return nil
}

// Read reads the configuration from the given path.
// Missing sections and metadata fields are set to their defaults
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in the unset configuration values
func applyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if cfg.Metadata == nil {
		cfg.Metadata = DefaultMetadataConfig()

		return
	}

	defaults := DefaultMetadataConfig()

	if cfg.Metadata.QuoteAsset == "" {
		cfg.Metadata.QuoteAsset = defaults.QuoteAsset
	}

	if cfg.Metadata.ReliabilityThreshold == nil {
		cfg.Metadata.ReliabilityThreshold = defaults.ReliabilityThreshold
	}

	if cfg.Metadata.RequestsPerSecond == 0 {
		cfg.Metadata.RequestsPerSecond = defaults.RequestsPerSecond
	}

	if cfg.Metadata.MaxAgeSeconds == 0 {
		cfg.Metadata.MaxAgeSeconds = defaults.MaxAgeSeconds
	}

	if cfg.Metadata.RequestTimeoutSeconds == 0 {
		cfg.Metadata.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
}
