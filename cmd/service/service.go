// Package service wires the metadata service from the CLI flags
// and the server configuration
package service

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/sig-0/feemeta/exchange"
	"github.com/sig-0/feemeta/metadata"
	"github.com/sig-0/feemeta/network"
	"github.com/sig-0/feemeta/provider/binance"
	"github.com/sig-0/feemeta/provider/bybit"
	"github.com/sig-0/feemeta/server/config"
	"github.com/sig-0/feemeta/storage"
)

// Flags are the metadata service flags, shared by the commands
type Flags struct {
	ConfigPath string

	BinanceAPIKey    string
	BinanceAPISecret string
	BybitAPIKey      string
	BybitAPISecret   string
}

func (f *Flags) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&f.ConfigPath,
		"config",
		"",
		"the path to the TOML configuration, if any",
	)

	fs.StringVar(
		&f.BinanceAPIKey,
		"binance-api-key",
		"",
		"the Binance API key, for the signed endpoints",
	)

	fs.StringVar(
		&f.BinanceAPISecret,
		"binance-api-secret",
		"",
		"the Binance API secret, for the signed endpoints",
	)

	fs.StringVar(
		&f.BybitAPIKey,
		"bybit-api-key",
		"",
		"the Bybit API key, for the signed endpoints",
	)

	fs.StringVar(
		&f.BybitAPISecret,
		"bybit-api-secret",
		"",
		"the Bybit API secret, for the signed endpoints",
	)
}

// Config reads the configuration from the config path, if any,
// falling back to the defaults
func (f *Flags) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()

	if f.ConfigPath != "" {
		read, err := config.Read(f.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}

		cfg = read
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	return cfg, nil
}

// Adapters creates the exchange adapters, in table order
func (f *Flags) Adapters(cfg *config.Metadata, logger *slog.Logger) []exchange.Adapter {
	var (
		binanceCredentials = exchange.Credentials{
			APIKey:    f.BinanceAPIKey,
			APISecret: f.BinanceAPISecret,
		}

		bybitCredentials = exchange.Credentials{
			APIKey:    f.BybitAPIKey,
			APISecret: f.BybitAPISecret,
		}
	)

	// Withdrawal networks and fee rates are only served to signed requests
	if binanceCredentials.Empty() {
		logger.Warn("missing Binance API credentials, signed calls will be rejected")
	}

	if bybitCredentials.Empty() {
		logger.Warn("missing Bybit API credentials, signed calls will be rejected")
	}

	var (
		binanceProvider = binance.NewProvider(
			binanceCredentials,
			cfg.RequestTimeout(),
			binance.WithRequestsPerSecond(cfg.RequestsPerSecond),
		)

		bybitProvider = bybit.NewProvider(
			bybitCredentials,
			cfg.RequestTimeout(),
			bybit.WithRequestsPerSecond(cfg.RequestsPerSecond),
		)
	)

	return []exchange.Adapter{
		binanceProvider,
		bybitProvider,
	}
}

// New creates the metadata service over the given storage
func New(
	store storage.Storage,
	adapters []exchange.Adapter,
	cfg *config.Metadata,
	logger *slog.Logger,
	opts ...metadata.Option,
) (*metadata.Service, error) {
	reference, err := loadReference(cfg.ReferencePath)
	if err != nil {
		return nil, err
	}

	logger.Info(
		"loaded reliability reference",
		"networks", len(reference),
	)

	opts = append(
		[]metadata.Option{
			metadata.WithLogger(logger),
			metadata.WithReference(reference),
			metadata.WithThreshold(cfg.Threshold()),
			metadata.WithMaxAge(cfg.MaxAge()),
			metadata.WithQuoteAsset(cfg.QuoteAsset),
		},
		opts...,
	)

	service, err := metadata.New(store, adapters, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create metadata service, %w", err)
	}

	return service, nil
}

// loadReference loads the reliability reference from the path,
// or the embedded one if the path is empty
func loadReference(path string) (network.Reference, error) {
	if path == "" {
		return network.DefaultReference()
	}

	reference, err := network.LoadReference(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load reliability reference, %w", err)
	}

	return reference, nil
}
