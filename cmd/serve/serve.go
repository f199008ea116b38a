package serve

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/feemeta/cmd/env"
	"github.com/sig-0/feemeta/cmd/service"
	"github.com/sig-0/feemeta/server/config"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	service.Flags

	listenAddress string
	warmup        bool
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the exchange metadata API",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeFileCmd(cfg),
		newServeMemoryCmd(cfg),
		newServeSQLCmd(cfg),
		newServeRedisCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	c.RegisterFlags(fs)

	fs.StringVar(
		&c.listenAddress,
		"listen",
		"",
		"the IP:PORT URL for the server, overrides the configuration",
	)

	fs.BoolVar(
		&c.warmup,
		"warmup",
		true,
		"generate the metadata on startup, if the cache is stale",
	)
}

// serverConfig reads the server configuration, applying the flag overrides
func (c *serveCfg) serverConfig() (*config.Config, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}

	if c.listenAddress != "" {
		cfg.ListenAddress = c.listenAddress

		if err = config.ValidateConfig(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
