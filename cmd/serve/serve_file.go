package serve

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/feemeta/cmd/env"
	"github.com/sig-0/feemeta/storage/file"
)

// DefaultCacheDir is the default metadata cache directory
const DefaultCacheDir = "."

type serveFileCfg struct {
	rootCfg *serveCfg

	cacheDir string
}

// newServeFileCmd creates the serve file command
func newServeFileCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveFileCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("file", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	fs.StringVar(
		&cfg.cacheDir,
		"cache-dir",
		DefaultCacheDir,
		"the directory holding the metadata table and timestamp files",
	)

	return &ffcli.Command{
		Name:       "file",
		ShortUsage: "serve file [flags]",
		LongHelp:   "Serves the metadata API, caching the metadata in CSV files",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveFileCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := c.rootCfg.serverConfig()
	if err != nil {
		return err
	}

	logger := newLogger()

	logger.Info(
		"using file metadata cache",
		"dir", c.cacheDir,
	)

	return c.rootCfg.run(ctx, cfg, file.NewStorage(c.cacheDir), logger)
}
