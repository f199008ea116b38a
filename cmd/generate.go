package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/feemeta/cmd/env"
	"github.com/sig-0/feemeta/cmd/service"
	"github.com/sig-0/feemeta/storage/file"
	"github.com/sig-0/feemeta/storage/types"
)

// generateCfg wraps the generate configuration
type generateCfg struct {
	service.Flags

	cacheDir   string
	outputPath string
	force      bool
}

// newGenerateCmd creates the generate command
func newGenerateCmd() *ffcli.Command {
	cfg := &generateCfg{}

	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "generate",
		ShortUsage: "generate [flags]",
		LongHelp:   "Prints the metadata table as CSV, regenerating the cached table if it's stale",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *generateCfg) registerFlags(fs *flag.FlagSet) {
	c.RegisterFlags(fs)

	fs.StringVar(
		&c.cacheDir,
		"cache-dir",
		".",
		"the directory holding the metadata table and timestamp files",
	)

	fs.StringVar(
		&c.outputPath,
		"output",
		"",
		"the path of the output CSV, defaults to stdout",
	)

	fs.BoolVar(
		&c.force,
		"force",
		false,
		"regenerate the metadata, even if the cache is fresh",
	)
}

func (c *generateCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}

	// Keep stdout for the table
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	metadataService, err := service.New(
		file.NewStorage(c.cacheDir),
		c.Adapters(cfg.Metadata, logger),
		cfg.Metadata,
		logger,
	)
	if err != nil {
		return err
	}

	var table *types.Table

	if c.force {
		snapshot, err := metadataService.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("unable to generate metadata: %w", err)
		}

		table = snapshot.Table
	} else {
		if table, err = metadataService.Get(ctx); err != nil {
			return fmt.Errorf("unable to fetch metadata: %w", err)
		}
	}

	if c.outputPath == "" {
		return writeTable(os.Stdout, table)
	}

	f, err := os.Create(c.outputPath)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}

	if err = writeTable(f, table); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}

// writeTable writes the table as CSV
func writeTable(w io.Writer, table *types.Table) error {
	bw := bufio.NewWriter(w)

	if err := file.EncodeTable(bw, table); err != nil {
		return fmt.Errorf("unable to write table: %w", err)
	}

	return bw.Flush()
}
