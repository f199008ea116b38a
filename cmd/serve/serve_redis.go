package serve

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sig-0/feemeta/cmd/env"
	"github.com/sig-0/feemeta/storage/redis"
)

type serveRedisCfg struct {
	rootCfg *serveCfg

	keyPrefix string
}

// newServeRedisCmd creates the serve redis command
func newServeRedisCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveRedisCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("redis", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	fs.StringVar(
		&cfg.keyPrefix,
		"key-prefix",
		redis.DefaultKeyPrefix,
		"the namespace of the metadata keys",
	)

	return &ffcli.Command{
		Name:       "redis",
		ShortUsage: "serve redis [flags]",
		LongHelp:   "Serves the metadata API, caching the metadata in Redis",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveRedisCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := c.rootCfg.serverConfig()
	if err != nil {
		return err
	}

	logger := newLogger()

	url := os.Getenv(env.Prefix + env.RedisURLSuffix)
	if url == "" {
		return fmt.Errorf("missing %s", env.Prefix+env.RedisURLSuffix)
	}

	opts, err := goredis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	defer func() {
		if err := client.Close(); err != nil {
			logger.Error(
				"unable to gracefully close Redis connection",
				"err", err,
			)
		}
	}()

	// Check Redis reachability
	pingCtx, cancelPing := context.WithTimeout(ctx, time.Second*5)
	defer cancelPing()

	if err = client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("unable to reach Redis (ping): %w", err)
	}

	logger.Info("Redis ping success")

	store := redis.NewStorage(client, redis.WithKeyPrefix(c.keyPrefix))

	return c.rootCfg.run(ctx, cfg, store, logger)
}
