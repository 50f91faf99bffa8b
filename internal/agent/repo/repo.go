package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/grocer-core-poc/server/internal/agent/model"
	logx "github.com/grocer-core-poc/server/pkg/logger"
	pkgredis "github.com/grocer-core-poc/server/pkg/redis"
)

// Checkpoint backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
)

// Open builds the checkpoint repository selected by cfg. The returned close
// function is never nil. BackendNone yields a nil repository.
func Open(ctx context.Context, cfg model.ConversationConfig, redisCfg pkgredis.Config) (model.ConversationRepository, func() error, error) {
	noop := func() error { return nil }

	switch backend := strings.ToLower(strings.TrimSpace(cfg.Checkpoint.Backend)); backend {
	case BackendNone, "":
		return nil, noop, nil
	case BackendMemory:
		return NewMemoryConversationRepository(cfg.TTL), noop, nil
	case BackendRedis:
		rdb, err := redisCfg.New(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		logx.Info().Msg("Redis checkpoint repository connected")
		return NewRedisConversationRepository(rdb, cfg.TTL), rdb.Close, nil
	case BackendBolt:
		r, err := OpenBolt(cfg.Checkpoint.BoltPath, cfg.TTL)
		if err != nil {
			return nil, noop, err
		}
		logx.Info().Str("path", cfg.Checkpoint.BoltPath).Msg("Bolt checkpoint repository opened")
		return r, r.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown checkpoint backend %q", backend)
	}
}
