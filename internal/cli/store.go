package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/steprelay/internal/adapters/file"
	"github.com/aretw0/steprelay/internal/adapters/redis"
	"github.com/aretw0/steprelay/internal/config"
	"github.com/aretw0/steprelay/pkg/adapters/memory"
	"github.com/aretw0/steprelay/pkg/persistence/middleware"
	"github.com/aretw0/steprelay/pkg/ports"
)

// OpenStore creates the trace store selected by cfg, wrapped with redaction
// and encryption when configured. The returned close func releases its
// connections.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (ports.TraceStore, func() error, error) {
	store, closeStore, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, closeStore, err
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(cfg.Redact))
	}
	keyText := cfg.EncryptionKey
	if keyText == "" {
		keyText = os.Getenv(config.EnvTraceKey)
	}
	if keyText != "" {
		key, err := middleware.ParseKey(keyText)
		if err != nil {
			_ = closeStore()
			return nil, func() error { return nil }, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
		logger.Debug("trace store: encryption enabled")
	}
	return middleware.Chain(store, mws...), closeStore, nil
}

func openBackend(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (ports.TraceStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(), noop, nil
	case config.BackendFile:
		logger.Debug("trace store: file", "path", cfg.Path)
		return file.New(cfg.Path), noop, nil
	case config.BackendRedis:
		store := redis.New(cfg.RedisAddr, "", 0,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.TTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, noop, fmt.Errorf("redis %s unavailable: %w", cfg.RedisAddr, err)
		}
		logger.Debug("trace store: redis", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return store, store.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
