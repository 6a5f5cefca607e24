// Package cli wires configuration into providers, stores and the command
// entry points.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/gemini"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/static"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
)

// EchoPrefix prefixes answers of the offline echo driver.
const EchoPrefix = "You asked: "

// NewLogger builds the process logger. Debug forces the debug level.
func NewLogger(cfg config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, &domain.ConfigurationError{Key: "log.level", Reason: err.Error()}
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(os.Stderr, level, cfg.Format), nil
}

// NewProvider creates the answer provider selected by provider.driver.
func NewProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.AnswerProvider, error) {
	opts := []gemini.Option{
		gemini.WithModel(cfg.Provider.Model),
		gemini.WithBaseURL(cfg.Provider.BaseURL),
		gemini.WithLogger(logger),
	}
	if cfg.Provider.Temperature != nil {
		opts = append(opts, gemini.WithTemperature(*cfg.Provider.Temperature))
	}

	switch cfg.Provider.Driver {
	case config.DriverEcho:
		return static.NewEcho(EchoPrefix), nil
	case config.DriverGenAI:
		client, err := gemini.NewSDKClient(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		return client, nil
	case config.DriverREST, "":
		return gemini.NewClient(cfg.APIKey, opts...), nil
	default:
		return nil, &domain.ConfigurationError{Key: "provider.driver", Reason: fmt.Sprintf("unknown driver %q", cfg.Provider.Driver)}
	}
}

// NewEngine creates the engine with debug logging hooks plus any extra hooks.
func NewEngine(provider ports.AnswerProvider, cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*parley.Engine, error) {
	hooks = append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)
	return parley.New(provider,
		parley.WithLogger(logger),
		parley.WithRequestTimeout(cfg.Provider.Timeout),
		parley.WithPromptMessage(cfg.Prompt),
		parley.WithLifecycleHooks(hooks...),
	)
}

// Backend bundles the session store with its optional distributed locker.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker

	close func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// PersistentStore swaps the memory driver for the file store. Commands that
// reopen sessions saved by an earlier process use it, since the memory store
// forgets everything on exit.
func PersistentStore(cfg config.StoreConfig) config.StoreConfig {
	if cfg.Driver == config.StoreMemory || cfg.Driver == "" {
		cfg.Driver = config.StoreFile
	}
	return cfg
}

// NewBackend creates the store selected by store.driver. The redis store is
// pinged so a bad address fails at startup. Redaction and encryption wrap the
// store when configured.
func NewBackend(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	var backend *Backend
	switch cfg.Driver {
	case config.StoreMemory, "":
		backend = &Backend{Store: memory.NewStore()}
	case config.StoreFile:
		backend = &Backend{Store: file.New(cfg.Dir)}
	case config.StoreRedis:
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.Prefix),
			redis.WithTTL(cfg.TTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		backend = &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), store.Prefix()),
			close:  store.Close,
		}
	default:
		return nil, &domain.ConfigurationError{Key: "store.driver", Reason: fmt.Sprintf("unknown driver %q", cfg.Driver)}
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	backend.Store = middleware.Chain(backend.Store, mws...)
	return backend, nil
}

func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.RedactPatterns) > 0 {
		redact, err := middleware.NewRedactionMiddleware(cfg.RedactPatterns)
		if err != nil {
			return nil, &domain.ConfigurationError{Key: "store.redact_patterns", Reason: err.Error()}
		}
		mws = append(mws, redact)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, &domain.ConfigurationError{Key: "store.encryption_key", Reason: err.Error()}
		}
		mws = append(mws, seal)
	}
	return mws, nil
}
