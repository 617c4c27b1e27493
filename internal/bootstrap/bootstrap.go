// Package bootstrap builds the Brain and its backing store from config.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/augur/internal/config"
	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/llm"
	"github.com/Harshitk-cp/augur/internal/service"
	"github.com/Harshitk-cp/augur/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Runtime is a fully wired brain plus the resources it owns.
type Runtime struct {
	Brain   *service.Brain
	Store   domain.KVStore
	Gateway *llm.Gateway
	// Expirer is nil when the backend expires keys itself.
	Expirer *service.ExpirerService

	closers []func()
}

// Close releases the store connections.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// NewLogger builds a production zap logger at the configured level.
func NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.LogLevel())
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// New opens the configured store, initialises the gateway and builds the
// brain. config.Load must have run.
func New(ctx context.Context, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{}

	kv, closeStore, err := OpenStore(ctx, logger)
	if err != nil {
		return nil, err
	}
	rt.Store = kv
	rt.closers = append(rt.closers, closeStore)

	gw, err := llm.NewGateway(ctx, GatewayConfig(), logger.Named("llm"))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init llm gateway: %w", err)
	}
	rt.Gateway = gw

	rt.Brain = service.NewBrain(gw, kv, config.Tuning(), logger.Named("brain"))

	if config.TagIndexEnabled() {
		if err := rt.Brain.Knowledge.EnableTagIndex(ctx); err != nil {
			logger.Warn("tag index disabled", zap.Error(err))
		}
	}

	if sw, ok := kv.(domain.Sweeper); ok {
		rt.Expirer = service.NewExpirerService(sw, logger.Named("expirer"))
		rt.Expirer.SetInterval(config.SweepInterval())
	}
	return rt, nil
}

// OpenStore connects to the backend named by STORE_BACKEND. The returned
// func closes its connections.
func OpenStore(ctx context.Context, logger *zap.Logger) (domain.KVStore, func(), error) {
	noop := func() {}
	backend := config.StoreBackend()
	switch backend {
	case "memory":
		logger.Warn("using in-process memory store, knowledge is lost on restart")
		return store.NewMemoryKV(), noop, nil

	case "redis":
		kv, err := store.NewRedisKV(ctx, store.RedisConfig{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
			DB:       config.RedisDB(),
		})
		if err != nil {
			return nil, noop, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to redis", zap.String("addr", config.RedisAddr()))
		return kv, func() { _ = kv.Close() }, nil

	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			return nil, noop, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping database: %w", err)
		}
		kv := store.NewPostgresKV(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ensure knowledge schema: %w", err)
		}
		logger.Info("connected to database")
		return kv, pool.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown STORE_BACKEND %q", backend)
}

// GatewayConfig maps the environment onto the gateway's settings.
func GatewayConfig() llm.Config {
	return llm.Config{
		Order: config.LLMProviderOrder(),
		Settings: llm.Settings{
			OpenAIAPIKey:    config.OpenAIAPIKey(),
			OpenAIModel:     config.OpenAIModel(),
			AnthropicAPIKey: config.AnthropicAPIKey(),
			AnthropicModel:  config.AnthropicModel(),
			GeminiAPIKey:    config.GeminiAPIKey(),
			GeminiModel:     config.GeminiModel(),
			CerebrasAPIKey:  config.CerebrasAPIKey(),
			CerebrasModel:   config.CerebrasModel(),
			LMStudioEnabled: config.LMStudioEnabled(),
			LMStudioBaseURL: config.LMStudioBaseURL(),
			LMStudioModel:   config.LMStudioModel(),
			OllamaEnabled:   config.OllamaEnabled(),
			OllamaAPIURL:    config.OllamaAPIURL(),
			OllamaModel:     config.OllamaModel(),
			Timeout:         config.LLMTimeout(),
		},
		RateLimitRPS:   config.LLMRateLimitRPS(),
		RateLimitBurst: config.LLMRateLimitBurst(),
	}
}
