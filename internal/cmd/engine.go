package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-inspector/internal/config"
	"github.com/certwatch-app/cw-inspector/internal/inspector"
	"github.com/certwatch-app/cw-inspector/internal/logging"
	"github.com/certwatch-app/cw-inspector/internal/storage"
	"github.com/certwatch-app/cw-inspector/internal/version"
)

// engine bundles the assembled inspector with the resources it owns
type engine struct {
	assembler *inspector.Assembler
	logger    *zap.Logger
	closers   []func() error
}

// newEngine wires the inspector components described by cfg
func newEngine(cfg *config.Config) (*engine, error) {
	logger := logging.New(cfg.LogLevel)
	e := &engine{logger: logger}

	cache, err := e.newCache(cfg)
	if err != nil {
		return nil, err
	}

	dial := cfg.DialConfig()
	retriever := inspector.NewRetriever(dial, cache, logger.Named("retriever"))
	analyzer := inspector.NewAnalyzer(dial, logger.Named("cipher"))

	var correlator *inspector.Correlator
	if cfg.Transparency.Enabled {
		correlator = inspector.NewCorrelator(cfg.CorrelatorConfig(version.UserAgent()), logger.Named("ct"))
	}

	e.assembler = inspector.NewAssembler(retriever, analyzer, correlator, logger,
		inspector.WithConcurrency(cfg.Inspector.Concurrency),
	)

	logger.Debug("inspector ready",
		zap.Int("port", cfg.Inspector.Port),
		zap.Bool("verify_chain", cfg.Inspector.VerifyChain),
		zap.Bool("transparency", cfg.Transparency.Enabled),
		zap.String("cache", cfg.Cache.Backend),
	)

	return e, nil
}

func (e *engine) newCache(cfg *config.Config) (inspector.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc := storage.NewRedisCache(storage.Options{
			Addr:      cfg.Cache.RedisAddr,
			KeyPrefix: cfg.Cache.KeyPrefix,
			TTL:       cfg.Cache.TTL,
			DB:        cfg.Cache.RedisDB,
		}, e.logger.Named("cache"))

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			// lookups degrade to misses until redis comes back
			e.logger.Warn("redis cache unavailable", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}

		e.closers = append(e.closers, rc.Close)
		return rc, nil
	case config.CacheMemory:
		return inspector.NewMemoryCache(cfg.Cache.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Close releases the cache connection and flushes the logger
func (e *engine) Close() {
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			e.logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	//nolint:errcheck // stderr sync fails on some terminals
	e.logger.Sync()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
