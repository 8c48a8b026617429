package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mgaultier/marks/internal/config"
	"github.com/mgaultier/marks/internal/gateway"
	"github.com/mgaultier/marks/internal/httpserver"
	"github.com/mgaultier/marks/internal/httpserver/deps"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/redis"
	"github.com/mgaultier/marks/internal/scheduler"
	"github.com/mgaultier/marks/internal/session"
	redisstore "github.com/mgaultier/marks/internal/store/redis"
	"github.com/mgaultier/marks/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisHolder  *session.Holder[*goredis.Client]
	seedReloader *scheduler.SeedReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// The shared Redis client lives in a holder: one process-wide
	// instance, torn down through Reset on shutdown.
	redisHolder := session.NewHolder(
		func() (*goredis.Client, error) {
			return redis.New(redis.ConnectOptions{
				Addr:           cfg.RedisAddr,
				User:           cfg.RedisUser,
				Password:       cfg.RedisPassword,
				RedisDB:        cfg.RedisDB,
				DialTimeout:    cfg.RedisDT,
				ReadTimeout:    cfg.RedisRT,
				WriteTimeout:   cfg.RedisWT,
				PoolSize:       cfg.RedisPoolSize,
				ConnectTimeout: cfg.RedisConnectTimeout,
				RetryInterval:  cfg.RedisRetryInterval,
				MaxWait:        cfg.RedisMaxWait,
				PingTimeout:    cfg.RedisPingTimeout,
				WarnThreshold:  cfg.RedisWarnThreshold,
			}, loggerClient)
		},
		func(c *goredis.Client) error { return c.Close() },
	)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redisHolder.Get()
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)
	gw := gateway.New(store, loggerClient)
	verifier := session.NewTokenVerifier(cfg.TokenSecret)

	// Initialize seed reloader (if a seed file is configured)
	var seedReloader *scheduler.SeedReloader
	var seedReloadTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed reloader",
			logger.String("file", cfg.SeedFile),
			logger.String("owner", cfg.SeedOwner))
		seedReloadTrigger = make(chan struct{}, 1)
		seedReloader = scheduler.NewSeedReloader(
			cfg.SeedFile,
			store,
			cfg.SeedOwner,
			loggerClient,
			cfg.ReloadInterval,
			seedReloadTrigger,
		)
	} else {
		loggerClient.Info("seed file not configured, seed import disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		RedisClient:       redisClient,
		Store:             store,
		Gateway:           gw,
		Verifier:          verifier,
		ListCacheTTL:      cfg.ListCacheTTL,
		SeedReloadTrigger: seedReloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisHolder:  redisHolder,
		seedReloader: seedReloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Marks v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Marks %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start seed reloader (imports the seed file and starts periodic refresh)
	if a.seedReloader != nil {
		if err := a.seedReloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.seedReloader != nil {
		a.seedReloader.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.redisHolder.Reset(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}

	a.logger.Info("✅ Marks stopped cleanly")
	return nil
}
