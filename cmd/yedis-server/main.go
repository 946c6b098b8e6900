package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/infra/buildinfo"
	"github.com/yndnr/yedis-go/internal/infra/confloader"
	"github.com/yndnr/yedis-go/internal/infra/shutdown"
	"github.com/yndnr/yedis-go/internal/infra/tlsroots"
	"github.com/yndnr/yedis-go/internal/server/config"
	"github.com/yndnr/yedis-go/internal/server/httpserver"
	"github.com/yndnr/yedis-go/internal/server/redisserver"
	"github.com/yndnr/yedis-go/internal/storage"
	"github.com/yndnr/yedis-go/internal/telemetry/logger"
	"github.com/yndnr/yedis-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		envFile     = flag.String("env-file", "", "Path to a .env file loaded before the configuration")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("yedis-server " + buildinfo.String())
		return nil
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting yedis-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, slogLogger)
	started := false
	defer func() {
		// Release whatever started before a startup error.
		if !started {
			shutdownHandler.Trigger("startup failed")
			shutdownHandler.Wait()
		}
	}()

	// Hooks run in reverse order of registration, so each component is
	// registered right after it starts.
	engine, err := storage.Open(cfg.Storage.KVConfig(), slogLogger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return engine.Close()
	})

	metrics := metric.NewRegistry()
	if err := metrics.Registerer().Register(metric.NewCollector(engine)); err != nil {
		return fmt.Errorf("register storage collector: %w", err)
	}
	if be, ok := engine.(*storage.BadgerEngine); ok {
		be.RegisterMetrics(metrics.Registerer())
	}

	executor := service.NewExecutor(engine, &service.ExecutorConfig{
		LockStripes:   cfg.Storage.LockStripes,
		MaxValueSize:  cfg.Server.Redis.MaxValueSize,
		SweepInterval: cfg.Storage.SweepInterval,
		Logger:        slogLogger,
	})
	executor.Start()
	shutdownHandler.OnShutdown("executor", func(context.Context) error {
		executor.Stop()
		return nil
	})

	auth, err := service.NewAuthService(cfg.Security.RequirePass)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	redisCfg := redisConfig(&cfg.Server.Redis)
	if cfg.Server.Redis.TLSEnabled() {
		tlsConfig, certs, err := initTLS(&cfg.Server.Redis, slogLogger)
		if err != nil {
			return fmt.Errorf("init tls: %w", err)
		}
		certs.StartAsync()
		shutdownHandler.OnShutdown("certificate watcher", func(context.Context) error {
			certs.Stop()
			return nil
		})
		redisCfg.TLSConfig = tlsConfig
	}

	redisServer := redisserver.New(redisCfg, executor,
		redisserver.WithAuth(auth),
		redisserver.WithMetrics(metrics),
		redisserver.WithLogger(slogLogger),
	)
	if err := redisServer.Start(context.Background()); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}
	log.Info("redis server listening",
		"addr", redisServer.Addr().String(),
		"tls", redisCfg.TLSConfig != nil,
		"auth", auth.Required())
	shutdownHandler.OnShutdown("redis server", redisServer.Shutdown)

	if cfg.Server.Admin.Addr != "" {
		adminServer := httpserver.New(cfg.Server.Admin.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Storage:        engine,
			Connections:    redisServer,
			Metrics:        metrics,
			Logger:         slogLogger,
			AdminAllowList: cfg.Server.Admin.AllowList,
		}))
		errc := make(chan error, 1)
		if err := adminServer.Start(errc); err != nil {
			return fmt.Errorf("start admin server: %w", err)
		}
		go func() {
			if err := <-errc; err != nil {
				log.Error("admin server error", "error", err)
				shutdownHandler.Trigger("admin server failed")
			}
		}()
		log.Info("admin server listening", "addr", cfg.Server.Admin.Addr)
		shutdownHandler.OnShutdown("admin server", adminServer.Shutdown)
	}

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, slogLogger)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	started = true
	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

func redisConfig(c *config.RedisConfig) *redisserver.Config {
	return &redisserver.Config{
		Addr:           c.Addr,
		IdleTimeout:    c.IdleTimeout,
		WriteTimeout:   c.WriteTimeout,
		MaxConnections: c.MaxConnections,
		RateLimit:      c.RateLimit,
		RateLimitBurst: c.RateLimitBurst,
		MaxValueSize:   c.MaxValueSize,
		MaxInlineLen:   c.MaxInlineLen,
		MaxBufferSize:  c.MaxBufferSize,
	}
}

// initTLS loads the server key pair and the optional client CA bundle.
func initTLS(c *config.RedisConfig, log *slog.Logger) (*tls.Config, *tlsroots.Watcher, error) {
	certs, err := tlsroots.NewWatcher(c.TLSCertFile, c.TLSKeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	var clientCAs *tlsroots.Pool
	if c.TLSClientCAFile != "" {
		if clientCAs, err = tlsroots.LoadPool(c.TLSClientCAFile); err != nil {
			return nil, nil, fmt.Errorf("client ca: %w", err)
		}
	}
	return tlsroots.ServerTLSConfig(certs, clientCAs), certs, nil
}

// watchConfig reloads the config file on change. Only the log level is
// applied at runtime; other settings need a restart.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		if err := reloadLogLevel(path); err != nil {
			log.Error("config reload failed", "path", path, "error", err)
			return
		}
		log.Info("config reloaded", "path", path, "log_level", logger.GetLevel())
	})
	watcher.StartAsync()
	return watcher, nil
}

func reloadLogLevel(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	return logger.SetLevel(cfg.Log.Level)
}
