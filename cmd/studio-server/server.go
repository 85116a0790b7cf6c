package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voicestudio/voicestudio/internal/api"
	"github.com/voicestudio/voicestudio/internal/config"
	"github.com/voicestudio/voicestudio/internal/library"
	"github.com/voicestudio/voicestudio/internal/provider"
	"github.com/voicestudio/voicestudio/internal/queue"
	"github.com/voicestudio/voicestudio/internal/voices"
)

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("listen", cfg.Server.Listen).
		Str("provider", cfg.Provider.URL).
		Str("log_level", cfg.Logging.Level).
		Msg("Starting VoiceStudio server")

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	meta, err := library.NewGormStore(db)
	if err != nil {
		return fmt.Errorf("failed to prepare metadata store: %w", err)
	}

	blobs, err := library.NewDiskStore(cfg.Storage.AudioDir)
	if err != nil {
		return fmt.Errorf("failed to prepare audio storage: %w", err)
	}
	lib := library.NewService(blobs, meta, logger)

	var catalogStore voices.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		catalogStore = voices.NewRedisStore(client, cfg.Redis.KeyPrefix)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Voice catalogs stored in Redis")
	} else {
		catalogStore = voices.NewMemoryStore()
		logger.Info().Msg("Voice catalogs stored in process memory")
	}
	catalog := voices.NewCatalog(catalogStore)

	providerClient := provider.NewHTTPClient(&cfg.Provider)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := providerClient.Health(ctx); err != nil {
		logger.Warn().Err(err).Msg("Provider health check failed - server will start but synthesis may not work")
	} else {
		logger.Info().Str("provider", cfg.Provider.URL).Msg("Provider connection verified")
	}
	cancel()

	pool := queue.NewPool(queue.Config{
		Workers:    cfg.Synthesis.MaxConcurrent,
		MaxWaiting: cfg.Synthesis.MaxConcurrent,
	})

	router := api.NewRouter(cfg, providerClient, catalog, lib, pool, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Listen).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("synthesis pool shutdown error: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	defaults := config.Default()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Listen:       viper.GetString("server.listen"),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
		},
		Provider: config.ProviderConfig{
			URL:            viper.GetString("provider.url"),
			Timeout:        viper.GetDuration("provider.timeout"),
			MaxConnections: viper.GetInt("provider.max_connections"),
		},
		Database: config.DatabaseConfig{
			DSN: viper.GetString("database.dsn"),
		},
		Redis: config.RedisConfig{
			Addr:      viper.GetString("redis.addr"),
			Password:  viper.GetString("redis.password"),
			DB:        viper.GetInt("redis.db"),
			KeyPrefix: viper.GetString("redis.key_prefix"),
		},
		Storage: config.StorageConfig{
			AudioDir: viper.GetString("storage.audio_dir"),
		},
		Synthesis: config.SynthesisConfig{
			MaxConcurrent: viper.GetInt("synthesis.max_concurrent"),
		},
		Auth: config.AuthConfig{
			APIKey: viper.GetString("auth.api_key"),
		},
		Logging: config.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	if env := os.Getenv("STUDIO_LISTEN"); env != "" {
		cfg.Server.Listen = env
	}
	if env := os.Getenv("STUDIO_READ_TIMEOUT"); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if env := os.Getenv("STUDIO_WRITE_TIMEOUT"); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if env := os.Getenv("STUDIO_PROVIDER"); env != "" {
		cfg.Provider.URL = env
	}
	if env := os.Getenv("STUDIO_PROVIDER_TIMEOUT"); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			cfg.Provider.Timeout = d
		}
	}
	if env := os.Getenv("STUDIO_DATABASE_DSN"); env != "" {
		cfg.Database.DSN = env
	}
	if env := os.Getenv("STUDIO_REDIS_ADDR"); env != "" {
		cfg.Redis.Addr = env
	}
	if env := os.Getenv("STUDIO_AUDIO_DIR"); env != "" {
		cfg.Storage.AudioDir = env
	}
	if env := os.Getenv("STUDIO_MAX_CONCURRENT"); env != "" {
		if n, err := strconv.Atoi(env); err == nil {
			cfg.Synthesis.MaxConcurrent = n
		}
	}
	if env := os.Getenv("STUDIO_API_KEY"); env != "" {
		cfg.Auth.APIKey = env
	}
	if env := os.Getenv("STUDIO_LOG_LEVEL"); env != "" {
		cfg.Logging.Level = env
	}
	if env := os.Getenv("STUDIO_LOG_FORMAT"); env != "" {
		cfg.Logging.Format = env
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaults.Server.Listen
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if cfg.Provider.URL == "" {
		cfg.Provider.URL = defaults.Provider.URL
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = defaults.Provider.Timeout
	}
	if cfg.Provider.MaxConnections == 0 {
		cfg.Provider.MaxConnections = defaults.Provider.MaxConnections
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = defaults.Database.DSN
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = defaults.Redis.KeyPrefix
	}
	if cfg.Storage.AudioDir == "" {
		cfg.Storage.AudioDir = defaults.Storage.AudioDir
	}
	if cfg.Synthesis.MaxConcurrent == 0 {
		cfg.Synthesis.MaxConcurrent = defaults.Synthesis.MaxConcurrent
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}

	if cmd != nil {
		if flag := cmd.Flags().Lookup("listen"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("listen"); err == nil && v != "" {
				cfg.Server.Listen = v
			}
		}
		if flag := cmd.Flags().Lookup("read-timeout"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetDuration("read-timeout"); err == nil && v != 0 {
				cfg.Server.ReadTimeout = v
			}
		}
		if flag := cmd.Flags().Lookup("write-timeout"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetDuration("write-timeout"); err == nil && v != 0 {
				cfg.Server.WriteTimeout = v
			}
		}
		if flag := cmd.Flags().Lookup("provider"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("provider"); err == nil && v != "" {
				cfg.Provider.URL = v
			}
		}
		if flag := cmd.Flags().Lookup("provider-timeout"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetDuration("provider-timeout"); err == nil && v != 0 {
				cfg.Provider.Timeout = v
			}
		}
		if flag := cmd.Flags().Lookup("database-dsn"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("database-dsn"); err == nil && v != "" {
				cfg.Database.DSN = v
			}
		}
		if flag := cmd.Flags().Lookup("redis-addr"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("redis-addr"); err == nil {
				cfg.Redis.Addr = v
			}
		}
		if flag := cmd.Flags().Lookup("audio-dir"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("audio-dir"); err == nil && v != "" {
				cfg.Storage.AudioDir = v
			}
		}
		if flag := cmd.Flags().Lookup("max-concurrent"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetInt("max-concurrent"); err == nil && v > 0 {
				cfg.Synthesis.MaxConcurrent = v
			}
		}
		if flag := cmd.Flags().Lookup("api-key"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("api-key"); err == nil {
				cfg.Auth.APIKey = v
			}
		}
		if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("log-level"); err == nil && v != "" {
				cfg.Logging.Level = v
			}
		}
		if flag := cmd.Flags().Lookup("log-format"); flag != nil && flag.Changed {
			if v, err := cmd.Flags().GetString("log-format"); err == nil && v != "" {
				cfg.Logging.Format = v
			}
		}
	}

	return cfg, nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
