package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "studio-server",
	Short: "Voice synthesis and audio library API server",
	Long: `VoiceStudio is an HTTP front-end for a text-to-speech provider. It
validates synthesis requests, manages per-caller voice catalogs,
flattens multi-speaker scripts, and keeps every generated clip in a
searchable audio library.

Start the server:
  studio-server

Start with custom settings:
  studio-server --listen 0.0.0.0:8080 --provider http://localhost:8081

Use environment variables:
  STUDIO_LISTEN=0.0.0.0:8080 STUDIO_PROVIDER=http://localhost:8081 studio-server`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("studio-server %s\n", Version)
		fmt.Printf("  Commit:     %s\n", Commit)
		fmt.Printf("  Build Date: %s\n", BuildDate)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.Flags().String("listen", "0.0.0.0:8080", "Server listen address")
	rootCmd.Flags().Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	rootCmd.Flags().Duration("write-timeout", 120*time.Second, "HTTP write timeout")

	rootCmd.Flags().String("provider", "http://127.0.0.1:8081", "Synthesis provider URL")
	rootCmd.Flags().Duration("provider-timeout", 60*time.Second, "Provider request timeout")

	rootCmd.Flags().String("database-dsn", "", "Postgres DSN for the asset library")
	rootCmd.Flags().String("redis-addr", "", "Redis address for voice catalogs (empty = in-process)")
	rootCmd.Flags().String("audio-dir", "./data/audio", "Directory for stored audio files")
	rootCmd.Flags().Int("max-concurrent", 4, "Maximum concurrent synthesis calls")

	rootCmd.Flags().String("api-key", "", "API key for authentication (empty = no auth)")

	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "json", "Log format (json, text)")

	bindFlags()

	rootCmd.AddCommand(versionCmd)
}

func bindFlags() {
	bindings := []struct {
		key  string
		flag string
	}{
		{"server.listen", "listen"},
		{"server.read_timeout", "read-timeout"},
		{"server.write_timeout", "write-timeout"},
		{"provider.url", "provider"},
		{"provider.timeout", "provider-timeout"},
		{"database.dsn", "database-dsn"},
		{"redis.addr", "redis-addr"},
		{"storage.audio_dir", "audio-dir"},
		{"synthesis.max_concurrent", "max-concurrent"},
		{"auth.api_key", "api-key"},
		{"logging.level", "log-level"},
		{"logging.format", "log-format"},
	}

	for _, b := range bindings {
		flag := rootCmd.Flags().Lookup(b.flag)
		if flag == nil {
			continue
		}
		_ = viper.BindPFlag(b.key, flag)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STUDIO")
	viper.AutomaticEnv()

	viper.BindEnv("server.listen", "STUDIO_LISTEN")
	viper.BindEnv("provider.url", "STUDIO_PROVIDER")
	viper.BindEnv("provider.timeout", "STUDIO_PROVIDER_TIMEOUT")
	viper.BindEnv("database.dsn", "STUDIO_DATABASE_DSN")
	viper.BindEnv("redis.addr", "STUDIO_REDIS_ADDR")
	viper.BindEnv("storage.audio_dir", "STUDIO_AUDIO_DIR")
	viper.BindEnv("synthesis.max_concurrent", "STUDIO_MAX_CONCURRENT")
	viper.BindEnv("auth.api_key", "STUDIO_API_KEY")
	viper.BindEnv("logging.level", "STUDIO_LOG_LEVEL")
	viper.BindEnv("logging.format", "STUDIO_LOG_FORMAT")

	viper.SetDefault("server.listen", "0.0.0.0:8080")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 120*time.Second)
	viper.SetDefault("provider.url", "http://127.0.0.1:8081")
	viper.SetDefault("provider.timeout", 60*time.Second)
	viper.SetDefault("provider.max_connections", 100)
	viper.SetDefault("database.dsn", "host=127.0.0.1 user=voicestudio dbname=voicestudio sslmode=disable")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.key_prefix", "voicestudio")
	viper.SetDefault("storage.audio_dir", "./data/audio")
	viper.SetDefault("synthesis.max_concurrent", 4)
	viper.SetDefault("auth.api_key", "")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	bindFlags()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
