package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/leofalp/llmblanket/core/client"
	"github.com/leofalp/llmblanket/core/client/middleware"
	"github.com/leofalp/llmblanket/core/config"
	"github.com/leofalp/llmblanket/providers/observability/slogobs"
)

var rootCmd = &cobra.Command{
	Use:           "blanket",
	Short:         "One command line for many LLM providers",
	Long:          "blanket resolves a provider from the model name and sends prompts through the matching backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(viper.GetStringSlice("env_file")...)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("model", "m", "gpt-4o-mini", "Model name")
	flags.String("provider", "", "Provider override (inferred from the model if empty)")
	flags.String("api-key", "", "API key (defaults to the provider's environment variable)")
	flags.String("base-url", "", "Endpoint override")
	flags.StringP("config", "c", "", "YAML or JSON configuration file")
	flags.StringSlice("env-file", nil, "dotenv files to load (default .env)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error (empty disables logging)")
	flags.String("log-format", "compact", "Log format: compact or json")

	bindFlags(flags)
}

// bindFlags exposes every flag to viper under its snake_case name, so
// --api-key is also read from BLANKET_API_KEY.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		_ = viper.BindPFlag(strings.ReplaceAll(flag.Name, "-", "_"), flag)
	})
}

func initConfig() {
	viper.SetEnvPrefix("BLANKET")
	viper.AutomaticEnv()
}

// newClient builds a client from the bound flags, the optional configuration
// file and the BLANKET_* environment.
func newClient() (*client.Client, error) {
	var opts []client.Option

	if path := viper.GetString("config"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithConfig(cfg))
	}

	if provider := viper.GetString("provider"); provider != "" {
		opts = append(opts, client.WithProvider(provider))
	}
	if apiKey := viper.GetString("api_key"); apiKey != "" {
		opts = append(opts, client.WithAPIKey(apiKey))
	}
	if baseURL := viper.GetString("base_url"); baseURL != "" {
		opts = append(opts, client.WithBaseURL(baseURL))
	}

	if levelName := viper.GetString("log_level"); levelName != "" {
		level, ok := slogobs.ParseLogLevel(levelName)
		if !ok {
			return nil, fmt.Errorf("unknown log level %q", levelName)
		}
		format := slogobs.ParseFormat(viper.GetString("log_format"))
		logger := slog.New(slogobs.NewHandler(slogobs.HandlerOptions{Format: format, Level: level, Output: os.Stderr}))

		opts = append(opts,
			client.WithObserver(slogobs.New(slogobs.WithLogger(logger))),
			client.WithMiddleware(middleware.NewLoggingMiddleware(logger, logLevelFor(level))),
		)
	}

	return client.New(viper.GetString("model"), opts...), nil
}

// logLevelFor maps the slog threshold onto the middleware verbosity.
func logLevelFor(level slog.Level) middleware.LogLevel {
	switch {
	case level <= slogobs.LevelTrace:
		return middleware.LogLevelVerbose
	case level <= slog.LevelDebug:
		return middleware.LogLevelStandard
	default:
		return middleware.LogLevelMinimal
	}
}
