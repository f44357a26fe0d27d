// Package cmd defines and implements the CLI commands for the editorial executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/app"
	"github.com/alexmaslar/riff-plugin-editorial/internal/config"
	"github.com/alexmaslar/riff-plugin-editorial/internal/logging"
	"github.com/alexmaslar/riff-plugin-editorial/internal/source"
)

// ctxKeyType keys the values the root command stores in the context.
type ctxKeyType string

const (
	appKey    ctxKeyType = "app"
	configKey ctxKeyType = "config"
)

// App defines the application interface that commands will use.
// This allows us to inject a fake app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetService() *source.Service
	Ready(ctx context.Context) error
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "editorial",
		Short: "Resolves third-party album reviews for the riff player.",
		Long: `editorial looks up critic reviews of an album on AllMusic, Pitchfork,
Northern Transmissions and The Line of Best Fit, and returns the rating and
an excerpt of each review it finds in one normalized envelope.`,
		SilenceUsage: true,

		// Builds the application once config and logging are ready and
		// injects it for the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env file is normal outside local development.
			_ = godotenv.Load()

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), configKey, cfg)
			ctx = context.WithValue(ctx, appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env EDITORIAL_* overrides it)")

	cmd.AddCommand(
		newServeCmd(),
		newResolveCmd(),
		newSourcesCmd(),
		newHealthCmd(),
	)
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func resolveConfig(ctx context.Context) (config.Config, error) {
	cfg, ok := ctx.Value(configKey).(config.Config)
	if !ok {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return cfg, nil
}
