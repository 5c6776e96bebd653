package main

import (
	"context"
	"os"

	"github.com/haguru/llmvault/config"
	"github.com/haguru/llmvault/internal/app"
	"github.com/haguru/llmvault/pkg/zerolog"

	"github.com/spf13/cobra"
)

func main() {
	var opts config.LoadOptions

	rootCmd := &cobra.Command{
		Use:           "llmvault",
		Short:         "User directory and LLM response archive",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	rootCmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Path to the YAML configuration file (default "+config.CONFIG_PATH+")")
	rootCmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "Path to a .env file (default "+config.ENV_PATH+")")
	rootCmd.Flags().StringVar(&opts.Port, "port", "", "HTTP listen port, overrides PORT")
	rootCmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error), overrides LOG_LEVEL")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		zerolog.NewZerologLogger(config.DefaultServiceName).Error("llmvault exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts config.LoadOptions) error {
	cfg, err := config.Load(opts)
	if err != nil {
		// no storage connection string or an unusable config: refuse to start
		zerolog.NewZerologLogger(config.DefaultServiceName).Fatal("Failed to load configuration", "error", err)
	}

	logger := zerolog.NewZerologLogger(cfg.ServiceName)
	logger.SetLevel(cfg.LogLevel)

	// create and initialize the app
	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize app", "error", err)
		return err
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Error("Failed to close storage connection", "error", err)
		}
	}()

	// run the app until a stop signal arrives
	return application.Run(ctx)
}
