package cli

import (
	"context"

	"cvforge/internal/config"
	"cvforge/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootFlags struct {
	configFile string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "cvforge",
	Short: "Build, arrange, analyze and export your CV",
	Long: `cvforge is a CV authoring tool. It keeps your CV content and section layout
in a local store, lets you rearrange sections on a two-column grid, scores the
CV with an AI model and exports it to HTML, DOCX and PDF.

With a backend configured it also keeps your profile and an activity log, and
serves everything over an HTTP API.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

// Execute runs the command line. Configuration is loaded once the flags are
// parsed, so --config and --log-level apply to every subcommand.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadRuntime attaches the config and logger to the command context, making
// them available to all subcommands.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(rootFlags.configFile)
	if err != nil {
		return err
	}
	if rootFlags.logLevel != "" {
		cfg.App.LogLevel = rootFlags.logLevel
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid log level", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.cvforge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
