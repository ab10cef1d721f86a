// Command wia analyses wave intensity samples from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wiastat/internal/config"
	"wiastat/internal/logging"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "wia",
		Short:         "Compare wave intensity analysis samples across treatments and subtypes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML file with alpha, thresholds and treatment aliases (overrides WIA_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides WIA_LOG_LEVEL)")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newCategoriesCmd(opts),
		newExportCmd(opts),
		newGenerateCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

// setup loads .env, the configuration and the logger.
func (o *globalOptions) setup() (*config.Config, *zap.Logger, error) {
	// A missing .env file is normal.
	_ = godotenv.Load()

	if o.configFile != "" {
		os.Setenv("WIA_CONFIG_FILE", o.configFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
