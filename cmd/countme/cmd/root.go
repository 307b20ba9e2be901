package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	clierrors "countme/internal/cli/errors"
	"countme/internal/config"
	"countme/internal/logger"

	"github.com/spf13/cobra"
)

var (
	// cfgFile is the path to the config file (set via --config flag)
	cfgFile string

	// cfg holds the loaded configuration
	cfg *config.Config

	// log is the logger instance
	log *logger.Logger

	// cmdStartTime tracks when command execution started
	cmdStartTime time.Time

	// cmdCtx is the command context with logger and command metadata
	cmdCtx context.Context

	// outputFormat is the global output format flag
	outputFormat string

	// verboseMode forces debug logging when set
	verboseMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "countme",
	Short: "countme is an anonymous usage-reporting client",
	Long: `countme sends at most one anonymous counting request per repository
per reporting window. Only repositories that explicitly opted in with
countme=1 are counted, and the request carries a coarse window bucket
instead of any client identity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return clierrors.Wrap(err, clierrors.CodeConfigInvalid, "failed to load config")
		}

		applyFlagOverrides(cmd, cfg)

		log, err = logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cc := logger.NewCommandContext(cmd, args)
		cmdCtx = logger.WithCommandContext(context.Background(), cc)
		cmdCtx = logger.WithLogger(cmdCtx, log)

		cmdStartTime = time.Now()
		log.Debug("command started", cc.Attrs()...)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if log == nil {
			return nil
		}

		duration := time.Since(cmdStartTime)
		cc := logger.CommandContextFrom(cmdCtx)
		log.Debug("command completed",
			"command", cc.Command,
			"duration_ms", duration.Milliseconds(),
			"request_id", cc.RequestID,
		)

		log.Close()
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, clierrors.Display(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/countme/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (json, yaml, table, quiet)")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "verbose output (forces debug logging)")
}

// applyFlagOverrides applies global flag values on top of the loaded config.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	if verboseMode {
		c.Log.Level = "debug"
	}
	if cmd.Flags().Changed("output") {
		c.Output.Format = outputFormat
	}
}

// Config returns the current configuration (for use by subcommands)
func Config() *config.Config {
	return cfg
}

// Log returns the logger instance (for use by subcommands)
func Log() *logger.Logger {
	if log == nil {
		return logger.Default()
	}
	return log
}

// Context returns the command context (for use by subcommands)
func Context() context.Context {
	if cmdCtx == nil {
		return context.Background()
	}
	return cmdCtx
}
