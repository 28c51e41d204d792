package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	Verbose bool   // debug logging
	Format  string // log encoding: console or json
}

var (
	globalFlags GlobalFlags
	logger      = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "gridwire",
	Short: "Grid client protocol toolbox",
	Long: `gridwire speaks the binary client protocol of the data grid.

  gridwire serve    run an in-memory member that answers client requests
  gridwire ping     authenticate against a member and measure round trips
  gridwire dump     decode a captured byte stream frame by frame`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(globalFlags)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Format, "log-format", "console", "log encoding: console|json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(dumpCmd)
}

func newLogger(flags GlobalFlags) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = flags.Format
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if flags.Format == "console" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if flags.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
