package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/saint-community/querybuilder/internal/config"
)

var (
	cfgFile string
	verbose bool

	source   *config.Source
	logLevel zap.AtomicLevel
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "querybuilder <command>",
	Short:         "Build, compile and run member search filters",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		src, err := config.Open(cfgFile)
		if err != nil {
			return err
		}
		source = src

		l, level, err := newLogger(src.Config().Log.Level, verbose)
		if err != nil {
			return err
		}
		logger, logLevel = l, level
		if file := src.File(); file != "" {
			logger.Debug("config loaded", zap.String("file", file))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// newLogger builds the production logger. The returned level can be
// changed while the logger is in use.
func newLogger(level string, verbose bool) (*zap.Logger, zap.AtomicLevel, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := zcfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, zcfg.Level, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: user config dir, then ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "filters", Title: "Filters:"},
		&cobra.Group{ID: "members", Title: "Members:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	// Filters
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(favoritesCmd)

	// Members
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(historyCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(passwordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
