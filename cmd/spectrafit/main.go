// spectrafit fits parametric spectral models to observed high-energy
// spectra with an affine-invariant ensemble MCMC sampler.
//
// Usage:
//
//	spectrafit init [path]           write a default fit.yaml
//	spectrafit run --config fit.yaml run a fit and export the chain
//	spectrafit version               print the version and the registered models
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/r3d91ll/spectrafit/pkg/config"
	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/models"
)

const version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string
	noProgress bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spectrafit",
	Short: "Bayesian fitting of high-energy spectra",
	Long: `spectrafit fits parametric spectral models to observed spectra.

A run reads a spectrum table (energy, flux, errors and optional upper limits),
burns in an ensemble of walkers, samples the posterior and writes the chain,
a per-parameter summary and a reproducibility record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(config.LoggingConfig{}, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fit described by a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runFit,
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the registered models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "spectrafit %s\n", version)
		fmt.Fprintln(out, "Models:")
		registry := models.Default()
		for _, name := range registry.List() {
			e, _ := registry.Get(name)
			fmt.Fprintf(out, "  %-6s %s (%v)\n", name, e.Description, e.Labels)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	runCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")

	rootCmd.AddCommand(runCmd, initCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ferrors.Format(err))
		os.Exit(exitCode(err))
	}
}

// newLogger builds a production logger from the logging settings. verbose
// forces the debug level.
func newLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lc.Level != "" {
		level, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if lc.Encoding != "" {
		cfg.Encoding = lc.Encoding
	}
	if cfg.Encoding == "console" {
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg.Build()
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if len(args) == 1 {
		path = args[0]
	}
	written, err := config.InitConfig(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !written {
		fmt.Fprintf(out, "Config already exists at: %s\n", path)
		return nil
	}
	fmt.Fprintf(out, "Config initialized at: %s\n", path)
	fmt.Fprintln(out, "Edit data.path and the model section, then run 'spectrafit run'.")
	return nil
}
