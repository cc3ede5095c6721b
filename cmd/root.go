// Package cmd holds the ezpool command line: a benchmark of the pool against one goroutine
// per task, a scripted walk through the pool's operations and config inspection.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/pgvanniekerk/ezpool/internal/logger"
	"github.com/pgvanniekerk/ezpool/internal/monitor"
)

// version is set at build time with -ldflags "-X github.com/pgvanniekerk/ezpool/cmd.version=...".
var version = "0.0.0-dev"

// app is the state shared by the root command and its subcommands.
type app struct {
	viper      *viper.Viper
	configFile string

	// config is loaded and validated before any subcommand runs.
	config *cfg.Config

	// shutdown releases the metric exporters.
	shutdown monitor.ShutdownFn
}

// NewRootCmd builds the ezpool command tree.
func NewRootCmd() (*cobra.Command, error) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ezpool",
		Short: "Run tasks on a reusable pool of worker goroutines",
		Long: `ezpool drives a worker pool: a set of goroutines that execute submitted tasks
drawn from a shared FIFO queue. Workers can be added, removed, paused and resumed
while the pool is in use.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config-file", "", "Path to a YAML config file. Flags set explicitly take precedence over it.")
	var err error
	if a.viper, err = cfg.BindFlags(rootCmd.PersistentFlags()); err != nil {
		return nil, fmt.Errorf("error while binding flags: %w", err)
	}

	rootCmd.AddCommand(
		newBenchCmd(a),
		newDemoCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd, nil
}

// setup loads the configuration, then starts logging and metric export from it.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	c, err := cfg.Load(a.viper, a.configFile)
	if err != nil {
		return err
	}
	if err = cfg.ValidateConfig(c); err != nil {
		return err
	}
	a.config = c

	if err = logger.Init(c.Logging); err != nil {
		return fmt.Errorf("error while initializing the logger: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.shutdown = monitor.SetupOTelMetricExporters(ctx, c, version)
	logger.Debugf("ezpool %s started with config file %q", version, a.configFile)
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	defer logger.Close()
	if a.shutdown == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return a.shutdown(ctx)
}

// Execute runs the root command and exits the process on failure.
func Execute() {
	rootCmd, err := NewRootCmd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
