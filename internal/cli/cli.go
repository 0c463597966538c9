// ============================================================================
// gocoro CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: cobra-based command line interface for driving gocoro's demo
// scenarios, grounded on the teacher's internal/cli.BuildCLI: a persistent
// --config flag, subcommands built by small buildXCommand helpers, and a
// run command that starts a metrics HTTP server in the background when
// configured to.
//
// Command Structure:
//   gocoro                        # Root command
//   ├── run <scenario>            # Run one named scenario
//   │   └── --config, -c         # Specify config file
//   ├── bench                     # Run every scenario concurrently, once each
//   │   └── --workers             # Concurrent OS-thread fan-out width
//   └── scenarios                 # List available scenarios
//
// ============================================================================

package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ChuLiYu/gocoro/internal/config"
	"github.com/ChuLiYu/gocoro/internal/corometrics"
	"github.com/ChuLiYu/gocoro/internal/scenarios"
)

var (
	configFile string
	log        = slog.Default()
)

// BuildCLI assembles the gocoro root command and its subcommands.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gocoro",
		Short:   "gocoro: a lightweight asynchronous coroutine runtime demo harness",
		Version: "0.1.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional, defaults baked in)")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildBenchCommand())
	rootCmd.AddCommand(buildScenariosCommand())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

func startMetricsIfEnabled(cfg *config.Config) {
	if !cfg.Metrics.Enabled {
		return
	}
	go func() {
		log.Info("starting metrics server", "port", cfg.Metrics.Port)
		if err := corometrics.StartServer(cfg.Metrics.Port); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a single named scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			startMetricsIfEnabled(cfg)

			sc, err := lookupScenario(args[0])
			if err != nil {
				return err
			}

			result, err := sc.Run(optionsFrom(cfg))
			if err != nil {
				return fmt.Errorf("scenario %q failed: %w", sc.Name, err)
			}
			fmt.Printf("%s: %s\n", result.Name, result.Summary)
			return nil
		},
	}
	return cmd
}

func buildBenchCommand() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run every scenario concurrently across real OS threads",
		Long: "Fans every scenario out across its own goroutine and executor, " +
			"joining with the first error any of them produced. This is the one " +
			"place gocoro reaches for a real blocking join across genuine OS " +
			"threads instead of its own cooperative scheduler.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			startMetricsIfEnabled(cfg)

			opts := optionsFrom(cfg)
			all := scenarios.All()

			var g errgroup.Group
			if workers > 0 {
				g.SetLimit(workers)
			}
			results := make([]scenarios.Result, len(all))
			for i, sc := range all {
				i, sc := i, sc
				g.Go(func() error {
					r, err := sc.Run(opts)
					if err != nil {
						return fmt.Errorf("scenario %q: %w", sc.Name, err)
					}
					results[i] = r
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%s: %s\n", r.Name, r.Summary)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "max concurrent scenarios (0 = unlimited)")
	return cmd
}

func buildScenariosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, sc := range scenarios.All() {
				fmt.Printf("  %-14s %s\n", sc.Name, sc.Description)
			}
			return nil
		},
	}
	return cmd
}

func lookupScenario(name string) (scenarios.Scenario, error) {
	for _, sc := range scenarios.All() {
		if sc.Name == name {
			return sc, nil
		}
	}
	return scenarios.Scenario{}, fmt.Errorf("unknown scenario %q (see 'gocoro scenarios')", name)
}

func optionsFrom(cfg *config.Config) scenarios.Options {
	return scenarios.Options{
		Iterations:  cfg.Scenarios.Iterations,
		Concurrency: cfg.Scenarios.Concurrency,
		SleepDelay:  time.Duration(cfg.Scenarios.SleepMillis) * time.Millisecond,
	}
}
