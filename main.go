package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"topo/ingest/internal/app"
	"topo/ingest/internal/config"
	"topo/ingest/internal/dispatch"
	"topo/ingest/internal/logger"
	"topo/ingest/internal/region"
)

var errRunFailed = errors.New("ingestion run failed")

func main() {
	log := logger.New(os.Stdout, slog.LevelInfo)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(log).ExecuteContext(ctx); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func rootCmd(log *slog.Logger) *cobra.Command {
	var (
		regions    []string
		jobs       []string
		limit      int
		workers    int
		resetCache bool
	)

	cmd := &cobra.Command{
		Use:   "topo-ingest",
		Short: "Ingest public crime and weather statistics per US state.",
		Long: `topo-ingest runs every enabled ingestion job once over the requested states
and stores the derived tables next to a durable response cache.

Settings come from the environment (and .env); flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg, err := config.Load(func(c *config.Config) {
				if flags.Changed("regions") {
					c.Regions = regions
				}
				if flags.Changed("jobs") {
					c.Jobs = jobs
				}
				if flags.Changed("limit") {
					c.Limit = limit
				}
				if flags.Changed("workers") {
					c.Workers = workers
				}
				if flags.Changed("reset-cache") {
					c.CacheReset = resetCache
				}
			})
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			scope := cfg.Regions
			if len(scope) == 0 {
				scope = region.All()
			}
			scope, err = region.Normalize(scope)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg, scope, log)
		},
	}

	cmd.Flags().StringSliceVar(&regions, "regions", nil, "state abbreviations to ingest (default: all 50 states)")
	cmd.Flags().StringSliceVar(&jobs, "jobs", nil, "jobs to run: crime, weather")
	cmd.Flags().IntVar(&limit, "limit", 0, "agencies or stations per state")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent jobs")
	cmd.Flags().BoolVar(&resetCache, "reset-cache", false, "clear the response cache before running")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, scope []string, log *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	a, err := app.New(ctx, cfg, deps, log)
	if err != nil {
		return err
	}
	defer a.Close()

	_, results, runErr := a.Run(ctx, scope, cfg.Limit)
	return outcome(results, runErr)
}

// outcome turns a run into the process result: any failed job or crashed
// worker fails the process.
func outcome(results dispatch.Results, runErr error) error {
	if runErr != nil {
		return fmt.Errorf("%w: %w", errRunFailed, runErr)
	}
	if err := results.Err(); err != nil {
		return fmt.Errorf("%w: %d of %d jobs failed: %w", errRunFailed, len(results.Failed()), len(results), err)
	}
	return nil
}
