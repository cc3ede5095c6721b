package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/pgvanniekerk/ezpool/internal/logger"
	"github.com/pgvanniekerk/ezpool/internal/metrics"
	"github.com/pgvanniekerk/ezpool/pool"
)

// benchResult holds the wall-clock time of both runs of a benchmark.
type benchResult struct {
	tasks      int
	workers    int
	pool       time.Duration
	goroutines time.Duration
}

func (r benchResult) print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "tasks: %d\npool (%d workers): %v\ngoroutine per task: %v\n",
		r.tasks, r.workers, r.pool, r.goroutines)
	return err
}

func newBenchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Compare the pool against one goroutine per task",
		Long: `Run bench.tasks tasks, each sleeping for bench.task-duration, first on a pool of
pool.workers workers and then on one goroutine per task, and print how long each took.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := metrics.NewOTelMetrics(nil)
			if err != nil {
				return fmt.Errorf("error while creating metrics: %w", err)
			}
			r, err := runBench(cmd.Context(), a.config, handle, timeutil.RealClock())
			if err != nil {
				return err
			}
			return r.print(cmd.OutOrStdout())
		},
	}
}

// runBench times c.Bench.Tasks sleeping tasks on a pool of c.Pool.Workers workers and then
// on a goroutine each.
func runBench(ctx context.Context, c *cfg.Config, handle metrics.MetricHandle, clock timeutil.Clock) (benchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := benchResult{tasks: c.Bench.Tasks, workers: c.Pool.Workers}
	work := func() { time.Sleep(c.Bench.TaskDuration) }

	// Pool run. Tasks are queued first and the workers started afterwards when the pool
	// starts paused.
	p, err := pool.NewPool(c.Pool.Workers, pool.WithConfig(c.Pool), pool.WithMetricHandle(handle), pool.WithClock(clock))
	if err != nil {
		return r, fmt.Errorf("error while creating the pool: %w", err)
	}
	defer p.Shutdown(context.Background())

	start := clock.Now()
	for i := 0; i < c.Bench.Tasks; i++ {
		if err = p.Submit(work); err != nil {
			return r, err
		}
	}
	if err = p.StartAll(); err != nil {
		return r, err
	}
	if err = p.AwaitIdle(ctx); err != nil {
		return r, fmt.Errorf("error while waiting for the pool: %w", err)
	}
	r.pool = clock.Now().Sub(start)
	logger.Infof("pool run of %d tasks on %d workers took %v", r.tasks, r.workers, r.pool)

	// Baseline run.
	start = clock.Now()
	var g errgroup.Group
	for i := 0; i < c.Bench.Tasks; i++ {
		g.Go(func() error {
			work()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return r, err
	}
	r.goroutines = clock.Now().Sub(start)
	logger.Infof("goroutine-per-task run of %d tasks took %v", r.tasks, r.goroutines)

	return r, nil
}
