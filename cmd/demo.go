package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/pgvanniekerk/ezpool/internal/metrics"
	"github.com/pgvanniekerk/ezpool/pool"
)

const (
	demoProducers         = 4
	demoTasksPerProducer  = 5
	demoConcurrentProduce = 2
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through every pool operation and print the pool after each step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handle, err := metrics.NewOTelMetrics(nil)
			if err != nil {
				return fmt.Errorf("error while creating metrics: %w", err)
			}
			return runDemo(cmd.Context(), a.config, handle, cmd.OutOrStdout())
		},
	}
}

// printStats writes a one-line summary of the pool followed by one line per worker.
func printStats(w io.Writer, step string, p pool.Pool) {
	s := p.Stats()
	fmt.Fprintf(w, "[%s] workers=%d paused=%d busy=%d queued=%d retiring=%d submitted=%d completed=%d\n",
		step, s.Workers, s.Paused, s.Busy, s.Queued, s.Retiring, s.Submitted, s.Completed)
	for i, ws := range s.WorkerStatus {
		fmt.Fprintf(w, "  worker %d: id=%d running=%t has-task=%t\n", i, ws.ID, ws.Running, ws.HasTask)
	}
}

// runDemo drives a pool through submit, resize, pause, resume, dequeue, clear, await and
// shutdown.
func runDemo(ctx context.Context, c *cfg.Config, handle metrics.MetricHandle, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	work := func() { time.Sleep(c.Bench.TaskDuration) }

	p, err := pool.NewPool(c.Pool.Workers, pool.WithConfig(c.Pool), pool.WithMetricHandle(handle))
	if err != nil {
		return fmt.Errorf("error while creating the pool: %w", err)
	}
	defer p.Shutdown(context.Background())
	printStats(out, "created", p)

	// Several producers submit at once, at most demoConcurrentProduce at a time.
	sem := semaphore.NewWeighted(demoConcurrentProduce)
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < demoProducers; i++ {
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			for j := 0; j < demoTasksPerProducer; j++ {
				if err := p.Submit(work); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return fmt.Errorf("error while submitting: %w", err)
	}
	printStats(out, "submitted", p)

	if err = p.StartAll(); err != nil {
		return err
	}
	if err = p.AddWorkers(2); err != nil {
		return err
	}
	printStats(out, "added 2 workers", p)

	if err = p.StopWorker(0); err != nil {
		return err
	}
	printStats(out, "stopped worker 0", p)
	if err = p.StartWorker(0); err != nil {
		return err
	}

	removed, err := p.RemoveWorkers(1)
	if err != nil {
		return err
	}
	printStats(out, fmt.Sprintf("removed %d worker", removed), p)

	if err = p.AwaitIdle(ctx); err != nil {
		return fmt.Errorf("error while waiting for the pool: %w", err)
	}
	printStats(out, "idle", p)

	// Queue work behind paused workers, then take it back.
	if err = p.StopAll(); err != nil {
		return err
	}
	for i := 0; i < 10; i++ {
		if err = p.Submit(work); err != nil {
			return err
		}
	}
	printStats(out, "queued behind paused workers", p)
	if _, ok := p.Dequeue(); ok {
		fmt.Fprintln(out, "dequeued 1 task")
	}
	fmt.Fprintf(out, "cleared %d tasks\n", p.Clear())

	if err = p.StartAll(); err != nil {
		return err
	}
	if err = p.AwaitIdle(ctx); err != nil {
		return fmt.Errorf("error while waiting for the pool: %w", err)
	}
	printStats(out, "final", p)

	if err = p.Shutdown(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "shut down")
	return nil
}
