package comparison

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"wiastat/domain/comparison"
)

// Runner evaluates a plan with bounded parallelism. Results keep the order of
// the plan regardless of completion order.
type Runner struct {
	builder *Builder
	workers int64
	logger  *zap.Logger
}

// NewRunner creates a runner. workers below one selects the number of CPUs.
func NewRunner(builder *Builder, workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{builder: builder, workers: int64(workers), logger: logger.Named("runner")}
}

// Run evaluates every request and returns the non-skipped comparisons in plan
// order. The first request error cancels the remaining requests and is
// returned with no comparisons.
func (r *Runner) Run(ctx context.Context, plan []Request) ([]*comparison.Comparison, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(r.workers)
	results := make([]*comparison.Comparison, len(plan))

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i, req := range plan {
		if err := sem.Acquire(runCtx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			defer sem.Release(1)

			c, err := r.builder.Execute(runCtx, req)
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
					r.logger.Error("comparison failed", zap.Stringer("request", req), zap.Error(err))
				})
				return
			}
			results[i] = c
		}(i, req)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comparisons := make([]*comparison.Comparison, 0, len(plan))
	for _, c := range results {
		if c != nil {
			comparisons = append(comparisons, c)
		}
	}
	r.logger.Info("comparisons evaluated",
		zap.Int("requests", len(plan)), zap.Int("comparisons", len(comparisons)))
	return comparisons, nil
}
