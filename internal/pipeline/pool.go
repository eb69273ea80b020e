package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

// Pool fans run requests out to a bounded set of workers. Runs are
// independent: a failure is recorded in its slot and the rest of the queue
// keeps draining.
type Pool struct {
	orch    *Orchestrator
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool executing at most workers runs concurrently.
func NewPool(orch *Orchestrator, workers int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{orch: orch, workers: workers, logger: logger}
}

// RunAll executes every request and returns results in request order. On
// context cancellation, requests that never started carry the context error;
// in-flight runs finish failing on their next stage.
func (p *Pool) RunAll(ctx context.Context, reqs []domain.RunRequest) []domain.RunResult {
	results := make([]domain.RunResult, len(reqs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.orch.Run(ctx, reqs[i])
			}
		}()
	}

feed:
	for i := range reqs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(reqs); j++ {
				results[j] = domain.RunResult{Request: reqs[j], Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
	}
	p.logger.Info("request batch drained",
		"total", len(reqs), "workers", p.workers,
		"succeeded", succeeded, "failed", len(reqs)-succeeded)
	return results
}
