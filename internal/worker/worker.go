package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one pass of a periodic task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner ticks each job on its own interval until the context is cancelled.
type Runner struct {
	log *zap.Logger
	wg  sync.WaitGroup
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{log: log.With(zap.String("component", "worker"))}
}

// Start launches job in the background. A non-positive interval disables it.
func (r *Runner) Start(ctx context.Context, job Job, interval time.Duration) {
	if interval <= 0 {
		r.log.Info("Worker disabled", zap.String("job", job.Name()))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx, job, interval)
	}()
}

// Wait blocks until every started job has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("Worker started", zap.String("job", job.Name()), zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Worker stopped", zap.String("job", job.Name()))
			return
		case <-ticker.C:
			start := time.Now()
			if err := job.Run(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("Worker run failed",
					zap.Error(err),
					zap.String("job", job.Name()),
					zap.Duration("duration", time.Since(start)))
			}
		}
	}
}
