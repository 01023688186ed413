package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jmehdipour/teams-notify/internal/processor"
	"go.uber.org/zap"
)

// Cycler is one scheduling cycle of the processor.
type Cycler interface {
	Trigger(ctx context.Context, src processor.Source, sink processor.Sink) (*processor.Result, error)
}

// Runner drives Workers goroutines, each calling Trigger in a loop against
// the same source and sink until ctx is cancelled.
type Runner struct {
	Proc    Cycler
	Source  processor.Source
	Sink    processor.Sink
	Workers int
	// Backoff is the pause after a host error or an empty cycle.
	Backoff time.Duration
	Log     *zap.Logger
}

func NewRunner(proc Cycler, src processor.Source, sink processor.Sink, workers int, log *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		Proc:    proc,
		Source:  src,
		Sink:    sink,
		Workers: workers,
		Backoff: 200 * time.Millisecond,
		Log:     log,
	}
}

// Run blocks until ctx is cancelled and every worker has returned.
func (r *Runner) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < r.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	return nil
}

func (r *Runner) loop(ctx context.Context, id int) {
	log := r.Log.With(zap.Int("worker", id))
	for {
		if ctx.Err() != nil {
			return
		}

		res, err := r.Proc.Trigger(ctx, r.Source, r.Sink)
		switch {
		case err != nil:
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Error("cycle failed", zap.Error(err))
			r.sleep(ctx)
		case res == nil:
			// nothing to do this cycle
			r.sleep(ctx)
		}
	}
}

func (r *Runner) sleep(ctx context.Context) {
	if r.Backoff <= 0 {
		return
	}
	t := time.NewTimer(r.Backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
