package worker

import (
	"context"
	"time"

	"github.com/jmehdipour/teams-notify/internal/metrics"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/repository"
	"go.uber.org/zap"
)

// Recorder buffers delivery audit rows and flushes them in batches by size
// or time. Record never blocks the dispatch path: when the buffer is full
// the row is dropped and logged.
type Recorder struct {
	Repo      repository.DeliveriesRepository
	BatchSize int
	BatchWait time.Duration
	Log       *zap.Logger

	in   chan model.Delivery
	done chan struct{}
}

func NewRecorder(repo repository.DeliveriesRepository, batchSize int, batchWait time.Duration, log *zap.Logger) *Recorder {
	if batchSize <= 0 {
		batchSize = 200
	}
	if batchWait <= 0 {
		batchWait = 500 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		Repo:      repo,
		BatchSize: batchSize,
		BatchWait: batchWait,
		Log:       log,
		in:        make(chan model.Delivery, batchSize*2),
		done:      make(chan struct{}),
	}
}

func (r *Recorder) Record(d model.Delivery) {
	select {
	case r.in <- d:
	default:
		r.Log.Warn("audit buffer full, dropping delivery row",
			zap.String("record_id", d.RecordID),
			zap.String("outcome", d.Outcome.String()),
		)
	}
}

// Run flushes until ctx is cancelled, then flushes what is left once.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)

	tick := time.NewTicker(r.BatchWait)
	defer tick.Stop()

	buf := make([]model.Delivery, 0, r.BatchSize)

	flush := func(ctx context.Context) {
		if len(buf) == 0 {
			return
		}
		if err := r.Repo.InsertBatch(ctx, buf); err != nil {
			metrics.AuditFlushesTotal.WithLabelValues("error").Inc()
			r.Log.Error("audit flush failed", zap.Int("rows", len(buf)), zap.Error(err))
		} else {
			metrics.AuditFlushesTotal.WithLabelValues("ok").Inc()
			r.Log.Debug("audit flushed", zap.Int("rows", len(buf)))
		}
		buf = buf[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// drain without blocking, then a last flush on a fresh context
		drain:
			for {
				select {
				case d := <-r.in:
					buf = append(buf, d)
				default:
					break drain
				}
			}
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(fctx)
			cancel()
			return

		case d := <-r.in:
			buf = append(buf, d)
			if len(buf) >= r.BatchSize {
				flush(ctx)
			}

		case <-tick.C:
			flush(ctx)
		}
	}
}

// Wait blocks until Run has returned.
func (r *Recorder) Wait() { <-r.done }
