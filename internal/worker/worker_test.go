package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/teams-notify/internal/config"
	"github.com/jmehdipour/teams-notify/internal/host"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmehdipour/teams-notify/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	batches [][]model.Delivery
	err     error
}

func (f *fakeRepo) InsertBatch(_ context.Context, rows []model.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]model.Delivery(nil), rows...))
	return f.err
}

func (f *fakeRepo) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestRecorderFlushesBySize(t *testing.T) {
	repo := &fakeRepo{}
	rec := NewRecorder(repo, 2, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go rec.Run(ctx)

	rec.Record(model.Delivery{RecordID: "a"})
	rec.Record(model.Delivery{RecordID: "b"})

	assert.Eventually(t, func() bool { return repo.rows() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	rec.Wait()
	assert.Len(t, repo.batches, 1)
}

func TestRecorderFlushesOnTickAndShutdown(t *testing.T) {
	repo := &fakeRepo{}
	rec := NewRecorder(repo, 100, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go rec.Run(ctx)

	rec.Record(model.Delivery{RecordID: "a"})
	assert.Eventually(t, func() bool { return repo.rows() == 1 }, time.Second, 10*time.Millisecond)

	rec.Record(model.Delivery{RecordID: "b"})
	cancel()
	rec.Wait()
	assert.Equal(t, 2, repo.rows())
}

func TestRecorderSurvivesRepoErrors(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	rec := NewRecorder(repo, 1, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go rec.Run(ctx)

	rec.Record(model.Delivery{RecordID: "a"})
	rec.Record(model.Delivery{RecordID: "b"})
	assert.Eventually(t, func() bool { return repo.rows() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	rec.Wait()
}

func TestRunnerDrainsSourceWithAudit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	repo := &fakeRepo{}
	audit := NewRecorder(repo, 1000, 10*time.Millisecond, nil)

	var p *processor.Processor
	p, err := processor.New(
		config.TeamsConfig{Title: "${title}", Body: "${body}", Webhook: srv.URL},
		processor.WithSource("test"),
		processor.WithObserver(func(rec *model.Record, res processor.Result) {
			audit.Record(p.Delivery(rec, res))
		}),
	)
	require.NoError(t, err)

	mem := host.NewMemory()
	for i := 0; i < 20; i++ {
		mem.Push(&model.Record{ID: string(rune('a' + i)), Attributes: map[string]string{"title": "t", "body": "b"}})
	}

	ctx, cancel := context.WithCancel(context.Background())
	go audit.Run(ctx)

	r := NewRunner(p, mem, mem, 4, nil)
	r.Backoff = 5 * time.Millisecond
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(mem.Routed(model.OutcomeSuccess)) == 20 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return repo.rows() == 20 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
	audit.Wait()
	assert.Zero(t, mem.Pending())
	assert.Empty(t, mem.Routed(model.OutcomeFailure))
}
