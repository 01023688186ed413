// Package host provides the record sources and outcome sinks the processor
// runs against: in-memory, Kafka topics and Redis lists.
package host

import (
	"context"
	"sync"

	"github.com/jmehdipour/teams-notify/internal/model"
)

// Memory is a FIFO source and an outcome sink backed by slices.
type Memory struct {
	mu      sync.Mutex
	pending []*model.Record
	routed  map[model.Outcome][]*model.Record
}

func NewMemory(recs ...*model.Record) *Memory {
	return &Memory{
		pending: append([]*model.Record(nil), recs...),
		routed:  make(map[model.Outcome][]*model.Record, 2),
	}
}

func (m *Memory) Push(rec *model.Record) {
	m.mu.Lock()
	m.pending = append(m.pending, rec)
	m.mu.Unlock()
}

func (m *Memory) Acquire(_ context.Context) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil, nil
	}
	rec := m.pending[0]
	m.pending[0] = nil
	m.pending = m.pending[1:]
	return rec, nil
}

func (m *Memory) Transfer(_ context.Context, rec *model.Record, outcome model.Outcome) error {
	m.mu.Lock()
	m.routed[outcome] = append(m.routed[outcome], rec)
	m.mu.Unlock()
	return nil
}

// Routed returns a copy of the records transferred to outcome.
func (m *Memory) Routed(outcome model.Outcome) []*model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Record(nil), m.routed[outcome]...)
}

// Pending is the number of records not yet acquired.
func (m *Memory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
