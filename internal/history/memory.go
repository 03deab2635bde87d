package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/calcgrid/internal/timeseries"
)

// MemorySource is an ephemeral, thread-safe Source backed by a map. Created
// fresh per test or preview session, never persistent.
type MemorySource struct {
	mu     sync.RWMutex
	series map[string]timeseries.Series
}

// NewMemorySource returns an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{series: make(map[string]timeseries.Series)}
}

// Put replaces the stored series for a reference.
func (m *MemorySource) Put(ref string, s timeseries.Series) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[ref] = s
}

// Points implements Source.
func (m *MemorySource) Points(_ context.Context, ref string, from, to timeseries.Period) (timeseries.Series, error) {
	m.mu.RLock()
	s, ok := m.series[ref]
	m.mu.RUnlock()
	if !ok {
		return timeseries.Series{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	from, to = timeseries.ConvertRange(from, to, s.Freq)
	out := s.Slice(from, to)
	if out.Len() == 0 {
		return timeseries.Series{}, fmt.Errorf("%w: %q in [%s, %s]", ErrNotFound, ref, from, to)
	}
	return out, nil
}
