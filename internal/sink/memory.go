package sink

import (
	"context"
	"sync"

	"jobsift/internal/crawler"
)

// MemorySink collects records in memory. Intended for tests and dry runs.
type MemorySink struct {
	mu      sync.Mutex
	records []crawler.JobRecord
	closed  bool
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends the record.
func (s *MemorySink) Write(ctx context.Context, record crawler.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Close marks the sink closed.
func (s *MemorySink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Records returns a copy of everything written so far.
func (s *MemorySink) Records() []crawler.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]crawler.JobRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Closed reports whether Close has been called.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
