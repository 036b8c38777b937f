package sink

import (
	"context"
	"errors"

	"jobsift/internal/crawler"
)

// MultiSink fans each record out to every child sink.
type MultiSink struct {
	sinks []crawler.RecordSink
}

// NewMultiSink combines sinks. Nil entries are skipped.
func NewMultiSink(sinks ...crawler.RecordSink) *MultiSink {
	out := make([]crawler.RecordSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

// Write delivers to every child; errors are joined so one failing child does
// not hide another.
func (m *MultiSink) Write(ctx context.Context, record crawler.JobRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every child.
func (m *MultiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
