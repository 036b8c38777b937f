package crawler

import "context"

// Fetcher retrieves a URL over the cheap (non-rendering) path.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer retrieves a URL with JavaScript execution enabled.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (Page, error)
	Close(ctx context.Context) error
}

// RenderDetector decides whether a fetched page warrants a render pass.
type RenderDetector interface {
	NeedsJS(ctx context.Context, page Page) bool
}

// Classifier labels a fetched page. Implementations never fail: a degraded
// classifier falls back to its heuristic verdict.
type Classifier interface {
	Classify(ctx context.Context, page Page) Classification
}

// Extractor attempts to produce a validated JobRecord from a job-detail page.
// The boolean reports whether a complete record was produced; false means the
// candidate was discarded.
type Extractor interface {
	Extract(ctx context.Context, page Page) (JobRecord, bool)
}

// RecordSink consumes validated job records.
type RecordSink interface {
	Write(ctx context.Context, record JobRecord) error
	Close(ctx context.Context) error
}

// SnapshotStore archives raw page HTML under an object name.
type SnapshotStore interface {
	Save(ctx context.Context, objectName string, data []byte) error
}
