package progress

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}

// WithRunID stamps the crawl run ID onto ctx so components deep in the
// pipeline can emit events scoped to the active run.
func WithRunID(ctx context.Context, runID uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom extracts the run ID stamped by WithRunID. The second return is
// false when no run is active on ctx.
func RunIDFrom(ctx context.Context) (uuid.UUID, bool) {
	runID, ok := ctx.Value(runIDKey{}).(uuid.UUID)
	return runID, ok
}
