package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jobsift/internal/assist"
	"jobsift/internal/crawler"
	"jobsift/internal/progress"
)

// MockAssistClient is a mock implementation of the assist.Client interface.
type MockAssistClient struct {
	mock.Mock
}

func (m *MockAssistClient) LabelPage(ctx context.Context, rawURL string, html []byte) (string, error) {
	args := m.Called(ctx, rawURL, html)
	return args.String(0), args.Error(1)
}

func (m *MockAssistClient) CompleteRecord(ctx context.Context, rawURL string, html []byte) (assist.RecordHints, error) {
	args := m.Called(ctx, rawURL, html)
	return args.Get(0).(assist.RecordHints), args.Error(1)
}

type captureEmitter struct {
	events []progress.Event
}

func (c *captureEmitter) Emit(evt progress.Event) {
	c.events = append(c.events, evt)
}

func ambiguousPage() crawler.Page {
	// A single heading plus a couple of job links lands the heuristic score in
	// the middle of its range.
	return crawler.Page{
		URL: "https://example.com/maybe-jobs",
		Body: []byte(`<html><body>
			<h1>Openings</h1>
			<a href="/jobs/1">One</a>
			<a href="/jobs/2">Two</a>
		</body></html>`),
	}
}

func assistedCfg() AssistedConfig {
	return AssistedConfig{AmbiguousLow: 0, AmbiguousHigh: 1}
}

func confidentCfg() AssistedConfig {
	return AssistedConfig{AmbiguousLow: 0, AmbiguousHigh: 0.01}
}

func TestAssistedClassify(t *testing.T) {
	ctx := progress.WithRunID(context.Background(), [16]byte{1})
	heuristic := NewHeuristic(DefaultConfig())

	t.Run("service consulted inside the ambiguous band", func(t *testing.T) {
		svc := new(MockAssistClient)
		svc.On("LabelPage", mock.Anything, mock.Anything, mock.Anything).
			Return("listing-index", nil).Once()

		a := NewAssisted(heuristic, svc, assistedCfg(), nil, nil)
		verdict := a.Classify(ctx, ambiguousPage())

		require.Equal(t, crawler.LabelListing, verdict.Label)
		svc.AssertExpectations(t)
	})

	t.Run("service skipped outside the ambiguous band", func(t *testing.T) {
		svc := new(MockAssistClient)

		a := NewAssisted(heuristic, svc, confidentCfg(), nil, nil)
		a.Classify(ctx, ambiguousPage())

		svc.AssertNotCalled(t, "LabelPage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("service failure keeps the heuristic verdict and reports degradation", func(t *testing.T) {
		svc := new(MockAssistClient)
		svc.On("LabelPage", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("service unavailable")).Once()
		emitter := &captureEmitter{}

		a := NewAssisted(heuristic, svc, assistedCfg(), emitter, nil)
		heuristicOnly := heuristic.Classify(ctx, ambiguousPage())
		verdict := a.Classify(ctx, ambiguousPage())

		require.Equal(t, heuristicOnly.Label, verdict.Label)
		require.Equal(t, heuristicOnly.Confidence, verdict.Confidence)
		require.Len(t, emitter.events, 1)
		require.Equal(t, progress.StageAssistDegraded, emitter.events[0].Stage)
	})

	t.Run("unknown service label keeps the heuristic verdict", func(t *testing.T) {
		svc := new(MockAssistClient)
		svc.On("LabelPage", mock.Anything, mock.Anything, mock.Anything).
			Return("spam", nil).Once()
		emitter := &captureEmitter{}

		a := NewAssisted(heuristic, svc, assistedCfg(), emitter, nil)
		heuristicOnly := heuristic.Classify(ctx, ambiguousPage())
		verdict := a.Classify(ctx, ambiguousPage())

		require.Equal(t, heuristicOnly.Label, verdict.Label)
		require.Len(t, emitter.events, 1)
	})

	t.Run("nil service behaves like the heuristic alone", func(t *testing.T) {
		a := NewAssisted(heuristic, nil, assistedCfg(), nil, nil)
		heuristicOnly := heuristic.Classify(ctx, ambiguousPage())
		verdict := a.Classify(ctx, ambiguousPage())
		require.Equal(t, heuristicOnly, verdict)
	})
}
