package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFetcher is a mock implementation of the Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(Page), args.Error(1)
}

// MockRenderer is a mock implementation of the Renderer interface.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, rawURL string) (Page, error) {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(Page), args.Error(1)
}

func (m *MockRenderer) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDetector is a mock implementation of the RenderDetector interface.
type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) NeedsJS(ctx context.Context, page Page) bool {
	args := m.Called(ctx, page)
	return args.Bool(0)
}

// MockClassifier is a mock implementation of the Classifier interface.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, page Page) Classification {
	args := m.Called(ctx, page)
	return args.Get(0).(Classification)
}

// MockExtractor is a mock implementation of the Extractor interface.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, page Page) (JobRecord, bool) {
	args := m.Called(ctx, page)
	return args.Get(0).(JobRecord), args.Bool(1)
}

// MockSink is a mock implementation of the RecordSink interface.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Write(ctx context.Context, record JobRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSink) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testConfig() Config {
	return Config{
		Seeds:           []string{"https://jobs.example.com/careers"},
		MaxDepth:        3,
		MaxPages:        50,
		RequestTimeout:  5 * time.Second,
		MaxLinksPerPage: 100,
	}
}

func htmlPage(rawURL string, body string) Page {
	return Page{
		URL:        rawURL,
		FinalURL:   rawURL,
		StatusCode: 200,
		Body:       []byte(body),
	}
}

func listingHTML(hrefs ...string) string {
	out := "<html><body>"
	for _, href := range hrefs {
		out += fmt.Sprintf(`<a href=%q>opening</a>`, href)
	}
	return out + "</body></html>"
}

func TestEngine_Run(t *testing.T) {
	t.Run("listing feeds detail pages that emit records", func(t *testing.T) {
		seed := "https://jobs.example.com/careers"
		details := []string{
			"https://jobs.example.com/jobs/1",
			"https://jobs.example.com/jobs/2",
			"https://jobs.example.com/jobs/3",
		}

		fetcher := new(MockFetcher)
		classifier := new(MockClassifier)
		extractor := new(MockExtractor)
		sink := new(MockSink)

		listing := htmlPage(seed, listingHTML(details...))
		fetcher.On("Fetch", mock.Anything, seed).Return(listing, nil).Once()
		classifier.On("Classify", mock.Anything, mock.MatchedBy(func(p Page) bool {
			return p.URL == seed
		})).Return(Classification{URL: seed, Label: LabelListing, Confidence: 0.9}).Once()

		for i, detail := range details {
			page := htmlPage(detail, "<html><body><h1>Engineer</h1></body></html>")
			record := JobRecord{
				Title:    fmt.Sprintf("Engineer %d", i+1),
				Company:  "Example Corp",
				Skills:   []string{},
				ApplyURL: detail + "/apply",
			}
			fetcher.On("Fetch", mock.Anything, detail).Return(page, nil).Once()
			classifier.On("Classify", mock.Anything, mock.MatchedBy(func(p Page) bool {
				return p.URL == detail
			})).Return(Classification{URL: detail, Label: LabelJobDetail, Confidence: 0.8}).Once()
			extractor.On("Extract", mock.Anything, mock.MatchedBy(func(p Page) bool {
				return p.URL == detail
			})).Return(record, true).Once()
			sink.On("Write", mock.Anything, record).Return(nil).Once()
		}

		engine := NewEngine(testConfig(), fetcher, nil, nil, classifier, extractor, sink, nil, nil, nil)
		stats, err := engine.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, StopFrontierExhausted, stats.StopReason)
		require.Equal(t, 4, stats.PagesVisited)
		require.Equal(t, 1, stats.ListingPages)
		require.Equal(t, 3, stats.DetailPages)
		require.Equal(t, 3, stats.RecordsEmitted)
		require.Zero(t, stats.RecordsRejected)
		fetcher.AssertExpectations(t)
		classifier.AssertExpectations(t)
		extractor.AssertExpectations(t)
		sink.AssertExpectations(t)
	})

	t.Run("page budget halts the run", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxPages = 2
		seed := cfg.Seeds[0]

		fetcher := new(MockFetcher)
		classifier := new(MockClassifier)

		listing := htmlPage(seed, listingHTML(
			"https://jobs.example.com/jobs/1",
			"https://jobs.example.com/jobs/2",
			"https://jobs.example.com/jobs/3",
		))
		fetcher.On("Fetch", mock.Anything, seed).Return(listing, nil).Once()
		classifier.On("Classify", mock.Anything, mock.Anything).
			Return(Classification{Label: LabelListing, Confidence: 0.9}).Once()

		fetcher.On("Fetch", mock.Anything, "https://jobs.example.com/jobs/1").
			Return(htmlPage("https://jobs.example.com/jobs/1", "<html></html>"), nil).Once()
		classifier.On("Classify", mock.Anything, mock.Anything).
			Return(Classification{Label: LabelIrrelevant, Confidence: 1}).Once()

		engine := NewEngine(cfg, fetcher, nil, nil, classifier, new(MockExtractor), new(MockSink), nil, nil, nil)
		stats, err := engine.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, StopPageBudget, stats.StopReason)
		require.Equal(t, 2, stats.PagesVisited)
		fetcher.AssertExpectations(t)
	})

	t.Run("fetch failures are absorbed", func(t *testing.T) {
		seed := "https://jobs.example.com/careers"

		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, seed).Return(Page{}, errors.New("connection refused")).Once()

		engine := NewEngine(testConfig(), fetcher, nil, nil, new(MockClassifier), new(MockExtractor), new(MockSink), nil, nil, nil)
		stats, err := engine.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, StopFrontierExhausted, stats.StopReason)
		require.Equal(t, 1, stats.PagesVisited)
		require.Equal(t, 1, stats.FetchFailures)
	})

	t.Run("non-2xx responses are skipped", func(t *testing.T) {
		seed := "https://jobs.example.com/careers"
		page := Page{URL: seed, FinalURL: seed, StatusCode: 404}

		fetcher := new(MockFetcher)
		fetcher.On("Fetch", mock.Anything, seed).Return(page, nil).Once()

		engine := NewEngine(testConfig(), fetcher, nil, nil, new(MockClassifier), new(MockExtractor), new(MockSink), nil, nil, nil)
		stats, err := engine.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 1, stats.FetchFailures)
		require.Zero(t, stats.ListingPages+stats.DetailPages+stats.IrrelevantPages)
	})

	t.Run("rejected extraction never reaches the sink", func(t *testing.T) {
		seed := "https://jobs.example.com/jobs/1"
		cfg := testConfig()
		cfg.Seeds = []string{seed}

		fetcher := new(MockFetcher)
		classifier := new(MockClassifier)
		extractor := new(MockExtractor)
		sink := new(MockSink)

		fetcher.On("Fetch", mock.Anything, seed).Return(htmlPage(seed, "<html></html>"), nil).Once()
		classifier.On("Classify", mock.Anything, mock.Anything).
			Return(Classification{Label: LabelJobDetail, Confidence: 0.7}).Once()
		extractor.On("Extract", mock.Anything, mock.Anything).Return(JobRecord{}, false).Once()

		engine := NewEngine(cfg, fetcher, nil, nil, classifier, extractor, sink, nil, nil, nil)
		stats, err := engine.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 1, stats.RecordsRejected)
		require.Zero(t, stats.RecordsEmitted)
		sink.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
	})

	t.Run("sink write failure counts as rejection", func(t *testing.T) {
		seed := "https://jobs.example.com/jobs/1"
		cfg := testConfig()
		cfg.Seeds = []string{seed}
		record := JobRecord{Title: "Engineer", Company: "Example Corp", ApplyURL: seed}

		fetcher := new(MockFetcher)
		classifier := new(MockClassifier)
		extractor := new(MockExtractor)
		sink := new(MockSink)

		fetcher.On("Fetch", mock.Anything, seed).Return(htmlPage(seed, "<html></html>"), nil).Once()
		classifier.On("Classify", mock.Anything, mock.Anything).
			Return(Classification{Label: LabelJobDetail, Confidence: 0.7}).Once()
		extractor.On("Extract", mock.Anything, mock.Anything).Return(record, true).Once()
		sink.On("Write", mock.Anything, record).Return(errors.New("disk full")).Once()

		engine := NewEngine(cfg, fetcher, nil, nil, classifier, extractor, sink, nil, nil, nil)
		stats, err := engine.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 1, stats.RecordsRejected)
		require.Zero(t, stats.RecordsEmitted)
	})

	t.Run("canceled context is a terminal state, not an error mid-run", func(t *testing.T) {
		seed := "https://jobs.example.com/careers"
		ctx, cancel := context.WithCancel(context.Background())

		fetcher := new(MockFetcher)
		classifier := new(MockClassifier)
		listing := htmlPage(seed, listingHTML("https://jobs.example.com/jobs/1"))
		fetcher.On("Fetch", mock.Anything, seed).Run(func(mock.Arguments) {
			cancel()
		}).Return(listing, nil).Once()
		classifier.On("Classify", mock.Anything, mock.Anything).
			Return(Classification{Label: LabelListing, Confidence: 0.9}).Once()

		engine := NewEngine(testConfig(), fetcher, nil, nil, classifier, new(MockExtractor), new(MockSink), nil, nil, nil)
		stats, err := engine.Run(ctx)

		require.NoError(t, err)
		require.Equal(t, StopCanceled, stats.StopReason)
	})

	t.Run("invalid config aborts before any fetch", func(t *testing.T) {
		engine := NewEngine(Config{}, new(MockFetcher), nil, nil, new(MockClassifier), new(MockExtractor), new(MockSink), nil, nil, nil)
		_, err := engine.Run(context.Background())
		require.Error(t, err)
	})

	t.Run("per-host cap skips extra pages for a host", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxPagesPerHost = 1
		seed := cfg.Seeds[0]

		fetcher := new(MockFetcher)
		classifier := new(MockClassifier)

		listing := htmlPage(seed, listingHTML("https://jobs.example.com/jobs/1"))
		fetcher.On("Fetch", mock.Anything, seed).Return(listing, nil).Once()
		classifier.On("Classify", mock.Anything, mock.Anything).
			Return(Classification{Label: LabelListing, Confidence: 0.9}).Once()

		engine := NewEngine(cfg, fetcher, nil, nil, classifier, new(MockExtractor), new(MockSink), nil, nil, nil)
		stats, err := engine.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 1, stats.PagesVisited)
		fetcher.AssertNumberOfCalls(t, "Fetch", 1)
	})
}

func TestEngine_RenderPromotion(t *testing.T) {
	t.Run("detector promotes the page to a render", func(t *testing.T) {
		seed := "https://jobs.example.com/jobs/1"
		cfg := testConfig()
		cfg.Seeds = []string{seed}
		cfg.RenderEnabled = true
		cfg.RenderTimeout = 5 * time.Second

		static := htmlPage(seed, "<html><body>loading...</body></html>")
		rendered := htmlPage(seed, "<html><body><h1>Engineer</h1></body></html>")

		fetcher := new(MockFetcher)
		renderer := new(MockRenderer)
		detector := new(MockDetector)
		classifier := new(MockClassifier)

		fetcher.On("Fetch", mock.Anything, seed).Return(static, nil).Once()
		detector.On("NeedsJS", mock.Anything, mock.Anything).Return(true).Once()
		renderer.On("Render", mock.Anything, seed).Return(rendered, nil).Once()
		classifier.On("Classify", mock.Anything, mock.MatchedBy(func(p Page) bool {
			return p.UsedJS
		})).Return(Classification{Label: LabelIrrelevant, Confidence: 1}).Once()

		engine := NewEngine(cfg, fetcher, renderer, detector, classifier, new(MockExtractor), new(MockSink), nil, nil, nil)
		_, err := engine.Run(context.Background())

		require.NoError(t, err)
		renderer.AssertExpectations(t)
		detector.AssertExpectations(t)
	})

	t.Run("failed render keeps the static page", func(t *testing.T) {
		seed := "https://jobs.example.com/jobs/1"
		cfg := testConfig()
		cfg.Seeds = []string{seed}
		cfg.RenderEnabled = true
		cfg.RenderTimeout = 5 * time.Second

		static := htmlPage(seed, "<html><body>loading...</body></html>")

		fetcher := new(MockFetcher)
		renderer := new(MockRenderer)
		detector := new(MockDetector)
		classifier := new(MockClassifier)

		fetcher.On("Fetch", mock.Anything, seed).Return(static, nil).Once()
		detector.On("NeedsJS", mock.Anything, mock.Anything).Return(true).Once()
		renderer.On("Render", mock.Anything, seed).Return(Page{}, errors.New("browser crashed")).Once()
		classifier.On("Classify", mock.Anything, mock.MatchedBy(func(p Page) bool {
			return !p.UsedJS && p.URL == seed
		})).Return(Classification{Label: LabelIrrelevant, Confidence: 1}).Once()

		engine := NewEngine(cfg, fetcher, renderer, detector, classifier, new(MockExtractor), new(MockSink), nil, nil, nil)
		_, err := engine.Run(context.Background())

		require.NoError(t, err)
		classifier.AssertExpectations(t)
	})
}

func TestEngine_Close(t *testing.T) {
	renderer := new(MockRenderer)
	sink := new(MockSink)
	renderer.On("Close", mock.Anything).Return(nil).Once()
	sink.On("Close", mock.Anything).Return(nil).Once()

	engine := NewEngine(testConfig(), new(MockFetcher), renderer, new(MockDetector), new(MockClassifier), new(MockExtractor), sink, nil, nil, nil)
	require.NoError(t, engine.Close(context.Background()))
	renderer.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestEngine_Snapshot(t *testing.T) {
	seed := "https://jobs.example.com/careers"
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, seed).Return(Page{}, errors.New("unreachable")).Once()

	engine := NewEngine(testConfig(), fetcher, nil, nil, new(MockClassifier), new(MockExtractor), new(MockSink), nil, nil, nil)
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	snap := engine.Snapshot()
	require.Equal(t, 1, snap.PagesVisited)
	require.Equal(t, StopFrontierExhausted, snap.StopReason)
}
