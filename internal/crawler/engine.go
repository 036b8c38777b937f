package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobsift/internal/progress"
)

// Engine drives a breadth-first crawl: it drains the frontier one entry at a
// time, fetches and classifies each page, feeds listing pages back into the
// frontier, and hands job-detail pages to the extractor. Per-page failures
// are absorbed; only startup validation can abort a run.
type Engine struct {
	cfg       Config
	frontier  *Frontier
	fetcher   Fetcher
	renderer  Renderer
	detector  RenderDetector
	classify  Classifier
	extract   Extractor
	sink      RecordSink
	snapshots SnapshotStore
	emitter   progress.Emitter
	logger    *zap.Logger

	hostPages map[string]int

	statsMu   sync.Mutex
	lastStats Stats
}

// NewEngine wires the crawl pipeline. renderer, detector, and snapshots may
// be nil; emitter and logger fall back to no-ops.
func NewEngine(
	cfg Config,
	fetcher Fetcher,
	renderer Renderer,
	detector RenderDetector,
	classifier Classifier,
	extractor Extractor,
	sink RecordSink,
	snapshots SnapshotStore,
	emitter progress.Emitter,
	logger *zap.Logger,
) *Engine {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		frontier:  NewFrontier(cfg.MaxDepth, NewHostPolicy(cfg.AllowedHosts)),
		fetcher:   fetcher,
		renderer:  renderer,
		detector:  detector,
		classify:  classifier,
		extract:   extractor,
		sink:      sink,
		snapshots: snapshots,
		emitter:   emitter,
		logger:    logger,
		hostPages: make(map[string]int),
	}
}

// Close releases the renderer and the record sink.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.renderer != nil {
		if err := e.renderer.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if e.sink != nil {
		if err := e.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run executes the crawl until the frontier empties or a budget is reached.
// Budget exhaustion is a normal terminal state reported in Stats, not an
// error. The returned error is non-nil only for invalid configuration or a
// context canceled before any work started.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	if err := e.cfg.Validate(); err != nil {
		return Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	if e.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}

	runID := uuid.New()
	ctx = progress.WithRunID(ctx, runID)
	stats := Stats{Started: time.Now().UTC()}
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    stats.Started,
		Stage: progress.StageRunStart,
	})

	for _, seed := range e.cfg.Seeds {
		if e.frontier.Enqueue(seed, 0, HostOf(seed)) {
			stats.LinksAdmitted++
		} else {
			e.logger.Warn("seed not admitted", zap.String("url", seed))
		}
	}

	for {
		if ctx.Err() != nil {
			stats.StopReason = stopFromContext(ctx)
			break
		}
		if stats.PagesVisited >= e.cfg.MaxPages {
			stats.StopReason = StopPageBudget
			break
		}
		entry, err := e.frontier.Dequeue()
		if errors.Is(err, ErrEmptyFrontier) {
			stats.StopReason = StopFrontierExhausted
			break
		}
		e.processEntry(ctx, runID, entry, &stats)
		e.storeStats(stats)
	}

	stats.Finished = time.Now().UTC()
	e.storeStats(stats)
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    stats.Finished,
		Stage: progress.StageRunDone,
		Dur:   stats.Finished.Sub(stats.Started),
		Note:  string(stats.StopReason),
	})
	return stats, nil
}

func (e *Engine) storeStats(s Stats) {
	e.statsMu.Lock()
	e.lastStats = s
	e.statsMu.Unlock()
}

// Snapshot returns the most recent counters. Safe to call from another
// goroutine while Run is in progress.
func (e *Engine) Snapshot() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.lastStats
}

func stopFromContext(ctx context.Context) StopReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StopDeadline
	}
	return StopCanceled
}

func (e *Engine) processEntry(ctx context.Context, runID uuid.UUID, entry FrontierEntry, stats *Stats) {
	host := HostOf(entry.URL)
	if e.cfg.MaxPagesPerHost > 0 && e.hostPages[host] >= e.cfg.MaxPagesPerHost {
		e.logger.Debug("host page budget reached, skipping",
			zap.String("host", host), zap.String("url", entry.URL))
		return
	}
	e.hostPages[host]++
	stats.PagesVisited++

	page, ok := e.fetchPage(ctx, runID, entry, host)
	if !ok {
		stats.FetchFailures++
		return
	}

	verdict := e.classify.Classify(ctx, page)
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: progress.StagePageClassified,
		Host:  host,
		URL:   entry.URL,
		Label: string(verdict.Label),
	})

	switch verdict.Label {
	case LabelListing:
		stats.ListingPages++
		e.enqueueLinks(entry, page, stats)
	case LabelJobDetail:
		stats.DetailPages++
		e.extractRecord(ctx, runID, entry, page, stats)
	default:
		stats.IrrelevantPages++
	}
}

func (e *Engine) fetchPage(ctx context.Context, runID uuid.UUID, entry FrontierEntry, host string) (Page, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	started := time.Now()
	page, err := e.fetcher.Fetch(fetchCtx, entry.URL)
	page.Depth = entry.Depth
	elapsed := time.Since(started)

	if err != nil {
		e.logger.Warn("fetch failed, skipping url",
			zap.String("url", entry.URL), zap.Error(err))
		e.emitter.Emit(progress.Event{
			RunID:       runID,
			TS:          time.Now().UTC(),
			Stage:       progress.StageFetchDone,
			Host:        host,
			URL:         entry.URL,
			StatusClass: progress.StatusOther,
			Dur:         elapsed,
			Note:        err.Error(),
		})
		return Page{}, false
	}

	e.emitter.Emit(progress.Event{
		RunID:       runID,
		TS:          time.Now().UTC(),
		Stage:       progress.StageFetchDone,
		Host:        host,
		URL:         entry.URL,
		StatusClass: progress.ClassifyStatus(page.StatusCode),
		Bytes:       int64(page.ContentLength()),
		Dur:         elapsed,
	})

	if page.StatusCode < 200 || page.StatusCode >= 300 {
		e.logger.Warn("non-2xx response, skipping url",
			zap.String("url", entry.URL), zap.Int("status_code", page.StatusCode))
		return Page{}, false
	}

	return e.maybeRender(ctx, entry, page), true
}

// maybeRender promotes the page to a headless render when the detector says
// the cheap fetch likely missed JS-built content. A failed render keeps the
// static page; rendering is best effort.
func (e *Engine) maybeRender(ctx context.Context, entry FrontierEntry, page Page) Page {
	if !e.cfg.RenderEnabled || e.renderer == nil || e.detector == nil {
		return page
	}
	if !e.detector.NeedsJS(ctx, page) {
		return page
	}
	renderCtx, cancel := context.WithTimeout(ctx, e.cfg.RenderTimeout)
	defer cancel()
	rendered, err := e.renderer.Render(renderCtx, entry.URL)
	if err != nil {
		e.logger.Warn("render promotion failed, keeping static page",
			zap.String("url", entry.URL), zap.Error(err))
		return page
	}
	rendered.Depth = entry.Depth
	rendered.UsedJS = true
	return rendered
}

func (e *Engine) enqueueLinks(entry FrontierEntry, page Page, stats *Stats) {
	links := ExtractLinks(page)
	stats.LinksDiscovered += len(links)
	for _, link := range FilterJobLinks(links, e.cfg.MaxLinksPerPage) {
		if e.frontier.Enqueue(link, entry.Depth+1, entry.OriginHost) {
			stats.LinksAdmitted++
		}
	}
}

func (e *Engine) extractRecord(ctx context.Context, runID uuid.UUID, entry FrontierEntry, page Page, stats *Stats) {
	record, ok := e.extract.Extract(ctx, page)
	if !ok {
		stats.RecordsRejected++
		e.emitter.Emit(progress.Event{
			RunID: runID,
			TS:    time.Now().UTC(),
			Stage: progress.StageRecordRejected,
			Host:  HostOf(entry.URL),
			URL:   entry.URL,
		})
		return
	}

	if err := e.sink.Write(ctx, record); err != nil {
		e.logger.Error("sink write failed",
			zap.String("url", entry.URL), zap.String("title", record.Title), zap.Error(err))
		stats.RecordsRejected++
		return
	}
	stats.RecordsEmitted++
	e.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: progress.StageRecordEmitted,
		Host:  HostOf(entry.URL),
		URL:   entry.URL,
		Note:  record.Title,
	})

	if e.cfg.SnapshotRecords && e.snapshots != nil {
		name := snapshotObjectName(page, time.Now().UTC())
		if err := e.snapshots.Save(ctx, name, page.Body); err != nil {
			e.logger.Warn("snapshot save failed",
				zap.String("url", entry.URL), zap.Error(err))
		}
	}
}
