package classify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobsift/internal/assist"
	"jobsift/internal/crawler"
	"jobsift/internal/progress"
)

// AssistedConfig controls when and how the model-backed service is consulted.
type AssistedConfig struct {
	// AmbiguousLow and AmbiguousHigh bound the heuristic-confidence band in
	// which the service is asked for a second opinion.
	AmbiguousLow  float64
	AmbiguousHigh float64
	// Timeout bounds the service call so it can never stall the frontier loop.
	Timeout time.Duration
}

// Assisted wraps a Heuristic classifier with a model-backed second opinion.
// Outside the ambiguous band, or whenever the service misbehaves, the
// heuristic verdict stands untouched.
type Assisted struct {
	heuristic *Heuristic
	svc       assist.Client
	cfg       AssistedConfig
	emitter   progress.Emitter
	logger    *zap.Logger
}

// NewAssisted builds the service-assisted classifier. svc may be nil, in
// which case behavior is identical to the heuristic alone. emitter receives a
// degradation event whenever the service misbehaves.
func NewAssisted(heuristic *Heuristic, svc assist.Client, cfg AssistedConfig, emitter progress.Emitter, logger *zap.Logger) *Assisted {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assisted{
		heuristic: heuristic,
		svc:       svc,
		cfg:       cfg,
		emitter:   emitter,
		logger:    logger,
	}
}

// Classify implements crawler.Classifier.
func (a *Assisted) Classify(ctx context.Context, page crawler.Page) crawler.Classification {
	verdict := a.heuristic.Classify(ctx, page)
	if a.svc == nil || !a.ambiguous(verdict.Confidence) {
		return verdict
	}

	svcCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	label, err := a.svc.LabelPage(svcCtx, page.URL, page.Body)
	if err != nil {
		a.logger.Warn("assist label failed, keeping heuristic verdict",
			zap.String("url", page.URL), zap.Error(err))
		a.emitDegraded(ctx, page.URL, err.Error())
		return verdict
	}

	switch crawler.Label(label) {
	case crawler.LabelListing, crawler.LabelJobDetail, crawler.LabelIrrelevant:
		verdict.Label = crawler.Label(label)
	default:
		a.logger.Warn("assist returned unknown label, keeping heuristic verdict",
			zap.String("url", page.URL), zap.String("label", label))
		a.emitDegraded(ctx, page.URL, "unknown label "+label)
	}
	return verdict
}

func (a *Assisted) emitDegraded(ctx context.Context, url, note string) {
	runID, ok := progress.RunIDFrom(ctx)
	if !ok {
		return
	}
	a.emitter.Emit(progress.Event{
		RunID: runID,
		TS:    time.Now().UTC(),
		Stage: progress.StageAssistDegraded,
		URL:   url,
		Note:  note,
	})
}

func (a *Assisted) ambiguous(confidence float64) bool {
	return confidence >= a.cfg.AmbiguousLow && confidence <= a.cfg.AmbiguousHigh
}
