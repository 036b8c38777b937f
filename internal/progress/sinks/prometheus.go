package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"jobsift/internal/progress"
)

// PrometheusSink exports crawl progress via Prometheus. It owns the
// collectors for run lifecycle, fetch traffic, classifications, and record
// output.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runDuration   prometheus.Histogram

	fetches         *prometheus.CounterVec
	fetchBytes      *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	classifications *prometheus.CounterVec
	records         *prometheus.CounterVec
	assistDegraded  prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobsift_runs_started_total",
			Help: "Total crawl runs started.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobsift_runs_completed_total",
			Help: "Total crawl runs completed.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobsift_run_duration_seconds",
			Help:    "Wall time per completed crawl run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_fetches_total",
			Help: "Fetch completions partitioned by host and status class.",
		}, []string{"host", "status_class"}),
		fetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_fetch_bytes_total",
			Help: "Bytes downloaded per host.",
		}, []string{"host"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobsift_fetch_duration_seconds",
			Help:    "Fetch duration partitioned by host.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"host"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_pages_classified_total",
			Help: "Classified pages partitioned by label.",
		}, []string{"label"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsift_records_total",
			Help: "Extraction outcomes partitioned by result.",
		}, []string{"result"}),
		assistDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobsift_assist_degraded_total",
			Help: "Model-assist calls that fell back to heuristics.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runDuration,
		s.fetches,
		s.fetchBytes,
		s.fetchDuration,
		s.classifications,
		s.records,
		s.assistDegraded,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageRunDone:
		s.runsCompleted.Inc()
		if evt.Dur > 0 {
			s.runDuration.Observe(evt.Dur.Seconds())
		}
	case progress.StageFetchDone:
		s.consumeFetch(evt)
	case progress.StagePageClassified:
		s.classifications.WithLabelValues(evt.Label).Inc()
	case progress.StageRecordEmitted:
		s.records.WithLabelValues("emitted").Inc()
	case progress.StageRecordRejected:
		s.records.WithLabelValues("rejected").Inc()
	case progress.StageAssistDegraded:
		s.assistDegraded.Inc()
	}
}

func (s *PrometheusSink) consumeFetch(evt progress.Event) {
	host := evt.Host
	if host == "" {
		host = "unknown"
	}
	statusClass := string(evt.StatusClass)
	if statusClass == "" {
		statusClass = string(progress.StatusOther)
	}
	s.fetches.WithLabelValues(host, statusClass).Inc()
	if evt.Bytes > 0 {
		s.fetchBytes.WithLabelValues(host).Add(float64(evt.Bytes))
	}
	if evt.Dur > 0 {
		s.fetchDuration.WithLabelValues(host).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
