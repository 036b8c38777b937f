package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"jobsift/internal/progress"
)

func TestPrometheusSinkConsume(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(registry)
	require.NoError(t, err)

	runID := uuid.New()
	now := time.Now().UTC()
	batch := []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart},
		{
			RunID: runID, TS: now, Stage: progress.StageFetchDone,
			Host: "example.com", StatusClass: progress.Status2xx,
			Bytes: 2048, Dur: 120 * time.Millisecond,
		},
		{
			RunID: runID, TS: now, Stage: progress.StageFetchDone,
			Host: "example.com", StatusClass: progress.Status4xx,
		},
		{RunID: runID, TS: now, Stage: progress.StagePageClassified, Label: "listing-index"},
		{RunID: runID, TS: now, Stage: progress.StageRecordEmitted, URL: "https://example.com/jobs/1"},
		{RunID: runID, TS: now, Stage: progress.StageRecordRejected, URL: "https://example.com/jobs/2"},
		{RunID: runID, TS: now, Stage: progress.StageAssistDegraded},
		{RunID: runID, TS: now, Stage: progress.StageRunDone, Dur: time.Second},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("example.com", "2xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("example.com", "4xx")))
	require.Equal(t, 2048.0, testutil.ToFloat64(sink.fetchBytes.WithLabelValues("example.com")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.classifications.WithLabelValues("listing-index")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.records.WithLabelValues("emitted")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.records.WithLabelValues("rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.assistDegraded))
}

func TestPrometheusSinkDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewPrometheusSink(registry)
	require.NoError(t, err)

	_, err = NewPrometheusSink(registry)
	require.Error(t, err)
}

func TestPrometheusSinkUnknownHost(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(registry)
	require.NoError(t, err)

	batch := []progress.Event{{
		RunID: uuid.New(), TS: time.Now().UTC(),
		Stage: progress.StageFetchDone,
	}}
	require.NoError(t, sink.Consume(context.Background(), batch))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("unknown", "other")))
}
