package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobRecordValidate(t *testing.T) {
	valid := JobRecord{
		Title:    "Backend Engineer",
		Company:  "Example Corp",
		ApplyURL: "https://example.com/jobs/1/apply",
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*JobRecord)
	}{
		{"missing title", func(r *JobRecord) { r.Title = "  " }},
		{"missing company", func(r *JobRecord) { r.Company = "" }},
		{"missing apply_url", func(r *JobRecord) { r.ApplyURL = "" }},
		{"relative apply_url", func(r *JobRecord) { r.ApplyURL = "/jobs/1/apply" }},
		{"non-http apply_url", func(r *JobRecord) { r.ApplyURL = "ftp://example.com/apply" }},
		{"unparseable apply_url", func(r *JobRecord) { r.ApplyURL = "http://[::bad" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			require.Error(t, r.Validate())
		})
	}
}

func TestSnapshotObjectName(t *testing.T) {
	page := Page{URL: "https://example.com/jobs/1", FinalURL: "https://example.com/jobs/1"}
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	name := snapshotObjectName(page, at)
	require.Contains(t, name, "pages/2026-03-14/")
	require.Contains(t, name, ".html")
	require.Equal(t, name, snapshotObjectName(page, at))
}
