// Package crawler defines core types shared across subsystems and the
// breadth-first engine that drives a crawl run.
package crawler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Page is the rendered result of fetching a single URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Depth      int
	UsedJS     bool
	Duration   time.Duration
}

// ContentLength reports the size of the fetched body in bytes.
func (p Page) ContentLength() int {
	return len(p.Body)
}

// Label is the page type assigned by a classifier.
type Label string

// Supported page labels.
const (
	LabelListing    Label = "listing-index"
	LabelJobDetail  Label = "job-detail"
	LabelIrrelevant Label = "irrelevant"
)

// Classification is the verdict produced for one fetched page. It is
// transient: consumed by the engine in the same iteration it was produced.
type Classification struct {
	URL        string
	Label      Label
	Confidence float64
}

// JobRecord is a validated job posting ready for a result sink. Field order
// matches the sink contract: title, company, location, skills, description,
// apply_url.
type JobRecord struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location,omitempty"`
	Skills      []string `json:"skills"`
	Description string   `json:"description,omitempty"`
	ApplyURL    string   `json:"apply_url"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// Validate enforces the record schema: title, company, and apply_url must be
// present and apply_url must be an absolute http(s) URL. A record failing
// validation is discarded whole, never emitted partially.
func (r JobRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("job record missing title")
	}
	if strings.TrimSpace(r.Company) == "" {
		return fmt.Errorf("job record missing company")
	}
	if strings.TrimSpace(r.ApplyURL) == "" {
		return fmt.Errorf("job record missing apply_url")
	}
	u, err := url.Parse(r.ApplyURL)
	if err != nil {
		return fmt.Errorf("parse apply_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("apply_url %q is not an absolute http(s) URL", r.ApplyURL)
	}
	return nil
}

// StopReason explains why a crawl run ended. All values are normal
// terminal states, not errors.
type StopReason string

// Stop reasons reported in Stats.
const (
	StopFrontierExhausted StopReason = "frontier-exhausted"
	StopPageBudget        StopReason = "page-budget"
	StopDeadline          StopReason = "deadline"
	StopCanceled          StopReason = "canceled"
)

// Stats aggregates counters for one crawl run.
type Stats struct {
	PagesVisited    int        `json:"pages_visited"`
	FetchFailures   int        `json:"fetch_failures"`
	ListingPages    int        `json:"listing_pages"`
	DetailPages     int        `json:"detail_pages"`
	IrrelevantPages int        `json:"irrelevant_pages"`
	LinksDiscovered int        `json:"links_discovered"`
	LinksAdmitted   int        `json:"links_admitted"`
	RecordsEmitted  int        `json:"records_emitted"`
	RecordsRejected int        `json:"records_rejected"`
	StopReason      StopReason `json:"stop_reason"`
	Started         time.Time  `json:"started_at"`
	Finished        time.Time  `json:"finished_at"`
}
