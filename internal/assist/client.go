// Package assist talks to an optional model-backed service that can label a
// page or fill in missing job fields. The service is treated as unreliable:
// every response is parsed defensively and every failure degrades to "no
// enhancement available" rather than surfacing to the crawl loop.
package assist

import (
	"context"
	"strings"
)

// RecordHints carries field values suggested by the service. Empty fields
// mean the service had nothing to offer for them.
type RecordHints struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
	ApplyURL    string   `json:"apply_url"`
}

// Client is the boundary to the model-backed service.
type Client interface {
	// LabelPage asks the service to label an HTML fragment as one of
	// "listing-index", "job-detail", or "irrelevant".
	LabelPage(ctx context.Context, rawURL string, html []byte) (string, error)
	// CompleteRecord asks the service to extract job fields from an HTML
	// fragment.
	CompleteRecord(ctx context.Context, rawURL string, html []byte) (RecordHints, error)
}

func labelPrompt(rawURL string, html string) string {
	var b strings.Builder
	b.WriteString("Classify the following HTML from ")
	b.WriteString(rawURL)
	b.WriteString(" as exactly one of: listing-index (a page of links to job postings), ")
	b.WriteString("job-detail (a page describing a single job opening), or irrelevant.\n")
	b.WriteString("Return ONLY a JSON object of the form {\"label\": \"...\"}.\n\nHTML:\n")
	b.WriteString(html)
	return b.String()
}

func extractPrompt(rawURL string, html string) string {
	var b strings.Builder
	b.WriteString("Extract job posting details from the following HTML from ")
	b.WriteString(rawURL)
	b.WriteString(".\nLook for: title (the job's heading), company, location, ")
	b.WriteString("skills (a list of required technologies), description, and apply_url ")
	b.WriteString("(the link to apply; use the page URL if none is present, and make relative URLs absolute).\n")
	b.WriteString("Return ONLY a JSON object with keys title, company, location, skills, description, apply_url. ")
	b.WriteString("Use null for fields you cannot find.\n\nHTML:\n")
	b.WriteString(html)
	return b.String()
}

// truncateHTML bounds the fragment sent to the service.
func truncateHTML(html []byte, limit int) string {
	if limit > 0 && len(html) > limit {
		return string(html[:limit])
	}
	return string(html)
}
