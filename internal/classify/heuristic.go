// Package classify labels fetched pages as listing-index, job-detail, or
// irrelevant. The heuristic classifier works from structural HTML signals;
// the assisted variant layers an optional model-backed service on top for
// ambiguous pages.
package classify

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobsift/internal/crawler"
)

// Config holds the tunable thresholds. The score boundaries are heuristic by
// nature, so they live in configuration rather than constants.
type Config struct {
	// ListingThreshold is the minimum listing score to label listing-index.
	ListingThreshold float64
	// DetailThreshold is the minimum detail score to label job-detail.
	DetailThreshold float64
}

// DefaultConfig returns thresholds that behave sensibly on common job boards.
func DefaultConfig() Config {
	return Config{
		ListingThreshold: 0.5,
		DetailThreshold:  0.5,
	}
}

// Heuristic scores pages from structural signals alone.
type Heuristic struct {
	cfg Config
}

// NewHeuristic constructs a heuristic classifier.
func NewHeuristic(cfg Config) *Heuristic {
	if cfg.ListingThreshold <= 0 {
		cfg.ListingThreshold = DefaultConfig().ListingThreshold
	}
	if cfg.DetailThreshold <= 0 {
		cfg.DetailThreshold = DefaultConfig().DetailThreshold
	}
	return &Heuristic{cfg: cfg}
}

// Classify produces exactly one Classification per page. It never fails: a
// page that cannot be parsed is simply irrelevant.
func (h *Heuristic) Classify(_ context.Context, page crawler.Page) crawler.Classification {
	out := crawler.Classification{URL: page.URL, Label: crawler.LabelIrrelevant, Confidence: 1}
	if len(page.Body) == 0 {
		return out
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return out
	}

	listing := listingScore(doc)
	detail := detailScore(doc)

	switch {
	case listing >= h.cfg.ListingThreshold && listing >= detail:
		out.Label = crawler.LabelListing
		out.Confidence = listing
	case detail >= h.cfg.DetailThreshold:
		out.Label = crawler.LabelJobDetail
		out.Confidence = detail
	default:
		out.Confidence = 1 - maxScore(listing, detail)
	}
	return out
}

// listingScore combines repeated job-shaped sibling blocks, job-flavored
// outbound links, and pagination controls.
func listingScore(doc *goquery.Document) float64 {
	jobBlocks := doc.Find(
		"div[class*=job], li[class*=job], article[class*=job], " +
			"div[class*=vacanc], li[class*=vacanc], " +
			"div[class*=position], li[class*=position], " +
			"div[class*=opening], li[class*=opening], " +
			"div[class*=listing], li[class*=listing]",
	).Length()

	jobLinks := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if crawler.LooksJobRelated(href) {
			jobLinks++
		}
	})

	pagination := 0.0
	if doc.Find("[class*=pagination], [class*=pager], a[rel=next]").Length() > 0 {
		pagination = 1.0
	}

	return clamp(0.45*ratio(jobBlocks, 4) + 0.35*ratio(jobLinks, 5) + 0.2*pagination)
}

// detailScore combines a single dominant heading, an apply call-to-action,
// labeled company/location elements, and a substantial description block.
func detailScore(doc *goquery.Document) float64 {
	heading := 0.0
	h1 := doc.Find("h1")
	if h1.Length() == 1 && strings.TrimSpace(h1.First().Text()) != "" {
		heading = 1.0
	} else if h1.Length() > 0 {
		heading = 0.5
	}

	apply := 0.0
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if isApplyAnchor(sel) {
			apply = 1.0
			return false
		}
		return true
	})

	labels := doc.Find("[class*=location], [class*=company], [class*=employer], [class*=salary]").Length()

	longText := 0.0
	doc.Find("[class*=description], [class*=job-content], [class*=details], article, main").
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if len(strings.TrimSpace(sel.Text())) > 200 {
				longText = 1.0
				return false
			}
			return true
		})

	return clamp(0.35*heading + 0.3*apply + 0.2*ratio(labels, 2) + 0.15*longText)
}

func isApplyAnchor(sel *goquery.Selection) bool {
	href, _ := sel.Attr("href")
	class, _ := sel.Attr("class")
	text := sel.Text()
	for _, v := range []string{href, class, text} {
		if strings.Contains(strings.ToLower(v), "apply") {
			return true
		}
	}
	return false
}

func ratio(n, full int) float64 {
	if full <= 0 || n <= 0 {
		return 0
	}
	r := float64(n) / float64(full)
	if r > 1 {
		return 1
	}
	return r
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxScore(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
