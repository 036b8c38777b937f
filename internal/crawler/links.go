package crawler

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	jobPathPattern    = regexp.MustCompile(`(?i)/(job|jobs|careers?|apply|vacanc|listing|posting|position|opportunit)`)
	paginationPattern = regexp.MustCompile(`(?i)(^|&)(page|start|offset|p)=\d+`)
	jobWordPattern    = regexp.MustCompile(`(?i)(job|career|hiring|vacancy|position)`)
)

// ExtractLinks returns the candidate outbound URLs of a page: every href
// resolved against the page's final URL, restricted to absolute http(s)
// targets, fragment-stripped, and de-duplicated within the page. Order
// follows document order, which fixes BFS sibling order at the next depth.
// The result is deterministic for identical input.
func ExtractLinks(page Page) []string {
	if len(page.Body) == 0 {
		return nil
	}
	base, err := url.Parse(page.baseURL())
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if !isHTTPURL(resolved) {
			return
		}
		resolved.Fragment = ""
		candidate := resolved.String()
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		links = append(links, candidate)
	})
	return links
}

func (p Page) baseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// LooksJobRelated reports whether a candidate URL resembles a job listing or
// posting: a job-flavored path segment, a pagination query, or a job keyword
// anywhere in the URL.
func LooksJobRelated(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if jobPathPattern.MatchString(u.Path) {
		return true
	}
	if paginationPattern.MatchString(u.RawQuery) {
		return true
	}
	return jobWordPattern.MatchString(strings.ToLower(rawURL))
}

// FilterJobLinks keeps job-related candidates in their original order, capped
// at limit (no cap when limit <= 0).
func FilterJobLinks(links []string, limit int) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		if !LooksJobRelated(link) {
			continue
		}
		out = append(out, link)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
