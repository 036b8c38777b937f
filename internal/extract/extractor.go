package extract

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobsift/internal/assist"
	"jobsift/internal/crawler"
)

// Config controls extraction behavior.
type Config struct {
	// MaxDescriptionChars truncates the description field.
	MaxDescriptionChars int
	// MinDescriptionChars is the floor below which a candidate block is not
	// treated as the description.
	MinDescriptionChars int
	// AssistTimeout bounds the optional model-backed completion call.
	AssistTimeout time.Duration
}

// DefaultConfig mirrors the limits that work on real postings.
func DefaultConfig() Config {
	return Config{
		MaxDescriptionChars: 2000,
		MinDescriptionChars: 100,
		AssistTimeout:       30 * time.Second,
	}
}

// Extractor produces validated JobRecords from job-detail pages.
type Extractor struct {
	cfg    Config
	rules  *RuleTable
	skills *SkillSet
	svc    assist.Client
	logger *zap.Logger
}

// New builds an Extractor. rules and skills fall back to the defaults; svc
// may be nil to disable model-backed completion.
func New(cfg Config, rules *RuleTable, skills *SkillSet, svc assist.Client, logger *zap.Logger) *Extractor {
	if cfg.MaxDescriptionChars <= 0 {
		cfg.MaxDescriptionChars = DefaultConfig().MaxDescriptionChars
	}
	if cfg.MinDescriptionChars <= 0 {
		cfg.MinDescriptionChars = DefaultConfig().MinDescriptionChars
	}
	if cfg.AssistTimeout <= 0 {
		cfg.AssistTimeout = DefaultConfig().AssistTimeout
	}
	if rules == nil {
		rules = DefaultRules()
	}
	if skills == nil {
		skills = NewSkillSet(DefaultVocabulary())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		cfg:    cfg,
		rules:  rules,
		skills: skills,
		svc:    svc,
		logger: logger,
	}
}

// Extract implements crawler.Extractor. The returned bool is false when no
// complete record could be produced; a partially-filled record is never
// returned as ok.
func (x *Extractor) Extract(ctx context.Context, page crawler.Page) (crawler.JobRecord, bool) {
	base, err := url.Parse(pageBase(page))
	if err != nil {
		return crawler.JobRecord{}, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return crawler.JobRecord{}, false
	}

	record := x.heuristicExtract(doc, base)
	record.SourceURL = page.URL

	if record.Validate() != nil && x.svc != nil {
		record = x.completeWithAssist(ctx, page, base, record)
	}

	if err := record.Validate(); err != nil {
		x.logger.Debug("candidate discarded",
			zap.String("url", page.URL), zap.Error(err))
		return crawler.JobRecord{}, false
	}
	if record.Skills == nil {
		record.Skills = []string{}
	}
	return record, true
}

func (x *Extractor) heuristicExtract(doc *goquery.Document, base *url.URL) crawler.JobRecord {
	rule := x.rules.For(strings.ToLower(base.Hostname()))

	record := crawler.JobRecord{
		Title:    firstText(doc, rule.Title),
		Company:  firstText(doc, rule.Company),
		Location: firstText(doc, rule.Location),
	}

	if desc := x.findDescription(doc, rule.Description); desc != "" {
		record.Description = desc
	}

	record.ApplyURL = x.findApplyURL(doc, rule.Apply, base)

	record.Skills = selectorSkills(doc, rule.Skills)
	if len(record.Skills) == 0 {
		record.Skills = x.skills.Match(record.Description)
	}

	return record
}

// findApplyURL resolves the first usable call-to-action href against the page
// base, defaulting to the page itself when no anchor qualifies.
func (x *Extractor) findApplyURL(doc *goquery.Document, selectors []string, base *url.URL) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		href, ok := sel.Attr("href")
		if !ok {
			continue
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		return resolved.String()
	}
	return base.String()
}

func (x *Extractor) findDescription(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := normalizeSpace(sel.Text())
			if len(text) >= x.cfg.MinDescriptionChars {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			if len(found) > x.cfg.MaxDescriptionChars {
				found = found[:x.cfg.MaxDescriptionChars]
			}
			return found
		}
	}
	return ""
}

// completeWithAssist asks the model-backed service to fill fields the
// heuristics missed. Service output only ever fills gaps; it never overrides
// a field the heuristics already found, and a failed call leaves the record
// unchanged.
func (x *Extractor) completeWithAssist(ctx context.Context, page crawler.Page, base *url.URL, record crawler.JobRecord) crawler.JobRecord {
	svcCtx, cancel := context.WithTimeout(ctx, x.cfg.AssistTimeout)
	defer cancel()

	hints, err := x.svc.CompleteRecord(svcCtx, page.URL, page.Body)
	if err != nil {
		x.logger.Warn("assist completion failed, keeping heuristic record",
			zap.String("url", page.URL), zap.Error(err))
		return record
	}

	if record.Title == "" {
		record.Title = strings.TrimSpace(hints.Title)
	}
	if record.Company == "" {
		record.Company = strings.TrimSpace(hints.Company)
	}
	if record.Location == "" {
		record.Location = strings.TrimSpace(hints.Location)
	}
	if record.Description == "" && hints.Description != "" {
		desc := normalizeSpace(hints.Description)
		if len(desc) > x.cfg.MaxDescriptionChars {
			desc = desc[:x.cfg.MaxDescriptionChars]
		}
		record.Description = desc
	}
	if len(record.Skills) == 0 && len(hints.Skills) > 0 {
		record.Skills = hints.Skills
	}
	if record.ApplyURL == "" || record.ApplyURL == base.String() {
		if resolved := resolveHint(base, hints.ApplyURL); resolved != "" {
			record.ApplyURL = resolved
		}
	}
	return record
}

func resolveHint(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func selectorSkills(doc *goquery.Document, selectors []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := normalizeSpace(sel.Text())
			if text == "" || len(text) > 40 {
				return
			}
			key := strings.ToLower(text)
			if _, ok := seen[key]; ok {
				return
			}
			seen[key] = struct{}{}
			out = append(out, text)
		})
		if len(out) > 0 {
			return out
		}
	}
	return out
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if text := normalizeSpace(sel.Text()); text != "" {
				found = text
				return false
			}
			if alt, ok := sel.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
				found = strings.TrimSpace(alt)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func pageBase(page crawler.Page) string {
	if page.FinalURL != "" {
		return page.FinalURL
	}
	return page.URL
}
