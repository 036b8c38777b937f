// Package extract turns job-detail pages into validated JobRecords using
// field-specific selector rules, a skills vocabulary, and an optional
// model-backed completion fallback.
package extract

import "strings"

// Rule is an ordered list of CSS selectors per job field. Selectors are tried
// in order; the first match with usable text wins.
type Rule struct {
	Title       []string
	Company     []string
	Location    []string
	Description []string
	Apply       []string
	Skills      []string
}

// RuleTable maps hosts to specialized extraction rules, falling back to a
// generic rule for everything else. Known job boards differ enough in markup
// that a per-host override earns its keep.
type RuleTable struct {
	generic Rule
	byHost  map[string]Rule
}

// NewRuleTable builds a table over the generic rule.
func NewRuleTable(generic Rule) *RuleTable {
	return &RuleTable{
		generic: generic,
		byHost:  make(map[string]Rule),
	}
}

// Register installs a specialized rule for host (exact hostname or a
// "*.suffix" pattern matched against subdomains).
func (t *RuleTable) Register(host string, rule Rule) {
	t.byHost[strings.ToLower(strings.TrimSpace(host))] = rule
}

// For returns the rule to use for host.
func (t *RuleTable) For(host string) Rule {
	host = strings.ToLower(strings.TrimSpace(host))
	if rule, ok := t.byHost[host]; ok {
		return rule
	}
	for pattern, rule := range t.byHost {
		suffix, ok := strings.CutPrefix(pattern, "*.")
		if !ok {
			continue
		}
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return rule
		}
	}
	return t.generic
}

// GenericRule matches the loose markup conventions most job pages follow.
func GenericRule() Rule {
	return Rule{
		Title: []string{
			`h1[class*="title"]`, `h1[class*="job"]`, `h1[class*="position"]`,
			`h2[class*="title"]`, `h2[class*="job"]`,
			".job-title", ".position-title", "h1", "h2",
		},
		Company: []string{
			`[class*="company-name"]`, `[class*="company"]`, `[class*="employer"]`,
			`[class*="organization"]`, ".company", `[itemprop="hiringOrganization"]`,
		},
		Location: []string{
			`[class*="location"]`, `[class*="address"]`, `[class*="remote"]`,
			".location", ".job-location", `[itemprop="jobLocation"]`,
		},
		Description: []string{
			`[class*="job-description"]`, `[class*="description"]`,
			`[class*="details"]`, `[class*="requirements"]`, ".job-content", "article",
		},
		Apply: []string{
			`a[href*="apply"]`, `a[class*="apply"]`, ".apply-btn a", ".apply-link",
			`a[class*="button"]`,
		},
		Skills: []string{
			`[class*="skill"] li`, `[class*="skills"] a`, `[class*="tag"]`,
			".tags a", `[class*="tech"] li`,
		},
	}
}

// DefaultRules returns the generic table plus overrides for the job boards
// whose markup the generic selectors misread.
func DefaultRules() *RuleTable {
	t := NewRuleTable(GenericRule())

	t.Register("*.lever.co", Rule{
		Title:       []string{".posting-headline h2", "h2"},
		Company:     []string{".main-header-logo img[alt]", ".posting-categories .sort-by-team"},
		Location:    []string{".posting-categories .location", ".sort-by-location"},
		Description: []string{".section-wrapper .section", ".content"},
		Apply:       []string{`a[href*="/apply"]`, ".postings-btn"},
		Skills:      []string{".posting-requirements li"},
	})

	t.Register("*.greenhouse.io", Rule{
		Title:       []string{".app-title", "h1"},
		Company:     []string{".company-name", "#header .company-name"},
		Location:    []string{".location"},
		Description: []string{"#content", ".content"},
		Apply:       []string{"#apply_button", `a[href*="#app"]`, `a[href*="apply"]`},
		Skills:      []string{"#content ul li"},
	})

	t.Register("weworkremotely.com", Rule{
		Title:       []string{".listing-header-container h1", "h1"},
		Company:     []string{".company-card h2", ".company"},
		Location:    []string{".region", ".listing-header-container .location"},
		Description: []string{".listing-container"},
		Apply:       []string{"#apply-cta", `a[class*="apply"]`, `a[href*="apply"]`},
		Skills:      []string{".listing-tags a"},
	})

	t.Register("remoteok.com", Rule{
		Title:       []string{`h2[itemprop="title"]`, "h2"},
		Company:     []string{`h3[itemprop="name"]`, ".companyLink h3"},
		Location:    []string{".location"},
		Description: []string{`[itemprop="description"]`, ".description"},
		Apply:       []string{`a[class*="apply"]`, `a[href*="apply"]`},
		Skills:      []string{".tags .tag"},
	})

	return t
}
