package crawler

import "strings"

// HostPolicy decides which hosts a crawl may enter. A discovered URL is
// admissible when its host matches the entry's origin host (same-domain,
// including subdomains of the origin) or one of the configured allow
// patterns. Patterns are exact hosts or suffix wildcards ("*.example.com").
type HostPolicy struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewHostPolicy builds a policy from allow patterns. A nil or empty pattern
// list yields a same-origin-only policy.
func NewHostPolicy(patterns []string) *HostPolicy {
	p := &HostPolicy{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			p.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			p.addSuffix(strings.TrimPrefix(value, "."))
		default:
			p.exact[value] = struct{}{}
		}
	}
	return p
}

func (p *HostPolicy) addSuffix(suffix string) {
	if suffix == "" {
		return
	}
	for _, existing := range p.suffixes {
		if existing == suffix {
			return
		}
	}
	p.suffixes = append(p.suffixes, suffix)
}

// Admits reports whether host may be crawled for an entry originating at
// originHost.
func (p *HostPolicy) Admits(originHost, host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return false
	}
	origin := strings.TrimSpace(strings.ToLower(originHost))
	if origin != "" {
		if host == origin || strings.HasSuffix(host, "."+origin) {
			return true
		}
	}
	if p == nil {
		return false
	}
	if _, ok := p.exact[host]; ok {
		return true
	}
	for _, suffix := range p.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
