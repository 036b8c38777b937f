package extract

import (
	"regexp"
	"strings"
)

// SkillSet matches a controlled vocabulary of skill keywords against free
// text. Matches are returned in order of first appearance, which keeps the
// skills sequence stable for identical input.
type SkillSet struct {
	patterns []skillPattern
}

type skillPattern struct {
	name string
	re   *regexp.Regexp
}

// NewSkillSet compiles a vocabulary. Terms are matched case-insensitively on
// word boundaries; empty terms are skipped. Boundaries are only anchored next
// to word characters, otherwise terms like "C++" could never match.
func NewSkillSet(vocabulary []string) *SkillSet {
	s := &SkillSet{}
	for _, term := range vocabulary {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		pattern := regexp.QuoteMeta(term)
		if isWordRune(rune(term[0])) {
			pattern = `\b` + pattern
		}
		if isWordRune(rune(term[len(term)-1])) {
			pattern += `\b`
		}
		re, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			continue
		}
		s.patterns = append(s.patterns, skillPattern{name: term, re: re})
	}
	return s
}

func isWordRune(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// Match returns vocabulary terms present in text, ordered by first
// appearance, without duplicates.
func (s *SkillSet) Match(text string) []string {
	if s == nil || text == "" {
		return nil
	}
	type hit struct {
		name string
		pos  int
	}
	var hits []hit
	for _, p := range s.patterns {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		hits = append(hits, hit{name: p.name, pos: loc[0]})
	}
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}

// DefaultVocabulary covers the technologies job postings name most often.
func DefaultVocabulary() []string {
	return []string{
		"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "Rust",
		"C++", "C#", "Ruby", "PHP", "Kotlin", "Swift", "Scala", "SQL",
		"PostgreSQL", "MySQL", "MongoDB", "Redis", "Kafka", "Elasticsearch",
		"Docker", "Kubernetes", "Terraform", "AWS", "GCP", "Azure",
		"React", "Vue", "Angular", "Node.js", "GraphQL", "gRPC", "REST",
		"Linux", "Git", "CI/CD", "Machine Learning", "Spark",
	}
}
