package keyword

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultContextRunes is how much text is kept on each side of a match.
const DefaultContextRunes = 300

type strategy struct {
	name     string
	triggers []string
	terms    []string
}

// Strategies cover facts that embeddings tend to miss: short numeric
// clauses buried in long tables.
var strategies = []strategy{
	{
		name:     "health_checkup",
		triggers: []string{"health check", "preventive"},
		terms:    []string{"health check", "preventive", "check-up", "two continuous", "block of two"},
	},
	{
		name:     "room_rent",
		triggers: []string{"room rent", "icu", "plan a"},
		terms:    []string{"room rent", "1%", "one percent", "icu", "2%", "two percent", "plan a", "sub-limit"},
	},
	{
		name:     "grace_period",
		triggers: []string{"grace period"},
		terms:    []string{"grace period", "30 days", "thirty days", "premium payment"},
	},
	{
		name:     "waiting_period",
		triggers: []string{"waiting period"},
		terms:    []string{"waiting period", "36 months", "thirty-six months", "pre-existing"},
	},
}

// Searcher finds literal snippets in full document text.
type Searcher struct {
	contextRunes int
	patterns     map[string]*regexp.Regexp
}

func New(contextRunes int) *Searcher {
	if contextRunes <= 0 {
		contextRunes = DefaultContextRunes
	}
	patterns := make(map[string]*regexp.Regexp)
	for _, s := range strategies {
		for _, term := range s.terms {
			patterns[term] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		}
	}
	return &Searcher{contextRunes: contextRunes, patterns: patterns}
}

// Search picks a strategy from the query wording and returns the first
// snippet around any of its terms.
func (s *Searcher) Search(query, fullText string) (string, bool) {
	strat, ok := pickStrategy(query)
	if !ok || strings.TrimSpace(fullText) == "" {
		return "", false
	}
	snippets := s.Snippets(fullText, strat.terms)
	if len(snippets) == 0 {
		return "", false
	}
	return snippets[0], true
}

// Snippets returns unique windows of text around every occurrence of each
// term, in term order.
func (s *Searcher) Snippets(fullText string, terms []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, term := range terms {
		pattern, ok := s.patterns[term]
		if !ok {
			pattern = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		}
		for _, loc := range pattern.FindAllStringIndex(fullText, -1) {
			snippet := strings.TrimSpace(window(fullText, loc[0], loc[1], s.contextRunes))
			if snippet == "" {
				continue
			}
			if _, dup := seen[snippet]; dup {
				continue
			}
			seen[snippet] = struct{}{}
			out = append(out, snippet)
		}
	}
	return out
}

var triggerPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, s := range strategies {
		for _, trigger := range s.triggers {
			out[trigger] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(trigger) + `\b`)
		}
	}
	return out
}()

func pickStrategy(query string) (strategy, bool) {
	for _, s := range strategies {
		for _, trigger := range s.triggers {
			if triggerPatterns[trigger].MatchString(query) {
				return s, true
			}
		}
	}
	return strategy{}, false
}

// window expands the byte range [start, end) by n runes on each side.
func window(text string, start, end, n int) string {
	for i := 0; i < n && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for i := 0; i < n && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
