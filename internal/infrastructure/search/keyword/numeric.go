package keyword

import (
	"regexp"
	"sort"
	"strings"
)

// NumericContextRunes is the context kept around an extracted figure.
const NumericContextRunes = 100

// NumericFact is a number with its unit and the text around it.
type NumericFact struct {
	Value   string
	Unit    string
	Context string
	offset  int
}

var numericPatterns = []struct {
	unit    string
	pattern *regexp.Regexp
}{
	{"percentage", regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)},
	{"days", regexp.MustCompile(`(?i)\b(\d+)\s*days?\b`)},
	{"months", regexp.MustCompile(`(?i)\b(\d+)\s*months?\b`)},
	{"years", regexp.MustCompile(`(?i)\b(\d+)\s*years?\b`)},
	{"beds", regexp.MustCompile(`(?i)\b(\d+)\s*(?:inpatient\s+|in-patient\s+)?beds?\b`)},
}

// NumericFacts lists every percentage, day, month, year and bed count in
// text in document order.
func NumericFacts(text string) []NumericFact {
	var facts []NumericFact
	for _, p := range numericPatterns {
		for _, loc := range p.pattern.FindAllStringSubmatchIndex(text, -1) {
			facts = append(facts, NumericFact{
				Value:   text[loc[2]:loc[3]],
				Unit:    p.unit,
				Context: strings.TrimSpace(window(text, loc[0], loc[1], NumericContextRunes)),
				offset:  loc[0],
			})
		}
	}
	sort.SliceStable(facts, func(i, j int) bool { return facts[i].offset < facts[j].offset })
	return facts
}
