package chunking

import (
	"strings"
	"unicode/utf8"
)

// CharsPerToken approximates the tokenizer: budgets are given in tokens and
// enforced in characters.
const CharsPerToken = 4

var defaultSeparators = []string{"\n\n\n", "\n\n", "\n", ". ", ", ", " "}

// Splitter recursively splits text on a priority list of separators and
// carries an overlap tail between neighbouring pieces.
type Splitter struct {
	MaxChars     int
	OverlapChars int
	Separators   []string
}

func NewSplitter(maxTokens, overlapTokens int) *Splitter {
	if maxTokens <= 0 {
		maxTokens = 450
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	if overlapTokens >= maxTokens {
		overlapTokens = maxTokens / 4
	}
	return &Splitter{
		MaxChars:     maxTokens * CharsPerToken,
		OverlapChars: overlapTokens * CharsPerToken,
		Separators:   defaultSeparators,
	}
}

// Split returns pieces no longer than MaxChars, except pieces that contain
// none of the remaining separators; those are kept whole.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return s.splitRecursive(text, 0)
}

func (s *Splitter) splitRecursive(text string, sepIndex int) []string {
	if sepIndex >= len(s.Separators) || runeLen(text) <= s.MaxChars {
		return []string{text}
	}

	parts := s.mergeWithOverlap(text, s.Separators[sepIndex])
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if runeLen(part) > s.MaxChars {
			out = append(out, s.splitRecursive(part, sepIndex+1)...)
			continue
		}
		out = append(out, part)
	}
	return out
}

// mergeWithOverlap splits on sep and greedily re-joins parts up to MaxChars.
// A closed piece seeds the next one with its trailing OverlapChars.
func (s *Splitter) mergeWithOverlap(text, sep string) []string {
	if !strings.Contains(text, sep) {
		return []string{text}
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	current := ""
	for _, part := range parts {
		candidate := part
		if current != "" {
			candidate = current + sep + part
		}
		if runeLen(candidate) <= s.MaxChars {
			current = candidate
			continue
		}
		if current == "" {
			current = part
			continue
		}

		out = append(out, current)
		overlap := tailRunes(current, s.OverlapChars)
		if overlap != "" {
			current = overlap + sep + part
		} else {
			current = part
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
