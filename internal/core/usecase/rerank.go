package usecase

import (
	"sort"
	"strings"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

const (
	wordOverlapWeight  = 0.2
	bigramMatchWeight  = 0.1
	rerankImportance   = 0.5
	rerankTermOverlap  = 0.3
	rerankPhraseBoost  = 0.1
	rerankContentBoost = 0.2
)

var timeQueryTerms = []string{"period", "days", "months", "waiting", "grace"}

// queryTerms is a lowercased, whitespace-split view of a query.
type queryTerms struct {
	lower   string
	words   []string
	unique  map[string]struct{}
	bigrams []string
}

func newQueryTerms(query string) queryTerms {
	lower := strings.ToLower(query)
	words := strings.Fields(lower)
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	bigrams := make([]string, 0, len(words))
	for i := 0; i+1 < len(words); i++ {
		bigrams = append(bigrams, words[i]+" "+words[i+1])
	}
	return queryTerms{lower: lower, words: words, unique: unique, bigrams: bigrams}
}

// wordOverlap is the share of distinct query words that also appear as
// whole words in text.
func (q queryTerms) wordOverlap(lowerText string) float64 {
	if len(q.unique) == 0 {
		return 0
	}
	textWords := make(map[string]struct{})
	for _, w := range strings.Fields(lowerText) {
		textWords[w] = struct{}{}
	}
	matches := 0
	for w := range q.unique {
		if _, ok := textWords[w]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(q.unique))
}

func (q queryTerms) bigramMatches(lowerText string) int {
	n := 0
	for _, b := range q.bigrams {
		if strings.Contains(lowerText, b) {
			n++
		}
	}
	return n
}

// termOverlap counts query words found anywhere in text, substrings
// included.
func (q queryTerms) termOverlap(lowerText string) float64 {
	if len(q.words) == 0 {
		return 0
	}
	n := 0
	for _, w := range q.words {
		if strings.Contains(lowerText, w) {
			n++
		}
	}
	return float64(n) / float64(len(q.words))
}

func (q queryTerms) contentBoost(contentType domain.ContentType) float64 {
	if strings.Contains(q.lower, "definition") && contentType == domain.ContentDefinition {
		return rerankContentBoost
	}
	if contentType == domain.ContentTimePeriod {
		for _, term := range timeQueryTerms {
			if strings.Contains(q.lower, term) {
				return rerankContentBoost
			}
		}
	}
	return 0
}

func compositeScore(q queryTerms, similarity float64, lowerText string) float64 {
	return similarity +
		wordOverlapWeight*q.wordOverlap(lowerText) +
		bigramMatchWeight*float64(q.bigramMatches(lowerText))
}

func rerankScore(q queryTerms, chunk domain.Chunk, lowerText string) float64 {
	phrase := 0.0
	if q.bigramMatches(lowerText) > 0 {
		phrase = rerankPhraseBoost
	}
	return chunk.ImportanceScore*rerankImportance +
		q.termOverlap(lowerText)*rerankTermOverlap +
		phrase +
		q.contentBoost(chunk.ContentType)
}

func sortByRankKey(results []domain.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RankKey() > results[j].RankKey()
	})
}

func sortByRerankScore(results []domain.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RerankScore != results[j].RerankScore {
			return results[i].RerankScore > results[j].RerankScore
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
}
