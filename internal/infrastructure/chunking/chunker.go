package chunking

import (
	"sort"
	"strings"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

type Config struct {
	MaxTokens     int
	OverlapTokens int
	MinChars      int
	MaxChunks     int
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:     450,
		OverlapTokens: 80,
		MinChars:      50,
		MaxChunks:     50,
	}
}

// Chunker turns extracted pages into scored, ranked chunks.
type Chunker struct {
	splitter   *Splitter
	classifier ports.ContentClassifier
	minChars   int
	maxChunks  int
}

func NewChunker(cfg Config, classifier ports.ContentClassifier) *Chunker {
	defaults := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = defaults.MinChars
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = defaults.MaxChunks
	}
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Chunker{
		splitter:   NewSplitter(cfg.MaxTokens, cfg.OverlapTokens),
		classifier: classifier,
		minChars:   cfg.MinChars,
		maxChunks:  cfg.MaxChunks,
	}
}

func (c *Chunker) Chunk(pages []domain.PageText) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(pages)*4)
	for _, page := range pages {
		text := NormalizeWhitespace(page.Text)
		if text == "" {
			continue
		}
		for i, piece := range c.splitter.Split(text) {
			piece = strings.TrimSpace(piece)
			if runeLen(piece) < c.minChars {
				continue
			}
			contentType := c.classifier.Classify(piece)
			out = append(out, domain.Chunk{
				Text:            piece,
				Page:            page.Page,
				ContentType:     contentType,
				ImportanceScore: ImportanceScore(piece, contentType),
				ChunkIndex:      i,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImportanceScore > out[j].ImportanceScore
	})
	if len(out) > c.maxChunks {
		out = out[:c.maxChunks]
	}
	return out
}

// NormalizeWhitespace collapses every whitespace run to a single space.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
