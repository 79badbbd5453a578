package usecase

import (
	"time"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

// Session is one indexed document. It is never mutated after the pipeline
// returns it; a new document produces a new Session.
type Session struct {
	ID           string
	DocumentID   string
	Source       string
	FullText     string
	PageCount    int
	ChunkCount   int
	IndexedCount int
	BuiltAt      time.Time

	index ports.VectorIndex
}

func (s *Session) Len() int {
	if s == nil || s.index == nil {
		return 0
	}
	return s.index.Len()
}

func (s *Session) search(query []float32, k int) []domain.IndexHit {
	if s.Len() == 0 {
		return nil
	}
	return s.index.Search(query, k)
}

func (s *Session) chunk(position int) (domain.Chunk, bool) {
	if s == nil || s.index == nil {
		return domain.Chunk{}, false
	}
	return s.index.Chunk(position)
}

// Chunks lists indexed chunks in position order.
func (s *Session) Chunks() []domain.Chunk {
	n := s.Len()
	out := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		if c, ok := s.chunk(i); ok {
			out = append(out, c)
		}
	}
	return out
}

// SessionCache holds built sessions by document source.
type SessionCache interface {
	Get(key string) (*Session, bool)
	Add(key string, session *Session)
}
