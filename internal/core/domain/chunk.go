package domain

// ContentType is the heuristic category of a chunk.
type ContentType string

const (
	ContentGeneral    ContentType = "general"
	ContentDefinition ContentType = "definition"
	ContentTimePeriod ContentType = "time_period"
	ContentCoverage   ContentType = "coverage"
	ContentExclusion  ContentType = "exclusion"
)

type Chunk struct {
	Text            string      `json:"text"`
	Page            int         `json:"page"`
	ContentType     ContentType `json:"content_type"`
	ImportanceScore float64     `json:"importance_score"`
	ChunkIndex      int         `json:"chunk_index"`
}

// EmbeddingOutcome is the result of embedding the input at Index.
// Exactly one of Vector or Err is meaningful.
type EmbeddingOutcome struct {
	Index  int
	Vector []float32
	Err    error
}

func (o EmbeddingOutcome) OK() bool {
	return o.Err == nil && len(o.Vector) > 0
}
