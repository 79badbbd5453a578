package domain

import "time"

type DocumentIndexedEvent struct {
	DocumentID   string    `json:"document_id"`
	URL          string    `json:"url,omitempty"`
	ChunkCount   int       `json:"chunk_count"`
	IndexedCount int       `json:"indexed_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type ClaimDecidedEvent struct {
	DocumentID string           `json:"document_id"`
	Query      string           `json:"query"`
	Details    ClaimDetails     `json:"details"`
	Decision   CoverageDecision `json:"decision"`
	OccurredAt time.Time        `json:"occurred_at"`
}
