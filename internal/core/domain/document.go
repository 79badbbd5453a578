package domain

import "time"

type DocumentStatus string

const (
	StatusFetched  DocumentStatus = "fetched"
	StatusIndexing DocumentStatus = "indexing"
	StatusReady    DocumentStatus = "ready"
	StatusFailed   DocumentStatus = "failed"
)

// FetchedDocument is a downloaded and validated PDF payload.
type FetchedDocument struct {
	URL         string
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// PageText is the raw extracted text of one PDF page.
type PageText struct {
	Page int
	Text string
}

// DocumentRecord is the registry entry kept for every processed document.
type DocumentRecord struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	ContentHash  string         `json:"content_hash"`
	PageCount    int            `json:"page_count"`
	ChunkCount   int            `json:"chunk_count"`
	IndexedCount int            `json:"indexed_count"`
	Status       DocumentStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
