package domain

type RetrievalResult struct {
	Chunk
	Position    int     `json:"position"`
	Distance    float64 `json:"distance"`
	Similarity  float64 `json:"similarity"`
	Score       float64 `json:"score"`
	RerankScore float64 `json:"rerank_score"`
}

// RankKey is the final ordering key: the mean of the composite score and
// the chunk importance.
func (r RetrievalResult) RankKey() float64 {
	return (r.Score + r.ImportanceScore) / 2
}

// IndexHit is one nearest-neighbour match: a corpus position and its
// squared Euclidean distance to the query.
type IndexHit struct {
	Position int
	Distance float64
}
