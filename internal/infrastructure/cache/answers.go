package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// AnswerCache memoizes query results per document. Keys are
// hex(sha256(documentID + ":" + question)).
type AnswerCache struct {
	lru *LRU[domain.QueryResult]
}

func NewAnswerCache(size int) (*AnswerCache, error) {
	inner, err := NewLRU[domain.QueryResult](size)
	if err != nil {
		return nil, err
	}
	return &AnswerCache{lru: inner}, nil
}

func AnswerKey(documentID, question string) string {
	sum := sha256.Sum256([]byte(documentID + ":" + question))
	return hex.EncodeToString(sum[:])
}

func (c *AnswerCache) Get(documentID, question string) (domain.QueryResult, bool) {
	return c.lru.Get(AnswerKey(documentID, question))
}

func (c *AnswerCache) Set(documentID, question string, result domain.QueryResult) {
	c.lru.Add(AnswerKey(documentID, question), result)
}

func (c *AnswerCache) Stats() Stats {
	return c.lru.Stats()
}
