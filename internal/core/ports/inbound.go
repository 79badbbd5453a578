package ports

import (
	"context"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// DocumentQuestionAnswerer is the inbound contract for the batch
// document/questions flow.
type DocumentQuestionAnswerer interface {
	AnswerDocumentQuestions(ctx context.Context, documentURL string, questions []string) ([]string, error)
	AnswerDocumentQuery(ctx context.Context, documentURL, question string) (domain.QueryResult, error)
}
