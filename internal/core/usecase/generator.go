package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/souviksenapati/TejastraX/internal/core/ports"
)

const (
	FallbackReasoning = "Direct answer generated from context"
	ErrorAnswer       = "Error generating response"
	ErrorReasoning    = "Error in LLM processing"
)

var errEmptyCompletion = errors.New("empty completion")

// AnswerGenerator turns a question and its context into an answer. Provider
// failures become placeholder text; they are never returned.
type AnswerGenerator struct {
	provider ports.CompletionProvider
}

func NewAnswerGenerator(provider ports.CompletionProvider) *AnswerGenerator {
	return &AnswerGenerator{provider: provider}
}

func (g *AnswerGenerator) Generate(ctx context.Context, query, passages string) string {
	answer, _ := g.GenerateWithReasoning(ctx, query, passages)
	return answer
}

func (g *AnswerGenerator) GenerateWithReasoning(ctx context.Context, query, passages string) (string, string) {
	raw, err := g.provider.Complete(ctx, buildReasoningPrompt(query, passages))
	if err == nil && strings.TrimSpace(raw) == "" {
		err = errEmptyCompletion
	}
	if err != nil {
		slog.Warn("generation_failed", "error", err)
		return ErrorAnswer, ErrorReasoning
	}
	return ParseReasoningResponse(raw)
}

// ParseReasoningResponse splits "REASONING: ... ANSWER: ..." output. Any
// other shape yields the whole text as the answer.
func ParseReasoningResponse(raw string) (answer, reasoning string) {
	parts := strings.Split(raw, "ANSWER:")
	if len(parts) != 2 {
		return raw, FallbackReasoning
	}
	reasoning = strings.TrimSpace(strings.ReplaceAll(parts[0], "REASONING:", ""))
	answer = strings.TrimSpace(parts[1])
	return answer, reasoning
}
