package usecase

import (
	"fmt"
	"strings"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

func buildReasoningPrompt(query, passages string) string {
	return fmt.Sprintf(`Context: %s

Question: %s

Instructions:
1. First, analyze the relevant sections and identify key information
2. Explain your logical reasoning for arriving at the answer
3. Provide evidence from the text to support your reasoning
4. Keep explanations clear and concise
5. If exact information is not found, explain what is missing
6. Include specific values, dates, and numbers if available

Format your response as:
REASONING:
I analyzed the policy text and found that [key observation].
Based on [specific evidence], I concluded that [logical connection].

ANSWER: [Clear, concise answer backed by the reasoning]`, passages, query)
}

// buildPolicyQuestion asks for the exact figures that policy questions
// usually hinge on.
func buildPolicyQuestion(query string) string {
	return query + `

Give a direct and specific answer. Include exact time periods (like "2 years", "36 months"), percentages, and conditions when available. Look carefully for waiting periods, coverage details, and specific requirements.`
}

func buildClaimQuestion(understood string) string {
	return fmt.Sprintf(`Claim Details:
%s

Based on the policy sections, explain if this claim should be approved or rejected.`, understood)
}

func joinContext(results []domain.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "\n\n")
}
