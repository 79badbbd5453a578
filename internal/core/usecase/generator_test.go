package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseReasoningResponse(t *testing.T) {
	cases := []struct {
		name          string
		raw           string
		wantAnswer    string
		wantReasoning string
	}{
		{
			name:          "reasoning and answer",
			raw:           "REASONING:\nThe clause sets a grace period.\n\nANSWER: 30 days",
			wantAnswer:    "30 days",
			wantReasoning: "The clause sets a grace period.",
		},
		{
			name:          "no marker",
			raw:           "The grace period is 30 days.",
			wantAnswer:    "The grace period is 30 days.",
			wantReasoning: FallbackReasoning,
		},
		{
			name:          "marker twice",
			raw:           "ANSWER: a ANSWER: b",
			wantAnswer:    "ANSWER: a ANSWER: b",
			wantReasoning: FallbackReasoning,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answer, reasoning := ParseReasoningResponse(tc.raw)
			if answer != tc.wantAnswer || reasoning != tc.wantReasoning {
				t.Fatalf("got (%q, %q), want (%q, %q)", answer, reasoning, tc.wantAnswer, tc.wantReasoning)
			}
		})
	}
}

func TestGenerateWithReasoningBuildsPrompt(t *testing.T) {
	complete := &completionFake{}
	g := NewAnswerGenerator(complete)

	answer, reasoning := g.GenerateWithReasoning(context.Background(), "What is covered?", "Maternity is covered.")
	if answer != "ok" || reasoning != "checked the context" {
		t.Fatalf("unexpected output (%q, %q)", answer, reasoning)
	}
	prompt := complete.prompts[0]
	if !strings.Contains(prompt, "Context: Maternity is covered.") || !strings.Contains(prompt, "Question: What is covered?") {
		t.Fatalf("prompt missing context or question:\n%s", prompt)
	}
}

func TestGenerateReturnsPlaceholdersOnFailure(t *testing.T) {
	failing := &completionFake{respond: func(string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	answer, reasoning := NewAnswerGenerator(failing).GenerateWithReasoning(context.Background(), "q", "c")
	if answer != ErrorAnswer || reasoning != ErrorReasoning {
		t.Fatalf("expected placeholders, got (%q, %q)", answer, reasoning)
	}

	empty := &completionFake{respond: func(string) (string, error) { return "  ", nil }}
	if got := NewAnswerGenerator(empty).Generate(context.Background(), "q", "c"); got != ErrorAnswer {
		t.Fatalf("expected empty completion to be an error, got %q", got)
	}
}
