package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

func TestEmbedBatchKeepsInputAlignment(t *testing.T) {
	embed := &mapEmbedder{
		vectors: map[string][]float32{"a": {1}, "c": {3}, "e": {5}},
		errs: map[string]error{
			"b": errors.New("rate limited"),
			"d": errors.New("timeout"),
		},
	}
	e := NewBatchEmbedder(embed, 2)

	outcomes := e.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Index != i {
			t.Fatalf("outcome %d carries index %d", i, o.Index)
		}
	}
	if outcomes[1].OK() || outcomes[3].OK() {
		t.Fatalf("expected failures at 1 and 3: %+v", outcomes)
	}

	vectors, indices := Succeeded(outcomes)
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	want := []int{0, 2, 4}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", indices, want)
		}
	}
	if vectors[1][0] != 3 {
		t.Fatalf("vector for input 2 misaligned: %v", vectors[1])
	}
}

func TestEmbedBatchTreatsEmptyVectorAsFailure(t *testing.T) {
	embed := &mapEmbedder{vectors: map[string][]float32{"a": {}}}
	outcomes := NewBatchEmbedder(embed, 1).EmbedBatch(context.Background(), []string{"a"})
	if outcomes[0].OK() || outcomes[0].Err == nil {
		t.Fatalf("expected empty vector to be a failure, got %+v", outcomes[0])
	}
}

type lengthRecorder struct {
	mu      sync.Mutex
	lengths []int
}

func (r *lengthRecorder) Embed(_ context.Context, text string) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lengths = append(r.lengths, utf8.RuneCountInString(text))
	return []float32{1}, nil
}

func TestEmbedTruncatesInputs(t *testing.T) {
	rec := &lengthRecorder{}
	e := NewBatchEmbedder(rec, 1)
	long := strings.Repeat("é", 5000)

	e.EmbedOne(context.Background(), long)
	e.EmbedBatch(context.Background(), []string{long})

	if rec.lengths[0] != MaxQueryEmbedChars {
		t.Fatalf("query embed sent %d runes, want %d", rec.lengths[0], MaxQueryEmbedChars)
	}
	if rec.lengths[1] != MaxBatchEmbedChars {
		t.Fatalf("batch embed sent %d runes, want %d", rec.lengths[1], MaxBatchEmbedChars)
	}
}

func TestEmbedOneReturnsNilOnFailure(t *testing.T) {
	embed := &mapEmbedder{errs: map[string]error{"q": errors.New("boom")}}
	if v := NewBatchEmbedder(embed, 1).EmbedOne(context.Background(), "q"); v != nil {
		t.Fatalf("expected nil vector, got %v", v)
	}
}

type slowEmbedder struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (s *slowEmbedder) Embed(context.Context, string) ([]float32, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return []float32{1}, nil
}

func TestEmbedBatchBoundsConcurrency(t *testing.T) {
	slow := &slowEmbedder{}
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = "chunk"
	}

	NewBatchEmbedder(slow, 0).EmbedBatch(context.Background(), texts)
	if slow.peak > DefaultEmbedWorkers {
		t.Fatalf("peak concurrency %d exceeds %d", slow.peak, DefaultEmbedWorkers)
	}
}

func TestEmbedBatchStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	embed := &mapEmbedder{vectors: map[string][]float32{"a": {1}}}

	outcomes := NewBatchEmbedder(embed, 1).EmbedBatch(ctx, []string{"a"})
	if !errors.Is(outcomes[0].Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", outcomes[0].Err)
	}
	if embed.callsFor("a") != 0 {
		t.Fatalf("provider should not be called after cancellation")
	}
}
