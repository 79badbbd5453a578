package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RAG_DISTANCE_THRESHOLD", "")
	t.Setenv("CHUNK_MAX_TOKENS", "")
	t.Setenv("LLM_PROVIDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 6 {
		t.Fatalf("expected default top k 6, got %d", cfg.RAGTopK)
	}
	if cfg.RAGDistanceThreshold != 2.5 {
		t.Fatalf("expected default distance threshold 2.5, got %v", cfg.RAGDistanceThreshold)
	}
	if cfg.ChunkMaxTokens != 450 || cfg.ChunkOverlapTokens != 80 || cfg.ChunkMaxChunks != 50 {
		t.Fatalf("unexpected chunk defaults: %+v", cfg)
	}
	if cfg.EmbedWorkers != 5 || cfg.QuestionWorkers != 4 {
		t.Fatalf("unexpected worker defaults: embed=%d questions=%d", cfg.EmbedWorkers, cfg.QuestionWorkers)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("expected openai provider by default, got %q", cfg.LLMProvider)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAG_TOP_K", "4")
	t.Setenv("RAG_DISTANCE_THRESHOLD", "1.75")
	t.Setenv("RAG_RERANK", "true")
	t.Setenv("LLM_PROVIDER", "Ollama")
	t.Setenv("FETCH_MAX_BYTES", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 4 || cfg.RAGDistanceThreshold != 1.75 || !cfg.RAGRerank {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.LLMProvider != ProviderOllama {
		t.Fatalf("expected provider to be normalised, got %q", cfg.LLMProvider)
	}
	if cfg.FetchMaxBytes != 1024 {
		t.Fatalf("expected fetch max bytes 1024, got %d", cfg.FetchMaxBytes)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAG_TOP_K", "six")
	t.Setenv("RAG_RERANK", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 6 || cfg.RAGRerank {
		t.Fatalf("expected fallbacks for malformed values, got top_k=%d rerank=%v", cfg.RAGTopK, cfg.RAGRerank)
	}
}

func TestLoadReadsYAMLFileBelowEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policyqa.yaml")
	content := []byte("rag_top_k: 3\nRAG_KEYWORD_FALLBACK: true\nanswer_cache_size: 42\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RAG_KEYWORD_FALLBACK", "")
	t.Setenv("ANSWER_CACHE_SIZE", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 3 || !cfg.RAGKeywordFallback {
		t.Fatalf("file values not applied: top_k=%d fallback=%v", cfg.RAGTopK, cfg.RAGKeywordFallback)
	}
	if cfg.AnswerCacheSize != 7 {
		t.Fatalf("environment should win over file, got %d", cfg.AnswerCacheSize)
	}
}

func TestLoadRejectsBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("rag_top_k: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected read error for missing file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{LLMProvider: ProviderOpenAI, RAGDistanceThreshold: 2.5, ChunkMaxTokens: 450, ChunkOverlapTokens: 80}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	bad := base
	bad.LLMProvider = "gemini-native"
	if bad.Validate() == nil {
		t.Fatalf("expected unknown provider error")
	}

	bad = base
	bad.ChunkOverlapTokens = 450
	if bad.Validate() == nil {
		t.Fatalf("expected overlap error")
	}
}
