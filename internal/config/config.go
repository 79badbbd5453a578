package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort            string
	APIMaxConnections  int
	APIRateLimitRPS    float64
	APIRateLimitBurst  int
	APIMaxInFlight     int
	APIBearerToken     string
	APIRequestTimeoutS int
	LogLevel           string

	LLMProvider       string
	LLMTimeoutSeconds int
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIChatModel   string
	OpenAIEmbedModel  string
	OllamaURL         string
	OllamaGenModel    string
	OllamaEmbedModel  string

	ChunkMaxTokens     int
	ChunkOverlapTokens int
	ChunkMinChars      int
	ChunkMaxChunks     int

	RAGTopK              int
	RAGDistanceThreshold float64
	RAGRerank            bool
	RAGKeywordFallback   bool

	EmbedWorkers              int
	QuestionWorkers           int
	AnswerCacheSize           int
	SessionCacheSize          int
	QueryEmbedCacheTTLSeconds int

	FetchTimeoutSeconds int
	FetchMaxAttempts    int
	FetchMaxBytes       int64

	PostgresDSN         string
	NATSURL             string
	NATSSubjectEvents   string
	NATSSubjectPrefetch string
	MetricsEnabled      bool
}

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Load reads configuration from the environment. Variables missing from the
// environment fall back to a .env file in the working directory, then to
// the YAML file named by CONFIG_FILE, then to built-in defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	l := loader{file: file}

	cfg := Config{
		APIPort:            l.mustEnv("API_PORT", "8080"),
		APIMaxConnections:  l.mustEnvInt("API_MAX_CONNECTIONS", 256),
		APIRateLimitRPS:    l.mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst:  l.mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:     l.mustEnvInt("API_MAX_IN_FLIGHT", 32),
		APIBearerToken:     l.mustEnv("API_BEARER_TOKEN", ""),
		APIRequestTimeoutS: l.mustEnvInt("API_REQUEST_TIMEOUT_SECONDS", 180),
		LogLevel:           l.mustEnv("LOG_LEVEL", "info"),

		LLMProvider:       strings.ToLower(l.mustEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMTimeoutSeconds: l.mustEnvInt("LLM_TIMEOUT_SECONDS", 60),
		OpenAIAPIKey:      l.mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     l.mustEnv("OPENAI_BASE_URL", ""),
		OpenAIChatModel:   l.mustEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel:  l.mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		OllamaURL:         l.mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:    l.mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel:  l.mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		ChunkMaxTokens:     l.mustEnvInt("CHUNK_MAX_TOKENS", 450),
		ChunkOverlapTokens: l.mustEnvInt("CHUNK_OVERLAP_TOKENS", 80),
		ChunkMinChars:      l.mustEnvInt("CHUNK_MIN_CHARS", 50),
		ChunkMaxChunks:     l.mustEnvInt("CHUNK_MAX_CHUNKS", 50),

		RAGTopK:              l.mustEnvInt("RAG_TOP_K", 6),
		RAGDistanceThreshold: l.mustEnvFloat("RAG_DISTANCE_THRESHOLD", 2.5),
		RAGRerank:            l.mustEnvBool("RAG_RERANK", false),
		RAGKeywordFallback:   l.mustEnvBool("RAG_KEYWORD_FALLBACK", false),

		EmbedWorkers:              l.mustEnvInt("EMBED_WORKERS", 5),
		QuestionWorkers:           l.mustEnvInt("QUESTION_WORKERS", 4),
		AnswerCacheSize:           l.mustEnvInt("ANSWER_CACHE_SIZE", 1000),
		SessionCacheSize:          l.mustEnvInt("SESSION_CACHE_SIZE", 16),
		QueryEmbedCacheTTLSeconds: l.mustEnvInt("QUERY_EMBED_CACHE_TTL_SECONDS", 3600),

		FetchTimeoutSeconds: l.mustEnvInt("FETCH_TIMEOUT_SECONDS", 30),
		FetchMaxAttempts:    l.mustEnvInt("FETCH_MAX_ATTEMPTS", 3),
		FetchMaxBytes:       int64(l.mustEnvInt("FETCH_MAX_BYTES", 50<<20)),

		PostgresDSN:         l.mustEnv("POSTGRES_DSN", ""),
		NATSURL:             l.mustEnv("NATS_URL", ""),
		NATSSubjectEvents:   l.mustEnv("NATS_SUBJECT_EVENTS", "policyqa.events"),
		NATSSubjectPrefetch: l.mustEnv("NATS_SUBJECT_PREFETCH", "policyqa.prefetch"),
		MetricsEnabled:      l.mustEnvBool("METRICS_ENABLED", true),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.RAGDistanceThreshold <= 0 {
		return fmt.Errorf("config: RAG_DISTANCE_THRESHOLD must be positive, got %v", c.RAGDistanceThreshold)
	}
	if c.ChunkOverlapTokens >= c.ChunkMaxTokens {
		return fmt.Errorf("config: CHUNK_OVERLAP_TOKENS (%d) must be below CHUNK_MAX_TOKENS (%d)", c.ChunkOverlapTokens, c.ChunkMaxTokens)
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(doc))
	for k, v := range doc {
		if v == nil {
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

type loader struct {
	file map[string]string
}

func (l loader) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return l.file[key]
}

func (l loader) mustEnv(key, fallback string) string {
	v := l.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (l loader) mustEnvInt(key string, fallback int) int {
	v := l.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (l loader) mustEnvFloat(key string, fallback float64) float64 {
	v := l.lookup(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (l loader) mustEnvBool(key string, fallback bool) bool {
	v := l.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
