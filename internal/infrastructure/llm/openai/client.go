package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/souviksenapati/TejastraX/internal/infrastructure/resilience"
)

type Config struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	EmbedModel  string
	Temperature float32
	Timeout     time.Duration
}

// Client is an OpenAI-compatible embeddings and chat completion provider.
// Gemini and most hosted gateways accept the same wire format through
// BaseURL.
type Client struct {
	api      *goopenai.Client
	cfg      Config
	executor *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = goopenai.GPT4oMini
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = string(goopenai.SmallEmbedding3)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:      goopenai.NewClientWithConfig(clientConfig),
		cfg:      cfg,
		executor: executor,
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := resilience.Call(ctx, c.executor, "openai.embed", func(callCtx context.Context) ([]float32, error) {
		resp, err := c.api.CreateEmbeddings(callCtx, goopenai.EmbeddingRequest{
			Input: []string{text},
			Model: goopenai.EmbeddingModel(c.cfg.EmbedModel),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embed: %w", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, fmt.Errorf("openai embed: empty embedding result")
		}
		return resp.Data[0].Embedding, nil
	}, classifyOpenAIError)
	if err != nil {
		return nil, resilience.WrapTemporary("openai embed", err, classifyOpenAIError)
	}
	return vector, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := resilience.Call(ctx, c.executor, "openai.chat", func(callCtx context.Context) (string, error) {
		resp, err := c.api.CreateChatCompletion(callCtx, goopenai.ChatCompletionRequest{
			Model: c.cfg.ChatModel,
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: c.cfg.Temperature,
		})
		if err != nil {
			return "", fmt.Errorf("openai chat: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("openai chat: no choices returned")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}, classifyOpenAIError)
	if err != nil {
		return "", resilience.WrapTemporary("openai chat", err, classifyOpenAIError)
	}
	return text, nil
}

func classifyOpenAIError(err error) resilience.ErrorClassification {
	if status := statusCode(err); status > 0 {
		if resilience.IsRetryableHTTPStatus(status) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ClassifyHTTPError(err)
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
