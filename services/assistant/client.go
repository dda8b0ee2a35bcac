package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"shams/config"
	"shams/utils/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces the assistant's reply for a chat transcript.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

var ErrNotConfigured = errors.New("assistant: OPENAI_API_KEY is not set")

type OpenAIClient struct {
	client      *resty.Client
	model       string
	temperature float64
	maxTokens   int
	configured  bool
	log         *logger.Logger
}

func NewOpenAIClient(cfg *config.Config, baseLog *logger.Logger) *OpenAIClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.OpenAIBaseURL, "/")).
		SetTimeout(60 * time.Second).
		SetAuthToken(cfg.OpenAIAPIKey)
	return &OpenAIClient{
		client:      client,
		model:       cfg.OpenAIModel,
		temperature: 0.7,
		maxTokens:   1000,
		configured:  cfg.OpenAIAPIKey != "",
		log:         baseLog.With("client", "OpenAI"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}
	var out chatResponse
	var apiErr apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.IsError() {
		c.log.Warn("Chat completion rejected", "status", resp.StatusCode(), "type", apiErr.Error.Type)
		return "", fmt.Errorf("chat completion: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("chat completion: empty response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
