// Package llm wraps the OpenAI chat API behind the ports the services use.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"applyops_server/pkg/logger"
)

type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	breaker     *gobreaker.CircuitBreaker
	log         *logger.Logger
}

type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

const DefaultModel = "gpt-4o-mini"

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("llm circuit open")

func NewClient(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	apiConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client:      openai.NewClientWithConfig(apiConfig),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		breaker:     breaker,
		log:         logger.Default().WithField("component", "llm"),
	}
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	return c.chat(ctx, system, prompt, nil)
}

// CompleteJSON asks for a JSON object response and strips any markdown
// fencing the model wraps around it.
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.chat(ctx, system, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return "", err
	}

	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp), nil
}

func (c *Client) chat(ctx context.Context, system, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:          c.model,
			Messages:       messages,
			MaxTokens:      c.maxTokens,
			Temperature:    c.temperature,
			ResponseFormat: format,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		c.log.WithError(err).Warn("chat completion failed")
		return "", err
	}

	return result.(string), nil
}

// IsRateLimited reports whether err is an OpenAI 429 or quota exhaustion,
// or the local breaker shedding load.
func (c *Client) IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return true
		}
		if apiErr.Type == "insufficient_quota" {
			return true
		}
	}
	return strings.Contains(err.Error(), "quota")
}
