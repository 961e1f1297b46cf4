// Package llm is the advisory summarizer: an OpenAI-compatible chat
// completions client that turns food and symptom data into a short narrative
// of possible triggers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/config"
	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

const chatCompletionsPath = "/chat/completions"

// Client calls the summarizer. It never retries; the caller decides what a
// failure means.
type Client struct {
	enabled     bool
	baseURL     string
	apiKey      string
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float64
	devFallback bool

	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

// New creates a Client from the advisory configuration.
func New(cfg config.AdvisoryConfig, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, logger, &http.Client{})
}

// NewWithHTTPClient creates a Client using the given HTTP client (for testing).
func NewWithHTTPClient(cfg config.AdvisoryConfig, logger *slog.Logger, httpClient *http.Client) *Client {
	return &Client{
		enabled:     cfg.Enabled,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		devFallback: cfg.DevFallback,
		httpClient:  httpClient,
		log:         logger.With("adapter", "llm"),
		now:         time.Now,
	}
}

// SuggestTriggers asks for possible triggers given distinct food names and
// symptom descriptions.
func (c *Client) SuggestTriggers(ctx context.Context, foods, symptoms []string) (*domain.Suggestion, error) {
	return c.ask(ctx, triggersPrompt(foods, symptoms))
}

// ReviewLogs asks for possible triggers given the formatted food and symptom
// logs.
func (c *Client) ReviewLogs(ctx context.Context, foodLog, symptomLog string) (*domain.Suggestion, error) {
	return c.ask(ctx, reviewPrompt(foodLog, symptomLog))
}

func (c *Client) ask(ctx context.Context, prompt string) (*domain.Suggestion, error) {
	if !c.enabled {
		return nil, fmt.Errorf("llm: %w: disabled by configuration", domain.ErrAdvisoryUnavailable)
	}

	if c.apiKey == "" {
		if c.devFallback {
			c.log.WarnContext(ctx, "llm api key not configured, returning illustrative response")
			return illustrative(c.now()), nil
		}
		return nil, fmt.Errorf("llm: %w: api key not configured", domain.ErrAdvisoryUnavailable)
	}

	start := c.now()
	text, err := c.complete(ctx, prompt)
	if err != nil {
		c.log.ErrorContext(ctx, "llm request failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("llm: %w: %w", domain.ErrAdvisoryUnavailable, err)
	}

	suggestion, err := parseSuggestion(text)
	if err != nil {
		c.log.WarnContext(ctx, "llm answer did not match schema, extracting keywords",
			slog.String("error", err.Error()),
		)
		suggestion = degraded(text)
	}
	suggestion.GeneratedAt = c.now().UTC()

	c.log.DebugContext(ctx, "llm response",
		slog.String("source", string(suggestion.Source)),
		slog.Int("triggers", len(suggestion.PossibleTriggers)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return suggestion, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var resp chatCompletionResponse
	if err := c.doJSON(ctx, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) doJSON(ctx context.Context, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// HTTPError is a non-2xx answer from the summarizer.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}
