package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// anthropicAPIURL is the Anthropic Messages API endpoint.
	anthropicAPIURL = "https://api.anthropic.com/v1/messages"

	// defaultModel is the Claude model used for task generation.
	defaultModel = "claude-3-haiku-20240307"

	// defaultTimeout bounds the API request; on expiry the caller falls back
	// to templates.
	defaultTimeout = 20 * time.Second

	maxResponseTokens = 1024
)

// AnthropicClient implements ContentGenerator using the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// ClientOption configures an AnthropicClient.
type ClientOption func(*AnthropicClient)

// WithModel sets the model used for generation.
func WithModel(model string) ClientOption {
	return func(c *AnthropicClient) {
		c.model = model
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *AnthropicClient) {
		c.httpClient.Timeout = timeout
	}
}

// NewAnthropicClient creates a client for the given API key.
func NewAnthropicClient(apiKey string, opts ...ClientOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is empty")
	}

	c := &AnthropicClient{
		apiKey: apiKey,
		model:  defaultModel,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// messagesRequest is the Anthropic Messages API request structure.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic Messages API response structure.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate asks the model for today's tasks. Any transport, status or parse
// failure is wrapped into ErrUnavailable so callers treat all of them the same.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) ([]TaskItem, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxResponseTokens,
		Messages:  []message{{Role: "user", Content: buildPrompt(req)}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	items, err := parseTaskItems(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return items, nil
}

// buildPrompt renders the generation request into a single user message that
// asks for a JSON array and nothing else.
func buildPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a goal coach. Write today's tasks for this goal.\n\n")
	fmt.Fprintf(&sb, "Goal: %s\n", req.GoalTitle)
	if req.GoalDescription != "" {
		fmt.Fprintf(&sb, "Details: %s\n", req.GoalDescription)
	}
	fmt.Fprintf(&sb, "Days until deadline: %d\n", req.DaysUntilDeadline)
	fmt.Fprintf(&sb, "Progress: %d%%\n", req.Progress)
	fmt.Fprintf(&sb, "Planning strategy: %s\n", req.Strategy)

	if len(req.History) > 0 {
		sb.WriteString("\nRecent history:\n")
		for _, h := range req.History {
			fmt.Fprintf(&sb, "- [%s] %s (difficulty %d, %s)\n", h.Status, h.Title, h.Difficulty, h.Date)
		}
	}

	if req.AdaptedCount > 0 && len(req.Missed) > 0 {
		sb.WriteString("\nMissed tasks to adapt:\n")
		for _, m := range req.Missed {
			fmt.Fprintf(&sb, "- %s (difficulty %d)\n", m.Title, m.Difficulty)
		}
		fmt.Fprintf(&sb, "\nExactly %d of the tasks must be adapted versions of the missed tasks above: "+
			"reduce their scope, duration and complexity, and never repeat an original title verbatim. "+
			"The remaining %d tasks must be new.\n", req.AdaptedCount, req.Count-req.AdaptedCount)
	}

	fmt.Fprintf(&sb, "\nProduce exactly %d tasks at difficulty %d (scale 1-5).\n", req.Count, req.Difficulty)
	sb.WriteString("Respond with ONLY a JSON array, no prose, no code fences:\n")
	sb.WriteString(`[{"title": "...", "description": "...", "difficulty": 1}]`)

	return sb.String()
}

// parseTaskItems extracts a JSON array of tasks from model output, tolerating
// code fences and surrounding prose.
func parseTaskItems(text string) ([]TaskItem, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	// Models occasionally wrap output despite instructions.
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var items []TaskItem
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("parse tasks: %v", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty task list")
	}
	return items, nil
}
