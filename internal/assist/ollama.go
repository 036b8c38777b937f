package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config controls the Ollama-style chat client.
type Config struct {
	// Endpoint is the chat completion URL, e.g. http://localhost:11434/api/chat.
	Endpoint string
	// Model names the model to query.
	Model string
	// Timeout bounds each request so a stuck service cannot stall the crawl.
	Timeout time.Duration
	// MaxFragmentBytes caps the HTML sent per request.
	MaxFragmentBytes int
}

// OllamaClient implements Client against an Ollama-compatible chat API.
type OllamaClient struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOllamaClient builds a client. Endpoint and Model are required.
func NewOllamaClient(cfg Config, logger *zap.Logger) (*OllamaClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("assist.endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("assist.model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxFragmentBytes <= 0 {
		cfg.MaxFragmentBytes = 8000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

// LabelPage implements Client.
func (c *OllamaClient) LabelPage(ctx context.Context, rawURL string, html []byte) (string, error) {
	fragment := truncateHTML(html, c.cfg.MaxFragmentBytes)
	content, err := c.chat(ctx, labelPrompt(rawURL, fragment))
	if err != nil {
		return "", err
	}
	var payload struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(cleanMarkdownJSON(content)), &payload); err != nil {
		return "", fmt.Errorf("parse label response: %w", err)
	}
	label := strings.TrimSpace(strings.ToLower(payload.Label))
	switch label {
	case "listing-index", "job-detail", "irrelevant":
		return label, nil
	}
	return "", fmt.Errorf("unexpected label %q", payload.Label)
}

// CompleteRecord implements Client.
func (c *OllamaClient) CompleteRecord(ctx context.Context, rawURL string, html []byte) (RecordHints, error) {
	fragment := truncateHTML(html, c.cfg.MaxFragmentBytes)
	content, err := c.chat(ctx, extractPrompt(rawURL, fragment))
	if err != nil {
		return RecordHints{}, err
	}
	var hints RecordHints
	if err := json.Unmarshal([]byte(cleanMarkdownJSON(content)), &hints); err != nil {
		return RecordHints{}, fmt.Errorf("parse extraction response: %w", err)
	}
	return hints, nil
}

func (c *OllamaClient) chat(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("chat endpoint error: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", fmt.Errorf("chat response carried no content")
	}
	return parsed.Message.Content, nil
}

// cleanMarkdownJSON strips markdown code fences models tend to wrap JSON in.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
