// Package script generates the scene breakdown for a topic by calling a
// chat-completion style LLM endpoint and parsing its JSON reply.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/megastudio/studio-agent/internal/studio"
)

const (
	defaultBaseURL = "https://api.x.ai/v1"
	defaultModel   = "grok-2-latest"
)

// Generator produces a titled scene list for a topic.
type Generator interface {
	GenerateScript(ctx context.Context, topic string, sceneCount int) (string, []studio.Scene, error)
}

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// scriptPayload is the JSON shape the prompt asks the model to emit.
type scriptPayload struct {
	Title  string `json:"title"`
	Scenes []struct {
		Description       string  `json:"description"`
		Narration         string  `json:"narration"`
		SearchTerm        string  `json:"search_term"`
		EstimatedDuration float64 `json:"estimated_duration_s"`
	} `json:"scenes"`
}

const systemPrompt = `You are a video script writer. Given a topic, produce a JSON object with a "title" and a "scenes" array. Each scene has "description", "narration" (one or two spoken sentences), "search_term" (short stock-footage query in English) and "estimated_duration_s" (narration length in seconds). Reply with JSON only, no markdown fences.`

// GenerateScript asks the model for a scene breakdown. An empty scene list in
// the reply is an error: a project must have at least one scene.
func (c *Client) GenerateScript(ctx context.Context, topic string, sceneCount int) (string, []studio.Scene, error) {
	if c.apiKey == "" {
		return "", nil, fmt.Errorf("script provider is not connected")
	}

	userPrompt := fmt.Sprintf("Topic: %s\nNumber of scenes: %d", topic, sceneCount)
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("script request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", nil, fmt.Errorf("script provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(tail)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", nil, fmt.Errorf("decode script response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", nil, fmt.Errorf("script provider returned no choices")
	}

	title, scenes, err := ParseScript(chat.Choices[0].Message.Content)
	if err != nil {
		return "", nil, err
	}

	if c.logger != nil {
		c.logger.Info("script generated", "topic", topic, "title", title, "scenes", len(scenes))
	}
	return title, scenes, nil
}

// ParseScript extracts the scene list from the model reply. Models sometimes
// wrap JSON in markdown fences despite instructions, so those are stripped.
func ParseScript(raw string) (string, []studio.Scene, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var payload scriptPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", nil, fmt.Errorf("parse script json: %w", err)
	}
	if len(payload.Scenes) == 0 {
		return "", nil, fmt.Errorf("script has no scenes")
	}
	if payload.Title == "" {
		return "", nil, fmt.Errorf("script has no title")
	}

	scenes := make([]studio.Scene, len(payload.Scenes))
	for i, s := range payload.Scenes {
		if s.Narration == "" {
			return "", nil, fmt.Errorf("scene %d has no narration", i)
		}
		term := s.SearchTerm
		if term == "" {
			term = s.Description
		}
		scenes[i] = studio.Scene{
			Index:             i,
			Description:       s.Description,
			Narration:         s.Narration,
			SearchTerm:        term,
			EstimatedDuration: s.EstimatedDuration,
			Visual:            studio.NoVisual(),
		}
	}
	return payload.Title, scenes, nil
}
