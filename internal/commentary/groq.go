package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// Placeholder is used whenever commentary generation fails. Commentary is
// best-effort and must never block or abort a notification.
const Placeholder = "(コメント生成に失敗しました)"

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Client generates a short free-text rationale for a pick through an
// OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	cfg        *config.CommentaryConfig
	baseURL    string
}

func NewClient(cfg *config.CommentaryConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
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

// Generate returns a one-or-two sentence rationale for the candidate, or the
// placeholder on any failure.
func (c *Client) Generate(ctx context.Context, cand *models.Candidate) string {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	prompt := buildPrompt(cand)
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: 120,
	})
	if err != nil {
		return Placeholder
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Placeholder
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Commentary generation failed", "race", cand.Key.String(), "error", err)
		return Placeholder
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Commentary generation failed", "race", cand.Key.String(), "status", resp.StatusCode)
		return Placeholder
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Placeholder
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return Placeholder
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return Placeholder
	}
	return text
}

func buildPrompt(cand *models.Candidate) string {
	return fmt.Sprintf(
		"あなたは競艇の予想解説者です。%s%dRで2連単%s(的中確率%.1f%%)を推奨する理由を、風速%.1fm、本命%d号艇を踏まえて2文以内で書いてください。",
		models.VenueName(cand.Key.Venue), cand.Key.Race, cand.Combo,
		cand.Confidence*100, cand.Record.Wind, cand.BestBoat)
}
