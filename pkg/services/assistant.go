package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ChatterAI/models"
	"ChatterAI/pkg/config"

	"go.uber.org/zap"
)

// FallbackText is stored as the assistant reply whenever generation fails.
// A chat turn never surfaces an upstream error to the caller.
const FallbackText = "Sorry, I can't answer your question at the moment. Please try again later."

// historyWindow caps how many trailing messages make it into the prompt.
const historyWindow = 5

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type AssistantService struct {
	apiKey  string
	model   string
	enabled bool
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func NewAssistantService(cfg *config.Config, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		enabled: cfg.GeminiEnabled,
		baseURL: defaultBaseURL,
		timeout: time.Duration(cfg.AssistantTimeoutSeconds) * time.Second,
		client:  &http.Client{},
		logger:  logger,
	}
}

// Generate produces the assistant reply for one chat turn. It never returns
// an error and never retries: any upstream failure (disabled, timeout,
// non-200, malformed or empty body) degrades to FallbackText.
func (s *AssistantService) Generate(ctx context.Context, prompt string, history []models.Message) string {
	text, err := s.generate(ctx, buildPrompt(prompt, history))
	if err != nil {
		s.logger.Warn("assistant generation failed, using fallback", zap.Error(err))
		return FallbackText
	}
	return text
}

func buildPrompt(prompt string, history []models.Message) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var b strings.Builder
	for _, m := range history {
		role := "User"
		if m.Role == models.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
	}
	fmt.Fprintf(&b, "User: %s", prompt)
	return b.String()
}

func (s *AssistantService) generate(ctx context.Context, prompt string) (string, error) {
	if !s.enabled {
		return "", errors.New("assistant is disabled via config")
	}
	if strings.TrimSpace(s.apiKey) == "" {
		return "", errors.New("GEMINI_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reqBody := map[string]any{
		"contents": []any{
			map[string]any{
				"role":  "user",
				"parts": []any{map[string]any{"text": prompt}},
			},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("gemini response decode: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("gemini returned empty text")
	}
	return text, nil
}

func truncateBody(raw []byte) string {
	const max = 200
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
