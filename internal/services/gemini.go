package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"sakura-backend/internal/models"
)

// GeminiCompleter is the alternative backend selected by AI_PROVIDER=gemini.
// The model name in CompletionOptions is ignored in favour of the one given
// at construction.
type GeminiCompleter struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGeminiCompleter returns a completer that is not ready when apiKey is
// empty. Extra client options are appended after the API key.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger, opts ...option.ClientOption) (*GeminiCompleter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &GeminiCompleter{model: model, timeout: timeout, logger: logger}
	if apiKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiCompleter) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *GeminiCompleter) Name() string { return "gemini" }

func (g *GeminiCompleter) Ready() bool { return g.client != nil }

func (g *GeminiCompleter) Complete(ctx context.Context, messages []models.PromptMessage, opts CompletionOptions) (string, error) {
	if g.client == nil {
		return "", ErrNotConfigured
	}
	if len(messages) == 0 || messages[len(messages)-1].Role != models.RoleUser {
		return "", fmt.Errorf("prompt must end with a user message")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// A fresh model handle per call keeps the shared client free of
	// per-request state.
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(float32(opts.Temperature))
	model.SetMaxOutputTokens(int32(opts.MaxTokens))

	cs := model.StartChat()
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case models.RoleSystem:
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.Text)}}
		case models.RoleAssistant:
			cs.History = append(cs.History, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Text)}})
		default:
			cs.History = append(cs.History, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Text)}})
		}
	}

	resp, err := cs.SendMessage(ctx, genai.Text(messages[len(messages)-1].Text))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			g.logger.Warn("gemini candidate stopped early", "candidate", i, "reason", cand.FinishReason.String())
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", &UpstreamError{StatusCode: 200, Err: ErrMalformedResponse}
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &TransportError{Err: err}
	}
	return &UpstreamError{Err: err}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
