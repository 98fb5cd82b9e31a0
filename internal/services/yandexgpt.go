package services

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

	"sakura-backend/internal/models"
)

const maxUpstreamBody = 1 << 20

// YandexGPTClient calls the foundation models completion endpoint over
// plain HTTP. A client without credentials is valid and reports
// ErrNotConfigured on every call.
type YandexGPTClient struct {
	endpoint string
	folderID string
	creds    Credentials
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

func NewYandexGPTClient(endpoint, folderID string, creds Credentials, timeout time.Duration, logger *slog.Logger) *YandexGPTClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &YandexGPTClient{
		endpoint: endpoint,
		folderID: folderID,
		creds:    creds,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (c *YandexGPTClient) Name() string { return "yandexgpt" }

func (c *YandexGPTClient) Ready() bool { return c.creds != nil }

// AuthMode reports which credential strategy is in use.
func (c *YandexGPTClient) AuthMode() string {
	if c.creds == nil {
		return AuthModeNone
	}
	return c.creds.Mode()
}

type completionRequest struct {
	ModelURI          string                 `json:"modelUri"`
	CompletionOptions completionOptions      `json:"completionOptions"`
	Messages          []models.PromptMessage `json:"messages"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens,string"`
}

type completionResponse struct {
	Result *struct {
		Alternatives []struct {
			Message *struct {
				Role string  `json:"role"`
				Text *string `json:"text"`
			} `json:"message"`
			Status string `json:"status"`
		} `json:"alternatives"`
	} `json:"result"`
}

func (c *YandexGPTClient) Complete(ctx context.Context, messages []models.PromptMessage, opts CompletionOptions) (string, error) {
	if c.creds == nil {
		return "", ErrNotConfigured
	}

	// Token minting and the completion call share one deadline.
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := opts.Model
	if model.FolderID == "" {
		model.FolderID = c.folderID
	}

	payload, err := json.Marshal(completionRequest{
		ModelURI: model.URI(),
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		},
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-folder-id", model.FolderID)
	if err := c.creds.Authorize(ctx, req); err != nil {
		return "", &TransportError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("completion request failed",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	text, err := extractCompletionText(body)
	if err != nil {
		c.logger.Error("completion response malformed", "body", string(body))
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	return text, nil
}

// extractCompletionText reads result.alternatives[0].message.text.
func extractCompletionText(body []byte) (string, error) {
	var out completionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Result == nil || len(out.Result.Alternatives) == 0 {
		return "", ErrMalformedResponse
	}
	msg := out.Result.Alternatives[0].Message
	if msg == nil || msg.Text == nil {
		return "", ErrMalformedResponse
	}
	return strings.TrimSpace(*msg.Text), nil
}
