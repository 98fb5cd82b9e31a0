package services

import (
	"context"
	"errors"
	"log/slog"

	"sakura-backend/internal/models"
	"sakura-backend/internal/prompt"
)

// Fallback sentences shown to the customer instead of a model reply.
const (
	FallbackNotConfigured = "Извините, AI временно недоступен."
	FallbackUpstream      = "Произошла ошибка при генерации ответа."
	FallbackTransport     = "Извините, произошла техническая ошибка."
)

// Completion outcomes, used as metric labels.
const (
	outcomeOK            = "ok"
	outcomeNotConfigured = "not_configured"
	outcomeUpstream      = "upstream_error"
	outcomeTransport     = "transport_error"
)

type ChatService struct {
	completer    Completer
	opts         CompletionOptions
	systemPrompt string
	promptOpts   prompt.Options
	logger       *slog.Logger
}

func NewChatService(completer Completer, opts CompletionOptions, systemPrompt string, promptOpts prompt.Options, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		completer:    completer,
		opts:         opts,
		systemPrompt: systemPrompt,
		promptOpts:   promptOpts,
		logger:       logger,
	}
}

// Ready reports whether the backend has credentials.
func (s *ChatService) Ready() bool {
	return s.completer != nil && s.completer.Ready()
}

// Provider names the configured backend.
func (s *ChatService) Provider() string {
	if s.completer == nil {
		return "none"
	}
	return s.completer.Name()
}

// Reply answers a trimmed, non-empty user message. It never fails: every
// upstream problem is logged and replaced with a fallback sentence.
func (s *ChatService) Reply(ctx context.Context, message string, history []models.ChatTurn) string {
	if s.completer == nil {
		completionsTotal.WithLabelValues("none", outcomeNotConfigured).Inc()
		return FallbackNotConfigured
	}

	messages := prompt.BuildWithOptions(s.systemPrompt, history, message, s.promptOpts)
	text, err := s.completer.Complete(ctx, messages, s.opts)
	outcome, reply := classifyCompletion(err)
	completionsTotal.WithLabelValues(s.completer.Name(), outcome).Inc()

	switch outcome {
	case outcomeOK:
		return text
	case outcomeNotConfigured:
		s.logger.Warn("chat requested but AI backend is not configured", "provider", s.completer.Name())
	default:
		s.logger.Error("AI completion failed",
			"provider", s.completer.Name(),
			"outcome", outcome,
			"error", err,
		)
	}
	return reply
}

func classifyCompletion(err error) (outcome, fallback string) {
	var upstream *UpstreamError
	var transport *TransportError
	switch {
	case err == nil:
		return outcomeOK, ""
	case errors.Is(err, ErrNotConfigured):
		return outcomeNotConfigured, FallbackNotConfigured
	case errors.As(err, &transport):
		return outcomeTransport, FallbackTransport
	case errors.As(err, &upstream):
		return outcomeUpstream, FallbackUpstream
	default:
		return outcomeTransport, FallbackTransport
	}
}
