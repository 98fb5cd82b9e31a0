package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sakura-backend/internal/middleware"
	"sakura-backend/internal/models"
)

type chatService interface {
	Reply(ctx context.Context, message string, history []models.ChatTurn) string
}

type ChatHandler struct {
	chat   chatService
	logger *slog.Logger
	now    func() time.Time
}

func NewChatHandler(chat chatService, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		chat:   chat,
		logger: logger,
		now:    time.Now,
	}
}

// Chat answers a customer message. Upstream failures still produce a 200
// with a fallback sentence; only invalid input is rejected.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Некорректный запрос", r))
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Пустое сообщение", r))
		return
	}

	reply := h.chat.Reply(r.Context(), message, req.History)

	h.logger.Debug("chat answered",
		"request_id", middleware.GetRequestID(r.Context()),
		"history_turns", len(req.History),
	)

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response:  reply,
		Timestamp: h.now().Format(time.RFC3339),
	})
}
