package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sakura-backend/internal/middleware"
	"sakura-backend/internal/models"
)

const orderConfirmation = "Заказ принят! Мы свяжемся с вами в ближайшее время."

type orderDispatcher interface {
	Dispatch(order models.OrderRequest, event models.OrderEvent)
}

// OrderHandler acknowledges orders. Nothing is stored: the order lives only
// in the log line and the outgoing notifications.
type OrderHandler struct {
	dispatcher orderDispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewOrderHandler(dispatcher orderDispatcher, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Некорректный запрос", r))
		return
	}

	if field := firstMissingField(req); field != "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields(
			"VALIDATION_ERROR",
			fmt.Sprintf("Отсутствует обязательное поле: %s", field),
			map[string]string{field: "required"},
			r,
		))
		return
	}

	now := h.now()
	orderID := fmt.Sprintf("ORDER_%d", now.Unix())
	event := models.NewOrderEvent(orderID, req, now)

	h.logger.Info("order received",
		"request_id", middleware.GetRequestID(r.Context()),
		"order_id", orderID,
		"items", len(req.Items),
		"total", event.Total,
		"delivery_time", req.DeliveryTime,
	)

	if h.dispatcher != nil {
		h.dispatcher.Dispatch(req, event)
	}

	writeJSON(w, http.StatusOK, models.OrderAck{
		Success: true,
		OrderID: orderID,
		Message: orderConfirmation,
	})
}

// firstMissingField checks required fields in the order name, phone,
// address, items.
func firstMissingField(req models.OrderRequest) string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "name"
	case strings.TrimSpace(req.Phone) == "":
		return "phone"
	case strings.TrimSpace(req.Address) == "":
		return "address"
	case len(req.Items) == 0:
		return "items"
	}
	return ""
}
