package models

import "time"

type OrderItem struct {
	Title    string `json:"title"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderRequest is the order form submitted from the landing page.
// Name, Phone, Address and Items are required.
type OrderRequest struct {
	Name          string      `json:"name"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	Items         []OrderItem `json:"items"`
	Total         *int        `json:"total,omitempty"`
	DeliveryTime  string      `json:"delivery_time,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	Comment       string      `json:"comment,omitempty"`
	Email         string      `json:"email,omitempty"`
}

type OrderAck struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

// OrderEvent is what gets broadcast to kitchen screens and notification
// channels. It carries neither customer contact details nor the free-text
// comment.
type OrderEvent struct {
	OrderID       string      `json:"order_id"`
	Items         []OrderItem `json:"items"`
	Total         int         `json:"total"`
	DeliveryTime  string      `json:"delivery_time,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ItemsTotal sums price*quantity over the order lines.
func ItemsTotal(items []OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.Price * it.Quantity
	}
	return total
}

// NewOrderEvent strips contact details from an accepted order.
func NewOrderEvent(orderID string, req OrderRequest, at time.Time) OrderEvent {
	total := ItemsTotal(req.Items)
	if req.Total != nil {
		total = *req.Total
	}
	return OrderEvent{
		OrderID:       orderID,
		Items:         req.Items,
		Total:         total,
		DeliveryTime:  req.DeliveryTime,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     at,
	}
}
