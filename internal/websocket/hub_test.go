package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sakura-backend/internal/models"
	"sakura-backend/internal/services"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesAllScreens(t *testing.T) {
	hub := NewHub(nil, "sakura:orders", nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	payload := `{"order_id":"ORDER_1792413000","total":490}`
	hub.Broadcast([]byte(payload))

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, payload, string(msg))
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil, "sakura:orders", nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RelaysPublishedOrders(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub(client, services.OrderChannel, nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(services.OrderChannel)[services.OrderChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	order := models.OrderRequest{
		Name:    "Тестовый Клиент",
		Phone:   "+79123456789",
		Address: "г. Владивосток, ул. Тестовая, 1",
		Items:   []models.OrderItem{{Title: "Philadelphia", Price: 490, Quantity: 1}},
	}
	event := models.NewOrderEvent("ORDER_1792413000", order, time.Unix(1792413000, 0))
	require.NoError(t, services.NewRedisOrderPublisher(client).Notify(context.Background(), order, event))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.OrderEvent
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "ORDER_1792413000", got.OrderID)
	assert.Equal(t, 490, got.Total)
	assert.Equal(t, order.Items, got.Items)
	assert.NotContains(t, string(msg), order.Phone)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, hub.ConnectionCount())
}
