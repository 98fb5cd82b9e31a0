package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sakura-backend/internal/menu"
	"sakura-backend/internal/models"
	"sakura-backend/internal/prompt"
	"sakura-backend/internal/services"
)

var fixedNow = time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

type fakeChat struct {
	calls   int
	message string
	history []models.ChatTurn
}

func (f *fakeChat) Reply(_ context.Context, message string, history []models.ChatTurn) string {
	f.calls++
	f.message = message
	f.history = history
	return "Попробуйте Филадельфию!"
}

type fakeDispatcher struct {
	orders []models.OrderRequest
	events []models.OrderEvent
}

func (f *fakeDispatcher) Dispatch(order models.OrderRequest, event models.OrderEvent) {
	f.orders = append(f.orders, order)
	f.events = append(f.events, event)
}

type fakeReadiness struct{ ready bool }

func (f fakeReadiness) Ready() bool      { return f.ready }
func (f fakeReadiness) Provider() string { return "yandexgpt" }

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

// ─── Chat ───

func TestChat_RejectsEmptyMessages(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"message": ""}`,
		`{"message": "   "}`,
		`{"message": "\n\t", "history": [{"user": "a", "bot": "b"}]}`,
		`not json`,
		`{"message": 42}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			chat := &fakeChat{}
			h := NewChatHandler(chat, nil)

			rr := postJSON(t, h.Chat, "/api/chat", body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Zero(t, chat.calls, "no completion call expected")

			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		})
	}
}

func TestChat_TrimsAndReplies(t *testing.T) {
	chat := &fakeChat{}
	h := NewChatHandler(chat, nil)
	h.now = func() time.Time { return fixedNow }

	rr := postJSON(t, h.Chat, "/api/chat", `{"message": "  Что посоветуете?  ", "history": [{"user": "Привет", "bot": "Здравствуйте!"}]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Что посоветуете?", chat.message)
	assert.Equal(t, []models.ChatTurn{{User: "Привет", Bot: "Здравствуйте!"}}, chat.history)

	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Попробуйте Филадельфию!", resp.Response)
	assert.Equal(t, "2026-10-19T12:30:00Z", resp.Timestamp)
}

func TestChat_WithoutCredentialsReturnsFallback(t *testing.T) {
	yandex := services.NewYandexGPTClient("http://127.0.0.1:1", "folder", nil, time.Second, nil)
	svc := services.NewChatService(yandex, services.CompletionOptions{Temperature: 0.7, MaxTokens: 500}, prompt.SystemPrompt, prompt.Options{}, nil)
	h := NewChatHandler(svc, nil)

	rr := postJSON(t, h.Chat, "/api/chat", `{"message": "Привет", "history": []}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, services.FallbackNotConfigured, resp.Response)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
}

// ─── Order ───

const validOrder = `{
	"name": "Тестовый Клиент",
	"phone": "+79123456789",
	"email": "test@example.com",
	"address": "г. Владивосток, ул. Тестовая, 1",
	"delivery_time": "asap",
	"payment_method": "cash",
	"comment": "Тестовый заказ",
	"items": [{"title": "Philadelphia", "price": 490, "quantity": 1}],
	"total": 490
}`

func TestOrder_Accepts(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewOrderHandler(dispatcher, nil)
	h.now = func() time.Time { return fixedNow }

	rr := postJSON(t, h.Create, "/api/order", validOrder)

	require.Equal(t, http.StatusOK, rr.Code)
	var ack models.OrderAck
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ack))
	assert.True(t, ack.Success)
	assert.Equal(t, "ORDER_1792413000", ack.OrderID)
	assert.Equal(t, orderConfirmation, ack.Message)

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, ack.OrderID, dispatcher.events[0].OrderID)
	assert.Equal(t, 490, dispatcher.events[0].Total)
	assert.Equal(t, "test@example.com", dispatcher.orders[0].Email)
}

func TestOrder_MissingRequiredFields(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"name":    "Клиент",
			"phone":   "+79123456789",
			"address": "ул. Тестовая, 1",
			"items":   []map[string]any{{"title": "Philadelphia", "price": 490, "quantity": 1}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(m map[string]any)
		missing string
	}{
		{"no name", func(m map[string]any) { delete(m, "name") }, "name"},
		{"blank name", func(m map[string]any) { m["name"] = "  " }, "name"},
		{"no phone", func(m map[string]any) { delete(m, "phone") }, "phone"},
		{"no address", func(m map[string]any) { delete(m, "address") }, "address"},
		{"no items", func(m map[string]any) { delete(m, "items") }, "items"},
		{"empty items", func(m map[string]any) { m["items"] = []any{} }, "items"},
		{"first missing wins", func(m map[string]any) { delete(m, "phone"); delete(m, "items") }, "phone"},
		{"everything missing", func(m map[string]any) { clear(m) }, "name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := base()
			tc.mutate(body)
			raw, _ := json.Marshal(body)

			dispatcher := &fakeDispatcher{}
			h := NewOrderHandler(dispatcher, nil)
			rr := postJSON(t, h.Create, "/api/order", string(raw))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotContains(t, rr.Body.String(), "order_id")
			assert.Empty(t, dispatcher.events)

			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&resp))
			assert.Contains(t, resp.Error.Message, tc.missing)
			assert.Equal(t, map[string]string{tc.missing: "required"}, resp.Error.Fields)
		})
	}
}

func TestOrder_InvalidJSON(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	h := NewOrderHandler(dispatcher, nil)

	rr := postJSON(t, h.Create, "/api/order", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, dispatcher.events)
}

// ─── Menu ───

func TestMenu_StableAcrossCalls(t *testing.T) {
	catalog, err := menu.Default()
	require.NoError(t, err)
	h := NewMenuHandler(catalog)

	var bodies []string
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.List(rr, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		bodies = append(bodies, rr.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[1], bodies[2])

	var resp models.MenuResponse
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &resp))
	assert.Len(t, resp.Menu, catalog.Len())
}

// ─── Health ───

func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		ready     bool
		apiKeySet bool
	}{
		{"configured", true, true},
		{"not configured", false, false},
		{"credential present but unusable", false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler("1.0", "api_key", tc.apiKeySet, fakeReadiness{ready: tc.ready})
			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rr.Code)
			var resp models.HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "healthy", resp.Status)
			assert.Equal(t, "1.0", resp.Version)
			assert.Equal(t, tc.ready, resp.AIReady)
			assert.Equal(t, tc.apiKeySet, resp.APIKeySet)
		})
	}
}

// ─── Landing page ───

func TestIndex_MissingTemplate(t *testing.T) {
	catalog, _ := menu.Default()
	h := NewPageHandler(filepath.Join(t.TempDir(), "missing.html"), catalog, nil)

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, templateErrorPage, rr.Body.String())
}

func TestIndex_RendersTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(`<title>{{.Restaurant}}</title>{{range .Menu}}<li>{{.Name}}</li>{{end}}`), 0o644))

	catalog, _ := menu.Default()
	h := NewPageHandler(path, catalog, nil)

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Sakura Sushi")
	assert.Contains(t, rr.Body.String(), "<li>Филадельфия</li>")
}

func TestIndex_BrokenTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(`{{.Nope}`), 0o644))

	catalog, _ := menu.Default()
	h := NewPageHandler(path, catalog, nil)

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
