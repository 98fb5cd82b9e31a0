package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sakura-backend/internal/handlers"
	"sakura-backend/internal/middleware"
	"sakura-backend/internal/websocket"
)

type Handlers struct {
	Page   *handlers.PageHandler
	Chat   *handlers.ChatHandler
	Menu   *handlers.MenuHandler
	Order  *handlers.OrderHandler
	Health *handlers.HealthHandler
}

// New builds the HTTP router. The kitchen feed is mounted only when wsHub
// is non-nil.
func New(h Handlers, wsHub *websocket.Hub, frontendURL string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Metrics(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(frontendURL))

	r.Get("/", h.Page.Index)
	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat.Chat)
		r.Get("/menu", h.Menu.List)
		r.Post("/order", h.Order.Create)
	})

	// ──── Kitchen feed ────
	if wsHub != nil {
		r.Get("/ws/kitchen", wsHub.HandleWebSocket)
	}

	return r
}
