package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"sakura-backend/internal/config"
	"sakura-backend/internal/database"
	"sakura-backend/internal/handlers"
	"sakura-backend/internal/menu"
	"sakura-backend/internal/prompt"
	"sakura-backend/internal/router"
	"sakura-backend/internal/services"
	"sakura-backend/internal/websocket"
)

func main() {
	cmd := &cli.Command{
		Name:  "sakura-server",
		Usage: "Sakura Sushi landing page, AI chat and order intake",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (overrides PORT)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging (overrides DEBUG)"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file to load if present"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("✗ Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	// ──── Step 1: Load configuration ────
	cfg := config.Load(cmd.String("env-file"))
	if cmd.IsSet("port") {
		cfg.Port = cmd.String("port")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("🚀 Starting Sakura Sushi backend...", "env", cfg.Env, "version", cfg.Version)
	logger.Info("✓ Environment variables loaded")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Menu ────
	catalog, err := menu.Default()
	if err != nil {
		return fmt.Errorf("menu: %w", err)
	}
	logger.Info("✓ Menu loaded", "items", catalog.Len())

	// ──── Step 3: Completion backend ────
	completer, authMode, apiKeySet, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := completer.(interface{ Close() }); ok {
		defer closer.Close()
	}

	chat := services.NewChatService(
		completer,
		services.CompletionOptions{
			Temperature: cfg.AITemperature,
			MaxTokens:   cfg.AIMaxTokens,
			Model: services.ModelRef{
				FolderID: cfg.YandexFolderID,
				Name:     cfg.YandexModel,
				Version:  cfg.YandexModelVersion,
			},
		},
		prompt.SystemPrompt,
		prompt.Options{InlineHistory: cfg.PromptInlineHistory},
		logger,
	)

	// ──── Step 4: Order notifications ────
	var notifiers []services.Notifier
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("✗ Redis connection failed, order events disabled", "error", err)
		} else {
			defer redisClient.Close()
			notifiers = append(notifiers, services.NewRedisOrderPublisher(redisClient))
			logger.Info("✓ Redis connected")
		}
	}
	if cfg.DiscordWebhookURL != "" {
		discord, err := services.NewDiscordNotifier(cfg.DiscordWebhookURL)
		if err != nil {
			logger.Error("✗ Discord webhook disabled", "error", err)
		} else {
			notifiers = append(notifiers, discord)
		}
	}
	notifiers = append(notifiers, services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, logger))

	dispatcher := services.NewOrderDispatcher(logger, notifiers...)
	logger.Info("✓ Order notifications configured", "channels", dispatcher.Channels())

	// ──── Step 5: Kitchen feed ────
	var wsHub *websocket.Hub
	if redisClient != nil {
		wsHub = websocket.NewHub(redisClient, services.OrderChannel, logger)
		logger.Info("✓ Kitchen feed enabled")
	}

	// ──── Step 6: HTTP server ────
	r := router.New(router.Handlers{
		Page:   handlers.NewPageHandler(cfg.TemplatePath, catalog, logger),
		Chat:   handlers.NewChatHandler(chat, logger),
		Menu:   handlers.NewMenuHandler(catalog),
		Order:  handlers.NewOrderHandler(dispatcher, logger),
		Health: handlers.NewHealthHandler(cfg.Version, authMode, apiKeySet, chat),
	}, wsHub, cfg.FrontendURL, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AIRequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(fmt.Sprintf("✓ Sakura Sushi ready on http://localhost:%s", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if wsHub != nil {
		g.Go(func() error { return wsHub.Run(gctx) })
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// No new orders after Shutdown; let pending notifications finish.
		if err := dispatcher.Drain(shutdownCtx); err != nil {
			logger.Warn("✗ Order notifications lost on shutdown", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newCompleter builds the configured backend. Missing or unusable
// credentials are logged and leave the chat in fallback mode.
func newCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.Completer, string, bool, error) {
	switch cfg.AIProvider {
	case config.ProviderGemini:
		apiKeySet := cfg.GeminiAPIKey != ""
		gemini, err := services.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AIRequestTimeout, logger)
		if err != nil {
			return nil, "", false, fmt.Errorf("gemini client: %w", err)
		}
		if gemini.Ready() {
			logger.Info("✓ Gemini client initialized", "model", cfg.GeminiModel)
			return gemini, services.AuthModeAPIKey, apiKeySet, nil
		}
		logger.Warn("✗ GEMINI_API_KEY not set, chat will answer with a fallback")
		return gemini, services.AuthModeNone, apiKeySet, nil

	default:
		apiKeySet := cfg.YandexAPIKey != "" || cfg.YandexIAMToken != "" || cfg.YandexSAKeyFile != ""
		creds, err := services.ResolveCredentials(cfg.YandexAPIKey, cfg.YandexIAMToken, cfg.YandexSAKeyFile, cfg.YandexIAMURL)
		if err != nil {
			logger.Error("✗ Yandex credentials unusable, chat will answer with a fallback", "error", err)
		}
		yandex := services.NewYandexGPTClient(cfg.YandexCompletionURL, cfg.YandexFolderID, creds, cfg.AIRequestTimeout, logger)
		if yandex.Ready() {
			logger.Info("✓ YandexGPT client initialized", "auth_mode", yandex.AuthMode(), "model", cfg.YandexModel)
		} else if err == nil {
			logger.Warn("✗ Yandex credentials not set, chat will answer with a fallback")
		}
		return yandex, yandex.AuthMode(), apiKeySet, nil
	}
}
