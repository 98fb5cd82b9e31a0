package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderYandex = "yandex"
	ProviderGemini = "gemini"
)

type Config struct {
	// Server
	Port    string
	Env     string
	Debug   bool
	Version string

	// Completion backend
	AIProvider          string
	AITemperature       float64
	AIMaxTokens         int
	AIRequestTimeout    time.Duration
	PromptInlineHistory bool

	// Yandex Cloud
	YandexFolderID      string
	YandexAPIKey        string
	YandexIAMToken      string
	YandexSAKeyFile     string
	YandexModel         string
	YandexModelVersion  string
	YandexCompletionURL string
	YandexIAMURL        string

	// Gemini AI
	GeminiAPIKey string
	GeminiModel  string

	// Landing page
	TemplatePath string
	FrontendURL  string

	// Redis (order events + kitchen feed), optional
	RedisURL string

	// Discord order notifications, optional
	DiscordWebhookURL string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// Load reads configuration from the environment, after loading envFile
// (".env" when empty) if it exists. Missing credentials are not an error:
// the chat endpoint falls back to a static reply instead.
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = ".env"
	}
	godotenv.Load(envFile)

	cfg := &Config{
		Port:    getEnvOrDefault("PORT", "5000"),
		Env:     getEnvOrDefault("ENV", "development"),
		Debug:   getEnvAsBoolOrDefault("DEBUG", false),
		Version: getEnvOrDefault("APP_VERSION", "1.0"),

		AIProvider:          strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderYandex)),
		AITemperature:       getEnvAsFloatOrDefault("AI_TEMPERATURE", 0.7),
		AIMaxTokens:         getEnvAsIntOrDefault("AI_MAX_TOKENS", 500),
		AIRequestTimeout:    time.Duration(getEnvAsIntOrDefault("AI_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		PromptInlineHistory: getEnvAsBoolOrDefault("PROMPT_INLINE_HISTORY", false),

		YandexFolderID:      getEnvOrDefault("YANDEX_CLOUD_FOLDER_ID", "b1ga94okgf6e5d8edu0u"),
		YandexAPIKey:        os.Getenv("YANDEX_API_KEY"),
		YandexIAMToken:      os.Getenv("YANDEX_IAM_TOKEN"),
		YandexSAKeyFile:     os.Getenv("YANDEX_SA_KEY_FILE"),
		YandexModel:         getEnvOrDefault("YANDEX_MODEL", "yandexgpt-lite"),
		YandexModelVersion:  getEnvOrDefault("YANDEX_MODEL_VERSION", "latest"),
		YandexCompletionURL: getEnvOrDefault("YANDEX_COMPLETION_URL", "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"),
		YandexIAMURL:        getEnvOrDefault("YANDEX_IAM_URL", "https://iam.api.cloud.yandex.net/iam/v1/tokens"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		TemplatePath: getEnvOrDefault("TEMPLATE_PATH", "templates/index.html"),
		FrontendURL:  getEnvOrDefault("FRONTEND_URL", "*"),

		RedisURL:          os.Getenv("REDIS_URL"),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),

		SMTPHost: getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort: getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser: getEnvOrDefault("SMTP_USER", ""),
		SMTPPass: getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "orders@sakura-sushi.ru"),
	}

	return cfg
}

// Validate rejects settings the server cannot run with. Absent credentials
// are deliberately not checked here.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderYandex, ProviderGemini:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}
	if c.AIRequestTimeout <= 0 {
		return fmt.Errorf("AI_REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.AIMaxTokens <= 0 {
		return fmt.Errorf("AI_MAX_TOKENS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
