package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Store backends for the local key-value store.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config holds the configuration for the application.
type Config struct {
	DataDir        string
	DatabasePath   string
	StoreBackend   string
	SeedCSVPath    string
	LunchCapacity  int
	DinnerCapacity int

	LogLevel  string
	LogFormat string
	Port      string

	// LLM Config (optional, used for recipe drafting)
	LLMProvider  string
	GeminiAPIKey string
	GroqAPIKey   string

	// Telegram Config (optional, required for the bot and the telegram share target)
	TelegramBotToken    string
	TelegramWebhookURL  string
	TelegramChatID      int64
	TelegramAllowUserID int64

	// Ghost Config (optional, used by the ghost share target)
	GhostURL      string
	GhostAdminKey string
}

// LoadDotEnv reads a .env file into the process environment when one exists.
// Variables already set win over the file.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dataDir := getEnv("MEAL_PLANNER_DATA_DIR", "data")

	storeBackend := getEnv("MEAL_PLANNER_STORE", StoreSQLite)
	if storeBackend != StoreSQLite && storeBackend != StoreFile {
		return nil, fmt.Errorf("MEAL_PLANNER_STORE must be %q or %q, got %q", StoreSQLite, StoreFile, storeBackend)
	}

	lunchCapacity, err := getEnvInt("MEAL_PLANNER_LUNCH_CAPACITY", 1)
	if err != nil {
		return nil, err
	}
	dinnerCapacity, err := getEnvInt("MEAL_PLANNER_DINNER_CAPACITY", 4)
	if err != nil {
		return nil, err
	}

	telegramChatID, err := getEnvInt64("TELEGRAM_CHAT_ID")
	if err != nil {
		return nil, err
	}
	telegramAllowUserID, err := getEnvInt64("TELEGRAM_ALLOW_USER_ID")
	if err != nil {
		return nil, err
	}

	llmProvider := getEnv("LLM_PROVIDER", "gemini")
	if llmProvider != "gemini" && llmProvider != "groq" {
		return nil, fmt.Errorf("LLM_PROVIDER must be \"gemini\" or \"groq\", got %q", llmProvider)
	}

	return &Config{
		DataDir:             dataDir,
		DatabasePath:        getEnv("MEAL_PLANNER_DB_PATH", filepath.Join(dataDir, "meal-planner.db")),
		StoreBackend:        storeBackend,
		SeedCSVPath:         os.Getenv("MEAL_PLANNER_SEED_CSV"),
		LunchCapacity:       lunchCapacity,
		DinnerCapacity:      dinnerCapacity,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		Port:                getEnv("PORT", "8080"),
		LLMProvider:         llmProvider,
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:          os.Getenv("GROQ_API_KEY"),
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:  os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramChatID:      telegramChatID,
		TelegramAllowUserID: telegramAllowUserID,
		GhostURL:            os.Getenv("GHOST_API_URL"),
		GhostAdminKey:       os.Getenv("GHOST_ADMIN_API_KEY"),
	}, nil
}

// StorePath is the directory used by the file store backend.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getEnvInt64(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
