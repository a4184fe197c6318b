package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weekly-meal-planner/internal/bootstrap"
	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/telegram"
)

func main() {
	// 1. Load Configuration
	log := logger.New(logger.DefaultConfig())
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal("Failed to load .env", "error", err)
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	log = logger.New(logger.Config{
		Level:        logger.ParseLevel(cfg.LogLevel),
		Format:       cfg.LogFormat,
		Output:       "stderr",
		EnableCaller: true,
		Component:    "telegram-bot",
	})

	ctx := context.Background()

	// 2. Open the store and planner
	env, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start", "error", err)
	}
	defer env.Close()

	// 3. Initialize Telegram Bot
	api, err := telegram.Connect(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize Telegram Bot", "error", err)
	}
	var usage telegram.UsageReporter
	if env.Metrics != nil {
		usage = env.Metrics
	}
	bot := telegram.NewBot(api, env.App, usage, cfg, log)
	if cfg.TelegramWebhookURL == "" {
		log.Fatal("TELEGRAM_WEBHOOK_URL is required")
	}
	if err := bot.SetWebhook(cfg.TelegramWebhookURL); err != nil {
		log.Fatal("Failed to set webhook", "error", err)
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 4. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           log.HTTPMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Telegram Bot Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exiting")
}
