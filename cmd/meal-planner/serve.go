package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"weekly-meal-planner/internal/api"
	"weekly-meal-planner/internal/bootstrap"
	"weekly-meal-planner/internal/catalog"
	"weekly-meal-planner/internal/telegram"
)

func runServe(ctx context.Context, env *bootstrap.Env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":"+env.Config.Port, "Listen address")
	fs.Parse(args)

	log := env.Logger

	if path := env.Config.SeedCSVPath; path != "" {
		watcher, err := catalog.NewSeedWatcher(env.App.Catalog(), path)
		if err != nil {
			return err
		}
		go watcher.Watch(ctx)
		log.Info("Watching seed file", "path", path)
	}

	mux := http.NewServeMux()
	mux.Handle("/", api.NewHandler(env.App, log).Routes())

	if env.Config.TelegramBotToken != "" {
		tg, err := telegram.Connect(env.Config, log)
		if err != nil {
			return err
		}
		var usage telegram.UsageReporter
		if env.Metrics != nil {
			usage = env.Metrics
		}
		bot := telegram.NewBot(tg, env.App, usage, env.Config, log)
		if env.Config.TelegramWebhookURL != "" {
			if err := bot.SetWebhook(env.Config.TelegramWebhookURL); err != nil {
				return err
			}
		}
		bot.RegisterHandlers(mux)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return err
	}
	log.Info("Server exiting")
	return nil
}
