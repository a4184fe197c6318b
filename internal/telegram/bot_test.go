package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"weekly-meal-planner/internal/app"
	"weekly-meal-planner/internal/catalog"
	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/metrics"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	callbacks int
	err       error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every message and edit sent so far.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	texts := f.texts()
	if len(texts) == 0 {
		t.Fatal("nothing was sent")
	}
	return texts[len(texts)-1]
}

type fakeUsage struct {
	rows []metrics.DailyUsage
}

func (f fakeUsage) GetDailyUsage(context.Context, int) ([]metrics.DailyUsage, error) {
	return f.rows, nil
}

func newTestBot(t *testing.T, allowID int64) (*Bot, *fakeSender, *app.App) {
	t.Helper()
	a := app.New(app.Options{
		KV: storage.NewMemoryStore(),
		Seed: catalog.Seed{
			shared.Lunch: {{Name: "Laksa", Emoji: "🍜", Category: shared.CategoryNoodles}},
			shared.Dinner: {
				{Name: "Rice", Emoji: "🍚", Category: shared.CategoryRice},
				{Name: "KaiLan", Emoji: "🥬", Category: shared.CategoryVegetables},
				{Name: "Chicken", Emoji: "🍗", Category: shared.CategoryChicken},
			},
		},
		Now: func() time.Time { return time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC) },
	})
	sender := &fakeSender{}
	cfg := &config.Config{DataDir: t.TempDir(), TelegramAllowUserID: allowID}
	usage := fakeUsage{rows: []metrics.DailyUsage{{Date: "2026-01-13", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 2}}}
	return NewBot(sender, a, usage, cfg, logger.Nop()), sender, a
}

func command(text string, userID int64) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 42},
		From:     &tgbotapi.User{ID: userID, UserName: "cook"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestHandleUpdate_Commands(t *testing.T) {
	ctx := context.Background()
	bot, sender, a := newTestBot(t, 0)

	bot.HandleUpdate(ctx, command("/week", 1))
	if got := sender.last(t); !strings.Contains(got, "Nothing planned yet") {
		t.Errorf("expected empty week hint, got %q", got)
	}

	bot.HandleUpdate(ctx, command("/suggest lunch", 1))
	if got := sender.last(t); got != "🎲 Placed 7 lunch dishes." {
		t.Errorf("unexpected suggest reply %q", got)
	}
	if n := a.Plan().Lunch.Count(); n != 7 {
		t.Errorf("expected 7 lunches, got %d", n)
	}

	bot.HandleUpdate(ctx, command("/suggest brunch", 1))
	if got := sender.last(t); !strings.Contains(got, "lunch or dinner") {
		t.Errorf("expected meal type hint, got %q", got)
	}

	bot.HandleUpdate(ctx, command("/week", 1))
	if got := sender.last(t); !strings.Contains(got, "🍜 Laksa") {
		t.Errorf("expected summary, got %q", got)
	}

	bot.HandleUpdate(ctx, command("/log", 1))
	if got := sender.last(t); got != "🗂️ Saved week Mon, Jan 19 to Sun, Jan 25." {
		t.Errorf("unexpected log reply %q", got)
	}

	bot.HandleUpdate(ctx, command("/logs", 1))
	if got := sender.last(t); !strings.Contains(got, "1. Mon, Jan 19 to Sun, Jan 25 (7 lunches, 0 dinners)") {
		t.Errorf("unexpected logs reply %q", got)
	}

	bot.HandleUpdate(ctx, command("/template dinner", 1))
	if got := sender.last(t); got != "No saved template yet." {
		t.Errorf("unexpected template reply %q", got)
	}

	bot.HandleUpdate(ctx, command("/clear lunch", 1))
	if got := sender.last(t); got != "🧹 Removed 7 lunch dishes." {
		t.Errorf("unexpected clear reply %q", got)
	}
}

func TestHandleUpdate_Share(t *testing.T) {
	ctx := context.Background()
	bot, sender, a := newTestBot(t, 0)

	bot.HandleUpdate(ctx, command("/share", 1))
	if got := sender.last(t); got != "Nothing planned yet." {
		t.Errorf("unexpected reply for empty plan %q", got)
	}

	if _, err := a.AddDish(ctx, shared.Monday, shared.Lunch, "Laksa"); err != nil {
		t.Fatalf("AddDish failed: %v", err)
	}
	bot.HandleUpdate(ctx, command("/share", 1))
	got := sender.last(t)
	if !strings.HasPrefix(got, "📅 Weekly Menus") || !strings.Contains(got, "🍜 Laksa") {
		t.Errorf("unexpected shared summary %q", got)
	}
}

func TestHandleUpdate_UnauthorizedUserIgnored(t *testing.T) {
	bot, sender, _ := newTestBot(t, 7)

	bot.HandleUpdate(context.Background(), command("/week", 8))
	if n := len(sender.texts()); n != 0 {
		t.Errorf("expected no reply to unauthorized user, got %d", n)
	}

	bot.HandleUpdate(context.Background(), command("/week", 7))
	if n := len(sender.texts()); n != 1 {
		t.Errorf("expected one reply to allowed user, got %d", n)
	}
}

func TestHandleUpdate_Callback(t *testing.T) {
	bot, sender, a := newTestBot(t, 0)

	bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 1},
		Data:    "suggest|dinner",
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 42}},
	}})

	if sender.callbacks != 1 {
		t.Errorf("expected callback to be answered once, got %d", sender.callbacks)
	}
	if n := a.Plan().Dinner.Count(); n == 0 {
		t.Error("expected dinners to be generated")
	}
	if got := sender.last(t); !strings.Contains(got, "🍚 Rice") {
		t.Errorf("expected edited summary with rice, got %q", got)
	}
}

func TestHandleUpdate_Metrics(t *testing.T) {
	bot, sender, _ := newTestBot(t, 0)

	bot.HandleUpdate(context.Background(), command("/metrics", 1))
	got := sender.last(t)
	if !strings.Contains(got, "📊 *Usage & Health Report*") {
		t.Error("Missing report header")
	}
	if !strings.Contains(got, "• *2026-01-13*: 150 tokens (2 execs)") {
		t.Errorf("Missing usage line in %q", got)
	}
}

func TestNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, 42)
	if n.Name() != "telegram" {
		t.Errorf("unexpected name %q", n.Name())
	}
	if err := n.Share(context.Background(), "title", "body"); err != nil {
		t.Fatalf("Share failed: %v", err)
	}
	if got := sender.last(t); got != "body" {
		t.Errorf("expected body to be sent, got %q", got)
	}

	if err := NewNotifier(sender, 0).Share(context.Background(), "t", "b"); err == nil {
		t.Error("expected error without chat id")
	}

	failing := &fakeSender{err: errors.New("network down")}
	if err := NewNotifier(failing, 42).Share(context.Background(), "t", "b"); err == nil {
		t.Error("expected send error to be returned")
	}
}

func TestWebhook(t *testing.T) {
	bot, sender, _ := newTestBot(t, 0)

	if err := bot.SetWebhook("https://example.com/webhook"); err != nil {
		t.Fatalf("SetWebhook failed: %v", err)
	}
	if sender.callbacks != 1 {
		t.Errorf("expected one API request, got %d", sender.callbacks)
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed update, got %d", rec.Code)
	}
}
