package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"weekly-meal-planner/internal/app"
	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/metrics"
	"weekly-meal-planner/internal/shared"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Telegram API the bot uses. *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UsageReporter returns LLM usage per day, newest first.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

const helpText = `🍽️ Weekly meal planner

/week - show this week's menus
/suggest lunch|dinner - generate a fresh week
/clear lunch|dinner - clear a meal type
/template lunch|dinner - apply the saved template
/log - save this week to the log
/logs - list saved weeks
/recipe <dish> - show a recipe
/clip <url> <dish> - save a recipe from a web page
/share - post the summary to this chat
/metrics - LLM usage and health`

// Bot answers Telegram commands against the planner.
type Bot struct {
	api     Sender
	app     *app.App
	usage   UsageReporter
	dataDir string
	allowID int64
	logger  *logger.Logger
}

// Connect authorizes against the Bot API.
func Connect(cfg *config.Config, log *logger.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_BOT_TOKEN is not set", app.ErrUnavailable)
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info("Authorized on telegram", "account", api.Self.UserName)
	return api, nil
}

// NewBot creates a bot. usage may be nil when metrics are not stored. A zero
// allowID accepts every user.
func NewBot(api Sender, a *app.App, usage UsageReporter, cfg *config.Config, log *logger.Logger) *Bot {
	return &Bot{
		api:     api,
		app:     a,
		usage:   usage,
		dataDir: cfg.DataDir,
		allowID: cfg.TelegramAllowUserID,
		logger:  log.WithComponent("telegram"),
	}
}

// SetWebhook points Telegram at webhookURL.
func (b *Bot) SetWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := b.api.Request(wh)
	if err != nil {
		return fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	b.logger.Info("Webhook set", "description", resp.Description)
	return nil
}

// RegisterHandlers mounts the webhook on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("Error parsing update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	go b.HandleUpdate(context.Background(), update)
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.allowed(update.CallbackQuery.From) {
			return
		}
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		if !b.allowed(update.Message.From) {
			return
		}
		b.processMessage(ctx, update.Message)
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if b.allowID == 0 {
		return true
	}
	if from == nil || from.ID != b.allowID {
		if from != nil {
			b.logger.Warn("Unauthorized access attempt", "user_id", from.ID, "username", from.UserName)
		}
		return false
	}
	return true
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.reply(msg.Chat.ID, helpText)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText)
	case "week":
		b.sendWeek(chatID)
	case "suggest":
		b.withMeal(chatID, args, func(meal shared.MealType) {
			n, err := b.app.AutoSuggest(ctx, meal)
			if err != nil {
				b.replyError(chatID, "Error generating menus", err)
				return
			}
			b.reply(chatID, fmt.Sprintf("🎲 Placed %d %s dishes.", n, meal))
		})
	case "clear":
		b.withMeal(chatID, args, func(meal shared.MealType) {
			n, err := b.app.ClearAll(ctx, meal)
			if err != nil {
				b.replyError(chatID, "Error clearing menus", err)
				return
			}
			b.reply(chatID, fmt.Sprintf("🧹 Removed %d %s dishes.", n, meal))
		})
	case "template":
		b.withMeal(chatID, args, func(meal shared.MealType) {
			res, err := b.app.ApplyTemplate(ctx, meal)
			if errors.Is(err, app.ErrNoTemplate) {
				b.reply(chatID, "No saved template yet.")
				return
			}
			if err != nil {
				b.replyError(chatID, "Error applying template", err)
				return
			}
			text := fmt.Sprintf("📋 Loaded %d dishes from %q.", res.Loaded, res.Name)
			if res.Skipped > 0 {
				text += fmt.Sprintf(" %d skipped, days were full.", res.Skipped)
			}
			b.reply(chatID, text)
		})
	case "log":
		entry, err := b.app.SaveWeekLog(ctx, "", "")
		if err != nil {
			b.replyError(chatID, "Error saving the week", err)
			return
		}
		b.reply(chatID, fmt.Sprintf("🗂️ Saved week %s to %s.", entry.StartDate, entry.EndDate))
	case "logs":
		b.sendLogs(ctx, chatID)
	case "recipe":
		b.sendRecipe(ctx, chatID, args)
	case "clip":
		b.clip(ctx, chatID, args)
	case "share":
		results, err := b.app.Share(ctx, NewNotifier(b.api, chatID))
		if errors.Is(err, app.ErrNothingPlanned) {
			b.reply(chatID, "Nothing planned yet.")
			return
		}
		for _, r := range results {
			if r.Err != nil {
				b.replyError(chatID, "Error sharing", r.Err)
			}
		}
	case "metrics":
		b.handleMetricsCommand(ctx, chatID)
	default:
		b.reply(chatID, helpText)
	}
}

func (b *Bot) withMeal(chatID int64, arg string, fn func(shared.MealType)) {
	meal, ok := shared.ParseMealType(arg)
	if !ok {
		b.reply(chatID, "Please name a meal type: lunch or dinner.")
		return
	}
	fn(meal)
}

func (b *Bot) sendWeek(chatID int64) {
	text, ok := b.app.Summary()
	if !ok {
		text = "Nothing planned yet. Try /suggest dinner."
	}
	msg := tgbotapi.NewMessage(chatID, text)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎲 New lunches", "suggest|lunch"),
			tgbotapi.NewInlineKeyboardButtonData("🎲 New dinners", "suggest|dinner"),
		),
	)
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", "error", err)
	}
	if query.Message == nil {
		return
	}

	action, arg, _ := strings.Cut(query.Data, "|")
	if action != "suggest" {
		return
	}
	meal, ok := shared.ParseMealType(arg)
	if !ok {
		return
	}
	if _, err := b.app.AutoSuggest(ctx, meal); err != nil {
		b.replyError(query.Message.Chat.ID, "Error generating menus", err)
		return
	}

	text, _ := b.app.Summary()
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	b.send(edit)
}

func (b *Bot) sendLogs(ctx context.Context, chatID int64) {
	logs, err := b.app.Logs(ctx)
	if err != nil {
		b.replyError(chatID, "Error reading the log", err)
		return
	}
	if len(logs) == 0 {
		b.reply(chatID, "No saved weeks yet. Use /log to save this one.")
		return
	}
	var sb strings.Builder
	sb.WriteString("🗂️ Saved weeks\n\n")
	for i, e := range logs {
		fmt.Fprintf(&sb, "%d. %s to %s (%d lunches, %d dinners)\n", i+1, e.StartDate, e.EndDate, e.Plan.Lunch.Count(), e.Plan.Dinner.Count())
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) sendRecipe(ctx context.Context, chatID int64, dish string) {
	if dish == "" {
		b.reply(chatID, "Usage: /recipe <dish>")
		return
	}
	text, err := b.app.Recipe(ctx, dish)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("No recipe saved for %s.", dish))
		return
	}
	b.reply(chatID, fmt.Sprintf("📖 %s\n\n%s", dish, text))
}

func (b *Bot) clip(ctx context.Context, chatID int64, args string) {
	url, dish, _ := strings.Cut(args, " ")
	dish = strings.TrimSpace(dish)
	if (!strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://")) || dish == "" {
		b.reply(chatID, "Usage: /clip <url> <dish>")
		return
	}

	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, "✂️ Clipping recipe..."))
	if err != nil {
		b.logger.Warn("Failed to send initial reply", "error", err)
		return
	}

	var finalText string
	if _, err := b.app.ClipRecipe(ctx, dish, url); err != nil {
		b.logger.Warn("Error clipping recipe", "url", url, "error", err)
		finalText = fmt.Sprintf("❌ Error clipping recipe: %v", err)
	} else {
		finalText = fmt.Sprintf("✅ Recipe saved for %s.", dish)
	}
	b.send(tgbotapi.NewEditMessageText(chatID, sent.MessageID, finalText))
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	if b.usage == nil {
		b.reply(chatID, "Metrics are not enabled.")
		return
	}
	usage, err := b.usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.replyError(chatID, "Error fetching metrics", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatReport(usage, metrics.GetSysHealth(b.dataDir)))
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func formatReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyError(chatID int64, what string, err error) {
	b.logger.Warn(what, "error", err)
	b.reply(chatID, fmt.Sprintf("❌ %s: %v", what, err))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("Failed to send telegram message", "error", err)
	}
}
