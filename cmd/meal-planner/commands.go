package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"weekly-meal-planner/internal/app"
	"weekly-meal-planner/internal/bootstrap"
	"weekly-meal-planner/internal/export"
	"weekly-meal-planner/internal/ghost"
	"weekly-meal-planner/internal/metrics"
	"weekly-meal-planner/internal/share"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/telegram"
	"weekly-meal-planner/internal/version"
)

var errUsage = errors.New("wrong arguments, see meal-planner help")

func parseMeal(s string) (shared.MealType, error) {
	meal, ok := shared.ParseMealType(s)
	if !ok {
		return "", fmt.Errorf("unknown meal type %q, want lunch or dinner", s)
	}
	return meal, nil
}

func parseSlot(meal, day string) (shared.MealType, shared.Day, error) {
	m, err := parseMeal(meal)
	if err != nil {
		return "", "", err
	}
	d, ok := shared.ParseDay(day)
	if !ok {
		return "", "", fmt.Errorf("unknown day %q", day)
	}
	return m, d, nil
}

// parsePosition turns a 1-based dish number into an index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("dish number must be 1 or more, got %q", s)
	}
	return n - 1, nil
}

func runShow(env *bootstrap.Env) error {
	fmt.Println(export.RenderTerminal(env.App.Plan()))
	return nil
}

func runSummary(env *bootstrap.Env) error {
	text, ok := env.App.Summary()
	if !ok {
		return app.ErrNothingPlanned
	}
	fmt.Println(text)
	return nil
}

func runSuggest(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	meal, err := parseMeal(args[0])
	if err != nil {
		return err
	}
	n, err := env.App.AutoSuggest(ctx, meal)
	if err != nil {
		return err
	}
	fmt.Printf("Placed %d %s dishes.\n", n, meal)
	return nil
}

func runAdd(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	meal, day, err := parseSlot(args[0], args[1])
	if err != nil {
		return err
	}
	item, err := env.App.AddDish(ctx, day, meal, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("Added %s %s to %s %s.\n", item.Emoji, item.Name, day, meal)
	return nil
}

func runRemove(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	meal, day, err := parseSlot(args[0], args[1])
	if err != nil {
		return err
	}
	i, err := parsePosition(args[2])
	if err != nil {
		return err
	}
	return env.App.RemoveItem(ctx, day, meal, i)
}

func runMove(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) != 4 {
		return errUsage
	}
	meal, day, err := parseSlot(args[0], args[1])
	if err != nil {
		return err
	}
	from, err := parsePosition(args[2])
	if err != nil {
		return err
	}
	to, err := parsePosition(args[3])
	if err != nil {
		return err
	}
	return env.App.ReorderItem(ctx, day, meal, from, to)
}

func runLock(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	meal, day, err := parseSlot(args[0], args[1])
	if err != nil {
		return err
	}
	i, err := parsePosition(args[2])
	if err != nil {
		return err
	}
	locked, err := env.App.ToggleLock(ctx, day, meal, i)
	if err != nil {
		return err
	}
	if locked {
		fmt.Println("Locked.")
	} else {
		fmt.Println("Unlocked.")
	}
	return nil
}

func runClear(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	meal, err := parseMeal(args[0])
	if err != nil {
		return err
	}
	n, err := env.App.ClearAll(ctx, meal)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d %s dishes.\n", n, meal)
	return nil
}

func runClearDay(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	meal, day, err := parseSlot(args[0], args[1])
	if err != nil {
		return err
	}
	n, err := env.App.ClearDay(ctx, day, meal)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d dishes.\n", n)
	return nil
}

func runExport(env *bootstrap.Env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "weekly-menus.xlsx", "Output file")
	fs.Parse(args)

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := env.App.ExportXLSX(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *out)
	return nil
}

func runShare(ctx context.Context, env *bootstrap.Env, args []string) error {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	toStdout := fs.Bool("stdout", false, "Print the summary")
	toFile := fs.String("file", "", "Write the summary to a file")
	toTelegram := fs.Bool("telegram", false, "Send to TELEGRAM_CHAT_ID")
	toGhost := fs.Bool("ghost", false, "Save as a Ghost draft")
	fs.Parse(args)

	var targets []share.Target
	if *toStdout {
		targets = append(targets, share.NewWriterTarget("stdout", os.Stdout))
	}
	if *toFile != "" {
		targets = append(targets, share.NewFileTarget(*toFile))
	}
	if *toTelegram {
		api, err := telegram.Connect(env.Config, env.Logger)
		if err != nil {
			return err
		}
		targets = append(targets, telegram.NewNotifier(api, env.Config.TelegramChatID))
	}
	if *toGhost {
		if env.Config.GhostURL == "" || env.Config.GhostAdminKey == "" {
			return fmt.Errorf("%w: GHOST_API_URL and GHOST_ADMIN_API_KEY are required", app.ErrUnavailable)
		}
		targets = append(targets, ghost.NewDraftTarget(ghost.NewClient(env.Config)))
	}
	if len(targets) == 0 {
		targets = append(targets, share.NewWriterTarget("stdout", os.Stdout))
	}

	results, err := env.App.Share(ctx, targets...)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Target, r.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(results))
	}
	return nil
}

func runLog(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "save":
		fs := flag.NewFlagSet("log save", flag.ExitOnError)
		start := fs.String("start", "", "Start date label, defaults to next Monday")
		end := fs.String("end", "", "End date label, defaults to the Sunday after")
		fs.Parse(args[1:])
		entry, err := env.App.SaveWeekLog(ctx, *start, *end)
		if err != nil {
			return err
		}
		fmt.Printf("Saved week %s to %s.\n", entry.StartDate, entry.EndDate)
	case "list":
		logs, err := env.App.Logs(ctx)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Println("No saved weeks.")
		}
		for i, e := range logs {
			fmt.Printf("%d. %s to %s (%d lunches, %d dinners)\n", i+1, e.StartDate, e.EndDate, e.Plan.Lunch.Count(), e.Plan.Dinner.Count())
		}
	case "load", "delete":
		if len(args) != 2 {
			return errUsage
		}
		i, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		if args[0] == "delete" {
			return env.App.DeleteLog(ctx, i)
		}
		entry, err := env.App.LoadLog(ctx, i)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded week %s to %s.\n", entry.StartDate, entry.EndDate)
	default:
		return errUsage
	}
	return nil
}

func runTemplate(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "save":
		fs := flag.NewFlagSet("template save", flag.ExitOnError)
		name := fs.String("name", "", "Template name")
		fs.Parse(args[1:])
		if fs.NArg() != 1 {
			return errUsage
		}
		meal, err := parseMeal(fs.Arg(0))
		if err != nil {
			return err
		}
		tmpl, err := env.App.SaveTemplateFromPlan(ctx, *name, meal)
		if err != nil {
			return err
		}
		fmt.Printf("Saved template %q with %d dishes.\n", tmpl.Name, tmpl.Data.Count())
	case "apply":
		if len(args) != 2 {
			return errUsage
		}
		meal, err := parseMeal(args[1])
		if err != nil {
			return err
		}
		res, err := env.App.ApplyTemplate(ctx, meal)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d dishes from %q, %d skipped.\n", res.Loaded, res.Name, res.Skipped)
	case "show":
		tmpl, err := env.App.Template(ctx)
		if err != nil {
			return err
		}
		if tmpl == nil {
			return app.ErrNoTemplate
		}
		fmt.Println(tmpl.Name)
		for _, day := range shared.Days {
			var names []string
			for _, item := range tmpl.Data[day] {
				names = append(names, item.Name)
			}
			if len(names) > 0 {
				fmt.Printf("  %s: %s\n", day.Short(), strings.Join(names, ", "))
			}
		}
	case "delete":
		return env.App.DeleteTemplate(ctx)
	default:
		return errUsage
	}
	return nil
}

func runDish(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	switch args[0] {
	case "list":
		meal, err := parseMeal(args[1])
		if err != nil {
			return err
		}
		for _, item := range env.App.Dishes(meal) {
			custom := ""
			if item.IsCustom {
				custom = " (custom)"
			}
			fmt.Printf("%s %s [%s]%s\n", item.Emoji, item.Name, item.Category, custom)
		}
	case "add":
		fs := flag.NewFlagSet("dish add", flag.ExitOnError)
		emoji := fs.String("emoji", "", "Emoji shown with the dish")
		category := fs.String("category", "other", "Dish category")
		fs.Parse(args[1:])
		if fs.NArg() < 2 {
			return errUsage
		}
		meal, err := parseMeal(fs.Arg(0))
		if err != nil {
			return err
		}
		name := strings.Join(fs.Args()[1:], " ")
		return env.App.AddCustomDish(ctx, name, *emoji, meal, shared.ParseCategory(*category))
	case "remove":
		if len(args) < 3 {
			return errUsage
		}
		meal, err := parseMeal(args[1])
		if err != nil {
			return err
		}
		return env.App.RemoveCustomDish(ctx, meal, strings.Join(args[2:], " "))
	default:
		return errUsage
	}
	return nil
}

func runRecipe(ctx context.Context, env *bootstrap.Env, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		dishes, err := env.App.RecipeDishes(ctx)
		if err != nil {
			return err
		}
		for _, d := range dishes {
			fmt.Println(d)
		}
	case "get":
		if len(args) < 2 {
			return errUsage
		}
		text, err := env.App.Recipe(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println(text)
	case "set":
		// recipe set <dish> reads the recipe text from stdin.
		if len(args) < 2 {
			return errUsage
		}
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read recipe: %w", err)
		}
		return env.App.SetRecipe(ctx, strings.Join(args[1:], " "), string(text))
	case "delete":
		if len(args) < 2 {
			return errUsage
		}
		return env.App.DeleteRecipe(ctx, strings.Join(args[1:], " "))
	case "draft":
		fs := flag.NewFlagSet("recipe draft", flag.ExitOnError)
		mealName := fs.String("meal", "dinner", "Meal type the dish belongs to")
		fs.Parse(args[1:])
		if fs.NArg() == 0 {
			return errUsage
		}
		meal, err := parseMeal(*mealName)
		if err != nil {
			return err
		}
		text, err := env.App.DraftRecipe(ctx, meal, strings.Join(fs.Args(), " "))
		if err != nil {
			return err
		}
		fmt.Println(text)
	case "clip":
		// recipe clip <url> <dish>
		if len(args) < 3 {
			return errUsage
		}
		text, err := env.App.ClipRecipe(ctx, strings.Join(args[2:], " "), args[1])
		if err != nil {
			return err
		}
		fmt.Println(text)
	default:
		return errUsage
	}
	return nil
}

func runVersion(ctx context.Context, env *bootstrap.Env, args []string) error {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	ack := fs.Bool("ack", false, "Mark the current version as seen")
	fs.Parse(args)

	if *ack {
		return env.App.AcknowledgeVersion(ctx)
	}
	due, err := env.App.VersionNotice(ctx)
	if err != nil {
		return err
	}
	fmt.Println(version.Current)
	if due {
		fmt.Println("What's new: this version has not been acknowledged yet (version -ack).")
	}
	return nil
}

func runBump(args []string) error {
	fs := flag.NewFlagSet("bump", flag.ExitOnError)
	path := fs.String("file", "internal/version/VERSION", "Version file")
	fs.Parse(args)

	old, next, err := version.BumpFile(*path)
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n", old, next)
	return nil
}

func runStatus(ctx context.Context, env *bootstrap.Env, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	days := fs.Int("days", 7, "Usage window in days")
	cleanup := fs.Int("cleanup", 0, "Remove metric records older than N days")
	fs.Parse(args)

	health := metrics.GetSysHealth(env.Config.DataDir)
	fmt.Printf("Version: %s\n", version.Current)
	fmt.Printf("RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Printf("Goroutines: %d\n", health.Goroutines)
	fmt.Printf("Disk Data: %s\n", health.DataDiskSize)

	if env.Metrics == nil {
		fmt.Println("LLM usage is only recorded with the sqlite store.")
		return nil
	}
	if *cleanup > 0 {
		n, err := env.Metrics.Cleanup(ctx, *cleanup)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d old metric records.\n", n)
	}
	usage, err := env.Metrics.GetDailyUsage(ctx, *days)
	if err != nil {
		return err
	}
	fmt.Println("\nRecent LLM activity:")
	if len(usage) == 0 {
		fmt.Println("  no data yet")
	}
	for _, d := range usage {
		fmt.Printf("  %s: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}
	return nil
}
