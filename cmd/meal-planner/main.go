package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"weekly-meal-planner/internal/bootstrap"
	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:        logger.ParseLevel(cfg.LogLevel),
		Format:       cfg.LogFormat,
		Output:       "stderr",
		EnableCaller: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]

	// These don't touch the store.
	switch cmd {
	case "help", "-h", "--help":
		printUsage()
		return
	case "bump":
		if err := runBump(args); err != nil {
			log.Fatal("Bump failed", "error", err)
		}
		return
	}

	env, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to start", "error", err)
	}
	if env.Generated {
		log.Info("Generated a starter week")
	}

	err = run(ctx, env, cmd, args)
	if cerr := env.Close(); cerr != nil {
		log.Warn("Failed to close resources", "error", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, env *bootstrap.Env, cmd string, args []string) error {
	switch cmd {
	case "show":
		return runShow(env)
	case "summary":
		return runSummary(env)
	case "suggest":
		return runSuggest(ctx, env, args)
	case "add":
		return runAdd(ctx, env, args)
	case "remove":
		return runRemove(ctx, env, args)
	case "move":
		return runMove(ctx, env, args)
	case "lock":
		return runLock(ctx, env, args)
	case "clear":
		return runClear(ctx, env, args)
	case "clear-day":
		return runClearDay(ctx, env, args)
	case "export":
		return runExport(env, args)
	case "share":
		return runShare(ctx, env, args)
	case "log":
		return runLog(ctx, env, args)
	case "template":
		return runTemplate(ctx, env, args)
	case "dish":
		return runDish(ctx, env, args)
	case "recipe":
		return runRecipe(ctx, env, args)
	case "version":
		return runVersion(ctx, env, args)
	case "status":
		return runStatus(ctx, env, args)
	case "serve":
		return runServe(ctx, env, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command")
	}
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nPlan:")
	fmt.Println("  show                            Print the week as a grid")
	fmt.Println("  summary                         Print the shareable week summary")
	fmt.Println("  suggest <meal>                  Regenerate a meal type for the whole week")
	fmt.Println("  add <meal> <day> <dish>         Place a dish on a day")
	fmt.Println("  remove <meal> <day> <n>         Remove the n-th dish of a day")
	fmt.Println("  move <meal> <day> <from> <to>   Reorder dishes within a day")
	fmt.Println("  lock <meal> <day> <n>           Toggle the lock of a dish")
	fmt.Println("  clear <meal>                    Clear a meal type for the week")
	fmt.Println("  clear-day <meal> <day>          Clear unlocked dishes of a day")
	fmt.Println("\nOutput:")
	fmt.Println("  export [-o file.xlsx]           Write the week as a spreadsheet")
	fmt.Println("  share [-stdout] [-file path] [-telegram] [-ghost]")
	fmt.Println("\nRecords:")
	fmt.Println("  log save|list|load|delete       Weekly log")
	fmt.Println("  template save|apply|show|delete Saved template")
	fmt.Println("  dish list|add|remove            Custom dishes")
	fmt.Println("  recipe list|get|set|delete|draft|clip")
	fmt.Println("\nOther:")
	fmt.Println("  version [-ack]                  Show the version and what's-new status")
	fmt.Println("  bump [-file path]               Increment the patch version")
	fmt.Println("  status [-days n] [-cleanup n]   LLM usage and system health")
	fmt.Println("  serve [-addr :8080]             Run the HTTP API and Telegram webhook")
	fmt.Println("\nMeals: lunch, dinner. Days: monday..sunday. Dish numbers start at 1.")
}
