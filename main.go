package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoreport-bot/internal/auth"
	"photoreport-bot/internal/buffer"
	"photoreport-bot/internal/config"
	"photoreport-bot/internal/handlers"
	"photoreport-bot/internal/jobs"
	"photoreport-bot/internal/locales"
	"photoreport-bot/internal/report"
	"photoreport-bot/internal/storage"
	"photoreport-bot/internal/window"

	appBot "photoreport-bot/bot"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize localization bundle
	locales.Init()

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Open the flat-file stores
	registry, err := storage.NewRegistry(cfg.RegistryFile)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to open group registry: %v", err)
	}
	archive, err := storage.NewArchive(cfg.ArchiveFile)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to open report archive: %v", err)
	}

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Bot Initialization ---
	// 1. Create the raw telego bot instance first
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	// 2. Create the admin checker from the configured allow-list
	adminChecker, err := auth.NewAdminChecker(cfg.AdminIDs)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create admin checker: %v", err)
	}

	// 3. Assemble the report pipeline: buffer, window policy, aggregator
	buf := buffer.New()
	policy := window.New(cfg.ReportWeekday, cfg.Location())
	aggregator, err := report.NewAggregator(report.AggregatorDeps{
		Buffer:  buf,
		Policy:  policy,
		Archive: archive,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create report aggregator: %v", err)
	}
	defer aggregator.Shutdown()

	// 4. Create message handler with dependencies
	messageHandler, err := handlers.NewMessageHandler(handlers.HandlerDeps{
		TriggerWord:  cfg.TriggerWord,
		AdminChecker: adminChecker,
		Registry:     registry,
		Archive:      archive,
		Buffer:       buf,
		Aggregator:   aggregator,
		Policy:       policy,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create message handler: %v", err)
	}

	if err := messageHandler.SetupCommands(ctx, bot); err != nil {
		log.Printf("Failed to set bot commands: %v", err)
		sentry.CaptureException(err)
	}

	// 5. Start long polling and the bot wrapper
	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to start long polling: %v", err)
	}

	wrapper, err := appBot.New(appBot.BotDeps{
		Bot:         bot,
		UpdatesChan: updates,
		Debug:       cfg.Debug,
		Handler:     messageHandler,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// 6. Register and start the background jobs
	scheduler := jobs.NewScheduler()
	scheduler.Register(jobs.NewBufferSweep(buf))
	scheduler.Register(jobs.NewAdminDigest(bot, adminChecker, registry, archive, cfg.Location()))
	scheduler.Register(jobs.NewArchivePurge(archive, cfg.Location()))
	scheduler.Register(jobs.NewEmptyReportBackfill(registry, archive, policy, cfg.ReportWeekday, nil))
	scheduler.Start(ctx)

	// Start the bot wrapper's processing loop in a separate goroutine
	go wrapper.Start(ctx)

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()

	log.Println("Shutting down bot...")
	log.Println("Bot shutdown complete.")
}
