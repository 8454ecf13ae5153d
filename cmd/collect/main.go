// Command collect is the chat-ingestion process. It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Joins the configured Twitch channels and records tweet links from chat.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics
//     and the admin retry endpoint.
//
// Shutdown is graceful on SIGINT/SIGTERM. A chat connection failure is fatal;
// process supervision is expected to restart the collector.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/irctweets/chat"
	"github.com/onnwee/irctweets/config"
	"github.com/onnwee/irctweets/db"
	"github.com/onnwee/irctweets/server"
	"github.com/onnwee/irctweets/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	telemetry.InitLogging()
	telemetry.Init()

	shutdown, err := telemetry.InitTracing("irctweets-collect", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Error("chat config incomplete", slog.Any("err", err))
		os.Exit(1)
	}

	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	// Schema creation is idempotent; the publisher runs the same migration
	// independently and either process may get there first.
	if err := db.Migrate(context.Background(), database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(ctx, database, cfg.HTTPAddr, "job_collect_last_line", cfg.HeartbeatStaleAfter); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	slog.Info("collector starting", slog.Any("channels", cfg.TwitchChannels), slog.String("bot", cfg.TwitchBotUsername))
	if err := chat.StartChatRecorder(ctx, database, cfg); err != nil {
		slog.Error("chat connection failed", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
