// Command publish is the retweet process. It polls the shared database for
// tweets with no recorded outcome and retweets each through the Twitter API,
// recording the retweet id or the error per tweet. It runs independently of
// the collector; the database is the only coordination point.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/irctweets/config"
	"github.com/onnwee/irctweets/db"
	"github.com/onnwee/irctweets/publisher"
	"github.com/onnwee/irctweets/server"
	"github.com/onnwee/irctweets/telemetry"
	"github.com/onnwee/irctweets/twitterapi"
)

func main() {
	_ = godotenv.Load(".env")

	telemetry.InitLogging()
	telemetry.Init()

	shutdown, err := telemetry.InitTracing("irctweets-publish", "1.0.0")
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
	if err := cfg.ValidateTwitterReady(); err != nil {
		slog.Error("twitter config incomplete", slog.Any("err", err))
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

	if err := db.Migrate(context.Background(), database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(ctx, database, cfg.HTTPAddr, "job_publish_last_tick", cfg.HeartbeatStaleAfter); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	client := twitterapi.New(cfg)
	publisher.StartRetweetJob(ctx, database, client, cfg.PublishInterval, cfg.PublishBatchSize)
	slog.Info("shutting down")
}
