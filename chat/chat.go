// Package chat connects to Twitch IRC, records tweet links mentioned in
// channel messages, and answers messages addressed to the bot.
package chat

import (
	"context"
	"database/sql"
	"log/slog"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/onnwee/irctweets/config"
	"github.com/onnwee/irctweets/telemetry"
)

// StartChatRecorder joins the configured channels and processes messages until
// ctx is cancelled or the connection dies. A connection error is returned and
// is fatal to the collector process; external supervision restarts it.
func StartChatRecorder(ctx context.Context, dbc *sql.DB, cfg *config.Config) error {
	client := twitch.NewClient(cfg.TwitchBotUsername, cfg.TwitchOAuthToken)
	rec := &Recorder{DB: dbc}
	botNick := cfg.TwitchBotUsername

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		corr := uuid.New().String()
		cctx := telemetry.WithCorrelation(ctx, corr)
		logger := telemetry.LoggerWithCorr(cctx).With(
			slog.String("channel", msg.Channel),
			slog.String("user", msg.User.Name),
			slog.String("component", "chat"),
		)

		// Addressed messages are commands, never recorded.
		if body, ok := ParseCommand(botNick, msg.Message); ok {
			logger.Info("command received", slog.String("body", body))
			client.Say(msg.Channel, HelpReply(botNick))
			return
		}

		ev := Message{Prefix: msg.User.Name, Target: "#" + msg.Channel, Text: msg.Message}
		if err := rec.Record(cctx, ev); err != nil {
			logger.Error("failed to record message", slog.Any("err", err), slog.String("msg", msg.Message))
		}
	})

	client.OnWhisperMessage(func(msg twitch.WhisperMessage) {
		// Whispers always address the bot; they only ever get the help reply
		// and are excluded from link recording.
		slog.Info("whisper received", slog.String("user", msg.User.Name), slog.String("component", "chat"))
		client.Whisper(msg.User.Name, HelpReply(botNick))
	})

	for _, ch := range cfg.TwitchChannels {
		client.Join(ch)
	}

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = client.Disconnect()
		close(done)
	}()

	err := client.Connect()
	if ctx.Err() != nil {
		// Shutdown-initiated disconnect, not a failure.
		<-done
		return nil
	}
	return err
}
