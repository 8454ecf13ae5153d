// Package publisher polls the store for tweets with no recorded outcome and
// retweets them, recording the retweet id or the error text per tweet.
package publisher

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/irctweets/db"
	"github.com/onnwee/irctweets/telemetry"
)

// Retweeter abstracts the external publish call (for tests/mocks).
type Retweeter interface {
	Retweet(ctx context.Context, tweetID uint64) (uint64, error)
}

// RetweeterFunc adapts a function to the Retweeter interface.
type RetweeterFunc func(ctx context.Context, tweetID uint64) (uint64, error)

func (f RetweeterFunc) Retweet(ctx context.Context, tweetID uint64) (uint64, error) {
	return f(ctx, tweetID)
}

// StartRetweetJob runs Tick at a fixed interval until ctx is cancelled.
// Tick errors are logged and the loop keeps going; the interval is honored
// regardless of whether a cycle succeeded, failed, or found nothing to do.
func StartRetweetJob(ctx context.Context, dbc *sql.DB, rt Retweeter, interval time.Duration, batchSize int) {
	slog.Info("retweet job starting", slog.Duration("interval", interval), slog.Int("batch_size", batchSize))
	// Kick an immediate run so we don't wait a full interval after boot.
	if err := Tick(ctx, dbc, rt, batchSize); err != nil {
		slog.Warn("retweet tick", slog.Any("err", err), slog.String("component", "publisher"))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("retweet job stopped")
			return
		case <-ticker.C:
			if err := Tick(ctx, dbc, rt, batchSize); err != nil {
				slog.Warn("retweet tick", slog.Any("err", err), slog.String("component", "publisher"))
			}
		}
	}
}

// Tick selects one batch of pending tweets and retweets them sequentially.
// A failed retweet is recorded on that tweet and does not block the rest of
// the batch. A failure to query the store ends the tick early; the next cycle
// retries. An empty batch is a successful no-op.
func Tick(ctx context.Context, dbc *sql.DB, rt Retweeter, batchSize int) error {
	corr := uuid.New().String()
	ctx = telemetry.WithCorrelation(ctx, corr)
	ctx, span := telemetry.StartSpan(ctx, "publisher", "retweet.tick")
	defer span.End()

	start := time.Now()
	telemetry.PublishTicks.Inc()
	db.TouchHeartbeat(ctx, dbc, "job_publish_last_tick")

	ids, err := db.SelectPendingTweets(ctx, dbc, batchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	pending := len(ids)
	telemetry.SetPendingTweets(pending)
	if pending == 0 {
		telemetry.PublishTickDuration.Observe(time.Since(start).Seconds())
		return nil
	}

	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "publisher"))
	logger.Info("processing pending tweets", slog.Int("count", pending))

	for _, tweetID := range ids {
		retweetID, err := rt.Retweet(ctx, tweetID)
		if err != nil {
			logger.Error("couldn't retweet", slog.Uint64("tweet_id", tweetID), slog.Any("err", err))
			telemetry.RetweetsFailed.Inc()
			wrote, werr := db.MarkRetweetFailed(ctx, dbc, tweetID, err.Error())
			if werr != nil {
				// Isolated to this tweet; it stays pending and is retried next cycle.
				logger.Error("couldn't record retweet error", slog.Uint64("tweet_id", tweetID), slog.Any("err", werr))
				continue
			}
			if !wrote {
				// Another writer resolved it first; either way it left the pending set.
				logger.Warn("tweet no longer pending, error not recorded", slog.Uint64("tweet_id", tweetID))
			}
			pending--
			continue
		}

		logger.Info("retweeted", slog.Uint64("tweet_id", tweetID), slog.Uint64("retweet_id", retweetID))
		telemetry.RetweetsSucceeded.Inc()
		wrote, werr := db.MarkRetweeted(ctx, dbc, tweetID, retweetID)
		if werr != nil {
			logger.Error("couldn't record retweet id", slog.Uint64("tweet_id", tweetID), slog.Any("err", werr))
			continue
		}
		if !wrote {
			logger.Warn("tweet no longer pending, retweet id not recorded", slog.Uint64("tweet_id", tweetID))
		}
		pending--
	}

	telemetry.SetPendingTweets(pending)
	telemetry.PublishTickDuration.Observe(time.Since(start).Seconds())
	telemetry.SetSpanSuccess(span)
	return nil
}
