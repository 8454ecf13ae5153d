package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/onnwee/irctweets/db"
	"github.com/onnwee/irctweets/links"
	"github.com/onnwee/irctweets/telemetry"
)

// Message is one inbound chat event eligible for recording: a plain channel
// message with the sender prefix, destination, and raw text.
type Message struct {
	Prefix string
	Target string
	Text   string
}

// Recorder turns chat events into line/tweet/occurrence rows.
type Recorder struct {
	DB *sql.DB
}

// Record scans the event text for tweet links and persists them. Every event
// touches the job heartbeat so readiness reflects chat liveness; messages with
// no recognized link write nothing else. The line row is
// created lazily on the first recognized link, at most once per event. Each
// tweet id is deduplicated against durable state, and the (tweet, line) pair
// is inserted ignore-on-conflict so replaying the same event is safe.
//
// A storage error aborts the remaining links of this event and is returned;
// rows already committed for earlier links stay, and the uniqueness
// constraints make a retry of the whole event harmless.
func (r *Recorder) Record(ctx context.Context, ev Message) error {
	db.TouchHeartbeat(ctx, r.DB, "job_collect_last_line")

	ids := links.ExtractTweetIDs(ev.Text)
	if len(ids) == 0 {
		return nil
	}

	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "chat"))

	var lineRef int64
	haveLine := false
	for _, tweetID := range ids {
		if !haveLine {
			id, err := db.GetOrCreateLine(ctx, r.DB, ev.Prefix, ev.Target, ev.Text)
			if err != nil {
				return fmt.Errorf("record line: %w", err)
			}
			lineRef = id
			haveLine = true
			telemetry.LinesRecorded.Inc()
		}

		tweetRef, err := db.GetOrCreateTweet(ctx, r.DB, tweetID)
		if err != nil {
			return fmt.Errorf("record tweet %d: %w", tweetID, err)
		}
		if err := db.InsertOccurrence(ctx, r.DB, tweetRef, lineRef); err != nil {
			return fmt.Errorf("record occurrence for tweet %d: %w", tweetID, err)
		}
		telemetry.TweetsDiscovered.Inc()
		telemetry.OccurrencesRecorded.Inc()
		logger.Info("recorded tweet link", slog.Uint64("tweet_id", tweetID), slog.Int64("line", lineRef))
	}

	return nil
}
