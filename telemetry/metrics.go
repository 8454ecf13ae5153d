// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	LinesRecorded       prometheus.Counter
	TweetsDiscovered    prometheus.Counter
	OccurrencesRecorded prometheus.Counter
	RetweetsSucceeded   prometheus.Counter
	RetweetsFailed      prometheus.Counter
	PublishTicks        prometheus.Counter

	// Histograms (seconds)
	PublishTickDuration prometheus.Observer

	// Gauges
	PendingTweetsGauge prometheus.Gauge
)

// Init registers metrics. It is idempotent, and it must run before any metric
// here is touched: the variables are nil until then, with no nil guards on the
// use sites. Both binaries call it at startup, and tests call it first.
func Init() {
	once.Do(func() {
		LinesRecorded = promauto.NewCounter(prometheus.CounterOpts{Name: "irctweets_lines_recorded_total", Help: "Number of chat lines recorded"})
		TweetsDiscovered = promauto.NewCounter(prometheus.CounterOpts{Name: "irctweets_tweets_discovered_total", Help: "Number of tweet links discovered in chat (not deduplicated)"})
		OccurrencesRecorded = promauto.NewCounter(prometheus.CounterOpts{Name: "irctweets_occurrences_recorded_total", Help: "Number of line/tweet occurrence inserts attempted"})
		RetweetsSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "irctweets_retweets_succeeded_total", Help: "Number of retweets that succeeded"})
		RetweetsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "irctweets_retweets_failed_total", Help: "Number of retweets that failed"})
		PublishTicks = promauto.NewCounter(prometheus.CounterOpts{Name: "irctweets_publish_ticks_total", Help: "Number of publisher polling cycles"})
		PublishTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "irctweets_publish_tick_duration_seconds", Help: "Publisher tick duration seconds", Buckets: prometheus.DefBuckets})
		PendingTweetsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "irctweets_tweets_pending", Help: "Current number of tweets awaiting a retweet outcome"})
	})
}

// SetPendingTweets records the current pending tweet count.
func SetPendingTweets(n int) {
	PendingTweetsGauge.Set(float64(n))
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
