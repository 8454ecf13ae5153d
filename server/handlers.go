package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/irctweets/db"
)

// Handlers bundles the shared dependencies for HTTP handlers. heartbeatKey
// names the kv heartbeat of the job this process runs; readiness checks its
// freshness against staleAfter. An empty key or non-positive staleAfter skips
// the check.
type Handlers struct {
	db           *sql.DB
	heartbeatKey string
	staleAfter   time.Duration
}

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests. Ready means the database
// answers, the schema is present, and this process's job heartbeat is fresh.
// A heartbeat that was never written does not block readiness; the job may
// simply not have produced anything yet.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error { return h.db.PingContext(r.Context()) }},
		{"schema", func() error {
			var n int
			return h.db.QueryRowContext(r.Context(), `SELECT COUNT(1) FROM tweets WHERE FALSE`).Scan(&n)
		}},
		{"heartbeat", func() error {
			if h.heartbeatKey == "" || h.staleAfter <= 0 {
				return nil
			}
			age, ok, err := db.HeartbeatAge(r.Context(), h.db, h.heartbeatKey)
			if err != nil {
				return err
			}
			if ok && age > h.staleAfter {
				return fmt.Errorf("heartbeat %s last touched %s ago", h.heartbeatKey, age.Truncate(time.Second))
			}
			return nil
		}},
	}
	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not_ready",
				"check":  check.name,
				"error":  err.Error(),
			})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// statusResponse is the /status payload.
type statusResponse struct {
	Lines       int64  `json:"lines"`
	Tweets      int64  `json:"tweets"`
	Occurrences int64  `json:"occurrences"`
	Pending     int64  `json:"pending"`
	Retweeted   int64  `json:"retweeted"`
	Errored     int64  `json:"errored"`
	LastLine    string `json:"last_line,omitempty"`
	LastTick    string `json:"last_tick,omitempty"`
	Time        string `json:"time"`
}

// HandleStatus reports table counts and job heartbeats.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := statusResponse{Time: time.Now().UTC().Format(time.RFC3339)}

	counts := []struct {
		q    string
		dest *int64
	}{
		{`SELECT COUNT(1) FROM lines`, &resp.Lines},
		{`SELECT COUNT(1) FROM tweets`, &resp.Tweets},
		{`SELECT COUNT(1) FROM occurrences`, &resp.Occurrences},
		{`SELECT COUNT(1) FROM tweets WHERE retweet_id IS NULL AND error IS NULL`, &resp.Pending},
		{`SELECT COUNT(1) FROM tweets WHERE retweet_id IS NOT NULL`, &resp.Retweeted},
		{`SELECT COUNT(1) FROM tweets WHERE error IS NOT NULL`, &resp.Errored},
	}
	for _, c := range counts {
		if err := h.db.QueryRowContext(ctx, c.q).Scan(c.dest); err != nil {
			http.Error(w, "status query failed", http.StatusInternalServerError)
			return
		}
	}
	resp.LastLine, _ = db.GetKV(ctx, h.db, "job_collect_last_line")
	resp.LastTick, _ = db.GetKV(ctx, h.db, "job_publish_last_tick")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleTweetRetry clears a recorded error so the publisher picks the tweet up
// again. Route shape: POST /admin/tweets/{tweet_id}/retry. Tweets that already
// have a retweet recorded are never made pending again.
func (h *Handlers) HandleTweetRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest, ok := strings.CutPrefix(r.URL.Path, "/admin/tweets/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	idStr, ok := strings.CutSuffix(rest, "/retry")
	if !ok || strings.Contains(idStr, "/") {
		http.NotFound(w, r)
		return
	}
	tweetID, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid tweet id", http.StatusBadRequest)
		return
	}

	cleared, err := db.ClearRetweetError(r.Context(), h.db, tweetID)
	if err != nil {
		http.Error(w, "retry failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !cleared {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"tweet_id": tweetID, "cleared": false})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"tweet_id": tweetID, "cleared": true})
}
