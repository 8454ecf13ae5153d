package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/onnwee/irctweets/db"
	"github.com/onnwee/irctweets/testutil"
)

func TestMigrateIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	// SetupTestDB already migrated once; running again must succeed.
	if err := db.Migrate(context.Background(), database); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if err := db.Migrate(context.Background(), database); err != nil {
		t.Fatalf("third Migrate() error = %v", err)
	}
}

func TestGetOrCreateLineReusesRow(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	first, err := db.GetOrCreateLine(ctx, database, "alice", "#chan", "hello")
	if err != nil {
		t.Fatalf("GetOrCreateLine() error = %v", err)
	}
	second, err := db.GetOrCreateLine(ctx, database, "alice", "#chan", "hello")
	if err != nil {
		t.Fatalf("GetOrCreateLine() replay error = %v", err)
	}
	if first != second {
		t.Errorf("replayed line got id %d, want %d", second, first)
	}

	other, err := db.GetOrCreateLine(ctx, database, "bob", "#chan", "hello")
	if err != nil {
		t.Fatalf("GetOrCreateLine() error = %v", err)
	}
	if other == first {
		t.Error("distinct sender should get a distinct line row")
	}
}

func TestGetOrCreateTweetDedup(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	a, err := db.GetOrCreateTweet(ctx, database, 12345)
	if err != nil {
		t.Fatalf("GetOrCreateTweet() error = %v", err)
	}
	b, err := db.GetOrCreateTweet(ctx, database, 12345)
	if err != nil {
		t.Fatalf("GetOrCreateTweet() error = %v", err)
	}
	if a != b {
		t.Errorf("same tweet id got rows %d and %d", a, b)
	}
}

func TestInsertOccurrenceIgnoresDuplicate(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	lineRef, err := db.GetOrCreateLine(ctx, database, "alice", "#chan", "x")
	if err != nil {
		t.Fatal(err)
	}
	tweetRef, err := db.GetOrCreateTweet(ctx, database, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.InsertOccurrence(ctx, database, tweetRef, lineRef); err != nil {
		t.Fatalf("InsertOccurrence() error = %v", err)
	}
	if err := db.InsertOccurrence(ctx, database, tweetRef, lineRef); err != nil {
		t.Fatalf("duplicate InsertOccurrence() error = %v", err)
	}
	var n int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(1) FROM occurrences`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("occurrences = %d, want 1", n)
	}
}

func TestMarkRetweetedWriteOnce(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOrCreateTweet(ctx, database, 100); err != nil {
		t.Fatal(err)
	}

	wrote, err := db.MarkRetweeted(ctx, database, 100, 9001)
	if err != nil {
		t.Fatalf("MarkRetweeted() error = %v", err)
	}
	if !wrote {
		t.Fatal("MarkRetweeted() = false on pending tweet, want true")
	}

	// A second resolution attempt must not fire.
	wrote, err = db.MarkRetweeted(ctx, database, 100, 9002)
	if err != nil {
		t.Fatalf("MarkRetweeted() error = %v", err)
	}
	if wrote {
		t.Error("MarkRetweeted() fired twice on the same tweet")
	}

	// Neither must an error land on a resolved tweet.
	wrote, err = db.MarkRetweetFailed(ctx, database, 100, "boom")
	if err != nil {
		t.Fatalf("MarkRetweetFailed() error = %v", err)
	}
	if wrote {
		t.Error("MarkRetweetFailed() fired on a resolved tweet")
	}

	var retweetID int64
	var errText sql.NullString
	if err := database.QueryRowContext(ctx,
		`SELECT retweet_id, error FROM tweets WHERE tweet_id=100`).Scan(&retweetID, &errText); err != nil {
		t.Fatal(err)
	}
	if retweetID != 9001 {
		t.Errorf("retweet_id = %d, want 9001 (first writer wins)", retweetID)
	}
	if errText.Valid {
		t.Errorf("error = %q, want NULL (never both set)", errText.String)
	}
}

func TestMarkRetweetFailedExcludesFromPending(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOrCreateTweet(ctx, database, 200); err != nil {
		t.Fatal(err)
	}
	wrote, err := db.MarkRetweetFailed(ctx, database, 200, "rate limited")
	if err != nil || !wrote {
		t.Fatalf("MarkRetweetFailed() = (%v, %v), want (true, nil)", wrote, err)
	}

	pending, err := db.SelectPendingTweets(ctx, database, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %v, want empty after error recorded", pending)
	}

	// Success must not overwrite a recorded error.
	wrote, err = db.MarkRetweeted(ctx, database, 200, 1)
	if err != nil {
		t.Fatal(err)
	}
	if wrote {
		t.Error("MarkRetweeted() fired on an errored tweet")
	}
}

func TestClearRetweetError(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOrCreateTweet(ctx, database, 300); err != nil {
		t.Fatal(err)
	}
	if _, err := db.MarkRetweetFailed(ctx, database, 300, "auth"); err != nil {
		t.Fatal(err)
	}

	cleared, err := db.ClearRetweetError(ctx, database, 300)
	if err != nil {
		t.Fatalf("ClearRetweetError() error = %v", err)
	}
	if !cleared {
		t.Fatal("ClearRetweetError() = false on errored tweet, want true")
	}

	pending, err := db.SelectPendingTweets(ctx, database, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0] != 300 {
		t.Errorf("pending = %v, want [300] after clearing", pending)
	}

	// Resolved tweets are untouchable.
	if _, err := db.GetOrCreateTweet(ctx, database, 301); err != nil {
		t.Fatal(err)
	}
	if _, err := db.MarkRetweeted(ctx, database, 301, 5); err != nil {
		t.Fatal(err)
	}
	cleared, err = db.ClearRetweetError(ctx, database, 301)
	if err != nil {
		t.Fatal(err)
	}
	if cleared {
		t.Error("ClearRetweetError() fired on a resolved tweet")
	}
}

func TestSelectPendingTweetsOrderAndLimit(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	for _, id := range []uint64{5, 3, 9} {
		if _, err := db.GetOrCreateTweet(ctx, database, id); err != nil {
			t.Fatal(err)
		}
	}

	pending, err := db.SelectPendingTweets(ctx, database, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0] != 5 || pending[1] != 3 {
		t.Errorf("pending = %v, want [5 3] (insertion order, limited)", pending)
	}

	n, err := db.CountPendingTweets(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountPendingTweets() = %d, want 3", n)
	}
}
