package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// MockTwitterServer mocks the Twitter v1.1 retweet endpoint. Register
// behavior per tweet id; unknown ids get a 404 with Twitter's error envelope.
type MockTwitterServer struct {
	*httptest.Server
	// RetweetIDs maps tweet id -> retweet id returned on success.
	RetweetIDs map[uint64]uint64
	// Failures maps tweet id -> (code, message) returned as an API error.
	Failures map[uint64]MockAPIError
	// Calls records every retweeted id in order.
	Calls []uint64
}

type MockAPIError struct {
	Status  int
	Code    int
	Message string
}

// NewMockTwitterServer creates a test server answering
// POST /1.1/statuses/retweet/{id}.json.
func NewMockTwitterServer(t *testing.T) *MockTwitterServer {
	t.Helper()
	m := &MockTwitterServer{
		RetweetIDs: make(map[uint64]uint64),
		Failures:   make(map[uint64]MockAPIError),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if r.Method != http.MethodPost || !strings.HasPrefix(path, "/1.1/statuses/retweet/") || !strings.HasSuffix(path, ".json") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		idStr := strings.TrimSuffix(strings.TrimPrefix(path, "/1.1/statuses/retweet/"), ".json")
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		m.Calls = append(m.Calls, id)
		w.Header().Set("Content-Type", "application/json")
		if fail, ok := m.Failures[id]; ok {
			w.WriteHeader(fail.Status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"errors": []map[string]any{{"code": fail.Code, "message": fail.Message}},
			})
			return
		}
		rtID, ok := m.RetweetIDs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"errors": []map[string]any{{"code": 144, "message": "No status found with that ID."}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": rtID, "id_str": strconv.FormatUint(rtID, 10)})
	}))
	t.Cleanup(m.Close)
	return m
}
