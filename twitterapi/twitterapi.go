// Package twitterapi contains a minimal Twitter REST client for the single
// purpose of retweeting by tweet id, using OAuth1 user-context signing.
package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dghubble/oauth1"

	"github.com/onnwee/irctweets/config"
)

const defaultBaseURL = "https://api.twitter.com"

// Client signs requests with the configured consumer and access token pair.
type Client struct {
	// BaseURL overrides the Twitter API host (tests point it at a mock server).
	BaseURL    string
	HTTPClient *http.Client
}

// New builds a Client from the four OAuth1 credentials in cfg. Requests made
// through the returned client carry a signed Authorization header.
func New(cfg *config.Config) *Client {
	oc := oauth1.NewConfig(cfg.TwitterConsumerKey, cfg.TwitterConsumerSecret)
	token := oauth1.NewToken(cfg.TwitterAccessToken, cfg.TwitterAccessSecret)
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: oc.Client(context.Background(), token),
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return defaultBaseURL
}

// apiError is Twitter's error envelope.
type apiError struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Retweet retweets the given tweet and returns the id of the new retweet.
// Any API failure (rate limit, deleted tweet, auth) comes back as an error
// whose text the publisher records verbatim on the tweet row.
func (c *Client) Retweet(ctx context.Context, tweetID uint64) (uint64, error) {
	u := fmt.Sprintf("%s/1.1/statuses/retweet/%d.json", c.baseURL(), tweetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return 0, fmt.Errorf("retweet request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("retweet response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && len(apiErr.Errors) > 0 {
			e := apiErr.Errors[0]
			return 0, fmt.Errorf("twitter error %d: %s (http %d)", e.Code, e.Message, resp.StatusCode)
		}
		return 0, fmt.Errorf("twitter http %d", resp.StatusCode)
	}

	var rt struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(body, &rt); err != nil {
		return 0, fmt.Errorf("decode retweet response: %w", err)
	}
	if rt.ID == 0 {
		return 0, fmt.Errorf("retweet response missing id")
	}
	return rt.ID, nil
}
