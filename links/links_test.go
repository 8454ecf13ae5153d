package links

import (
	"reflect"
	"testing"
)

func TestExtractTweetIDs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []uint64
	}{
		{"plain tweet link", "check this https://twitter.com/alice/status/12345 out", []uint64{12345}},
		{"insecure scheme rejected", "http://twitter.com/alice/status/12345", nil},
		{"schemeless rejected", "twitter.com/alice/status/12345", nil},
		{"www subdomain", "https://www.twitter.com/bob/status/99", []uint64{99}},
		{"mobile subdomain", "https://mobile.twitter.com/bob/status/7", []uint64{7}},
		{"m subdomain", "https://m.twitter.com/bob/status/8", []uint64{8}},
		{"x.com alias", "https://x.com/alice/status/42", []uint64{42}},
		{"mixed-case host", "https://Twitter.com/alice/status/12345", []uint64{12345}},
		{"uppercase host", "https://WWW.TWITTER.COM/bob/status/99", []uint64{99}},
		{"unknown host", "https://notwitter.com/alice/status/12345", nil},
		{"unknown subdomain", "https://evil.twitter.com/alice/status/12345", nil},
		{"non-numeric id", "https://twitter.com/alice/status/abc", nil},
		{"missing status segment", "https://twitter.com/alice/12345", nil},
		{"extra path segment", "https://twitter.com/alice/status/123/photo/1", nil},
		{"wrong middle segment", "https://twitter.com/alice/statuses/123", nil},
		{"no links at all", "just chatting, nothing to see", nil},
		{"other url only", "see https://example.com/foo", nil},
		{"query string ignored", "https://twitter.com/alice/status/555?s=20", []uint64{555}},
		{"multiple ids in order", "a https://twitter.com/a/status/2 b https://twitter.com/b/status/1", []uint64{2, 1}},
		{"duplicates kept", "https://twitter.com/a/status/5 https://twitter.com/b/status/5", []uint64{5, 5}},
		{"mixed valid and invalid", "http://twitter.com/a/status/1 https://twitter.com/a/status/2", []uint64{2}},
		{"id at uint64 max", "https://twitter.com/a/status/18446744073709551615", []uint64{18446744073709551615}},
		{"id overflowing uint64", "https://twitter.com/a/status/18446744073709551616", nil},
		{"empty text", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTweetIDs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTweetIDs(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTweetIDMalformedURL(t *testing.T) {
	if _, ok := TweetID("https://%zz"); ok {
		t.Error("TweetID accepted a malformed URL")
	}
	if _, ok := TweetID(""); ok {
		t.Error("TweetID accepted an empty string")
	}
}
