// Package links extracts tweet ids from free-form chat text.
package links

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"mvdan.cc/xurls/v2"
)

// tweetHosts is the fixed allow-list of hosts recognized as tweet links.
var tweetHosts = map[string]bool{
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"m.twitter.com":      true,
	"x.com":              true,
	"www.x.com":          true,
}

// finder is a permissive URL token scanner; anything lexically shaped like a
// URL is a candidate and gets filtered by TweetID. xurls regexps are expensive
// to build, so compile once.
var finder = sync.OnceValue(xurls.Relaxed)

// ExtractTweetIDs scans text for tweet links and returns their numeric ids in
// order of first appearance. Ids are not deduplicated here; the store's
// uniqueness constraints take care of that. Malformed URLs and non-tweet links
// are skipped silently.
func ExtractTweetIDs(text string) []uint64 {
	var ids []uint64
	for _, candidate := range finder().FindAllString(text, -1) {
		if id, ok := TweetID(candidate); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// TweetID reports whether rawURL is a link to a single tweet and returns its
// numeric id. Only https links to an allow-listed host with a
// /<handle>/status/<digits> path qualify; the handle segment is not validated.
func TweetID(rawURL string) (uint64, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	if u.Scheme != "https" {
		return 0, false
	}
	// Hosts are case-insensitive; url.Parse preserves the case it was given.
	if !tweetHosts[strings.ToLower(u.Host)] {
		return 0, false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) != 3 || segs[0] == "" || segs[1] != "status" {
		return 0, false
	}
	id, err := strconv.ParseUint(segs[2], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
