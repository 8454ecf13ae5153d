package chat

import (
	"fmt"
	"strings"
)

// ParseCommand decides whether a channel message addresses the bot directly
// ("botnick: body" or "botnick, body", case-insensitive) and extracts the
// command body. Addressed messages are dispatched instead of recorded.
// Whispers address the bot by definition and are handled by the caller.
func ParseCommand(botNick, text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	nick := strings.ToLower(botNick)
	for _, sep := range []string{":", ","} {
		if strings.HasPrefix(lower, nick+sep) {
			return strings.TrimSpace(trimmed[len(nick)+len(sep):]), true
		}
	}
	return "", false
}

// HelpReply is the fixed reply for any message addressed to the bot.
func HelpReply(botNick string) string {
	return fmt.Sprintf("I'm %s: I watch chat for tweet links and retweet them. Nothing to configure here.", botNick)
}
