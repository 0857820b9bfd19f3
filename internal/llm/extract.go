package llm

import (
	"regexp"
	"strings"
)

var (
	fencedJSON = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")
	bareJSON   = regexp.MustCompile(`(\{[\s\S]*\})`)
)

// ExtractJSON pulls the JSON object out of a chat reply that may wrap it in a
// markdown fence or surround it with prose. Replies without braces are
// returned trimmed and unchanged.
func ExtractJSON(reply string) string {
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	if m := bareJSON.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	return strings.TrimSpace(reply)
}
