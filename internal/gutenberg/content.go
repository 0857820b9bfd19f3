package gutenberg

import (
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\ufeff"

// cleanContent converts a downloaded text file to valid UTF-8 and applies the
// size cap. It reports whether the text was truncated.
func cleanContent(body []byte, maxBytes, truncateChars int) (string, bool) {
	text := strings.ToValidUTF8(string(body), string(utf8.RuneError))
	text = strings.TrimPrefix(text, byteOrderMark)
	// Postgres text columns reject NUL.
	text = strings.ReplaceAll(text, "\x00", "")
	if len(body) <= maxBytes {
		return text, false
	}
	return truncateRunes(text, truncateChars), true
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
