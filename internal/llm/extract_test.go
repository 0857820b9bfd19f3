package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"plain object", `{"language":"English","confidence":0.9}`, `{"language":"English","confidence":0.9}`},
		{"fenced with tag", "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy", `{"a":1}`},
		{"fenced without tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around object", "Sure! {\"summary\":\"s\",\"key_events\":[]} Hope it helps.", `{"summary":"s","key_events":[]}`},
		{"nested object is greedy", `Result: {"characters":[{"name":"Victor"}]} done`, `{"characters":[{"name":"Victor"}]}`},
		{"first fence wins", "```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```", `{"a":1}`},
		{"no json", "  I cannot help with that.  ", "I cannot help with that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ExtractJSON(tt.reply))
		})
	}
}
