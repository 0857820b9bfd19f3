package library

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCatalogID(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"1", "84", "1342", "9999999999"} {
		require.NoError(t, ValidateCatalogID(ok), ok)
	}
	for _, bad := range []string{"", "abc", "12a", "-1", "1 2", "../84", "12345678901"} {
		require.ErrorIs(t, ValidateCatalogID(bad), ErrInvalidCatalogID, bad)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind(" Characters ")
	require.NoError(t, err)
	require.Equal(t, KindCharacters, k)

	_, err = ParseKind("sentiment")
	require.ErrorIs(t, err, ErrInvalidKind)
	require.Len(t, Kinds(), 3)
}

func TestBookJSONOmitsEmptyContent(t *testing.T) {
	t.Parallel()

	b := Book{ID: 1, CatalogID: "84", Title: "Frankenstein", Content: "text"}
	full, err := json.Marshal(b)
	require.NoError(t, err)
	require.Contains(t, string(full), `"content":"text"`)

	summary, err := json.Marshal(b.Summary())
	require.NoError(t, err)
	require.NotContains(t, string(summary), "content")
	require.Contains(t, string(summary), `"book_id":"84"`)
}

func TestNormalizeResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    Kind
		raw     string
		want    string
		wantErr bool
	}{
		{"characters", KindCharacters,
			`{"characters":[{"name":"Alice","description":"curious girl","importance":"protagonist"}]}`,
			`{"characters":[{"name":"Alice","description":"curious girl","importance":"protagonist"}]}`, false},
		{"characters empty list", KindCharacters, `{"characters":[]}`, `{"characters":[]}`, false},
		{"characters missing", KindCharacters, `{"people":[]}`, "", true},
		{"character without name", KindCharacters, `{"characters":[{"description":"?"}]}`, "", true},
		{"language", KindLanguage, `{"language":"Portuguese","confidence":0.8}`, `{"language":"Portuguese","confidence":0.8}`, false},
		{"language confidence out of range", KindLanguage, `{"language":"English","confidence":7}`, "", true},
		{"language missing", KindLanguage, `{"confidence":0.5}`, "", true},
		{"plot defaults events", KindPlot, `{"summary":"Things happen."}`, `{"summary":"Things happen.","key_events":[]}`, false},
		{"plot missing summary", KindPlot, `{"key_events":["a"]}`, "", true},
		{"not json", KindPlot, `Here is a summary`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeResult(tt.kind, []byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}

	_, err := NormalizeResult(Kind("mood"), []byte(`{}`))
	require.ErrorIs(t, err, ErrInvalidKind)
}
