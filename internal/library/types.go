package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNotFound signals a missing book or analysis, locally or on the archive.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals that a unique constraint rejected an insert.
	ErrConflict = errors.New("already exists")
	// ErrUpstream signals that the archive or the language model failed.
	ErrUpstream = errors.New("upstream service failed")
	// ErrInvalidCatalogID rejects ids that are not plain decimal numbers.
	ErrInvalidCatalogID = errors.New("invalid book id")
	// ErrInvalidKind rejects analysis kinds outside the fixed enumeration.
	ErrInvalidKind = errors.New("invalid analysis type")
)

var catalogIDPattern = regexp.MustCompile(`^[0-9]{1,10}$`)

// ValidateCatalogID checks that id can be safely placed into archive URLs.
func ValidateCatalogID(id string) error {
	if !catalogIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidCatalogID, id)
	}
	return nil
}

// Book is a scraped archive entry. Rows are immutable once stored.
type Book struct {
	ID            int64     `json:"id"`
	CatalogID     string    `json:"book_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Language      string    `json:"language"`
	DownloadCount int       `json:"download_count"`
	Content       string    `json:"content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary returns a copy of b without its text content.
func (b Book) Summary() Book {
	b.Content = ""
	return b
}

// Kind identifies which analysis a cached row represents.
type Kind string

// Supported analysis kinds.
const (
	KindCharacters Kind = "characters"
	KindLanguage   Kind = "language"
	KindPlot       Kind = "plot"
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindCharacters, KindLanguage, KindPlot}
}

// ParseKind converts raw into a Kind, case-insensitively.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch k {
	case KindCharacters, KindLanguage, KindPlot:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, raw)
	}
}

// Analysis is a cached language-model result for one (book, kind) pair.
type Analysis struct {
	ID        int64           `json:"id"`
	BookID    int64           `json:"book_id"`
	Kind      Kind            `json:"analysis_type"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Character is one entry of a character analysis.
type Character struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Importance  string `json:"importance"`
}

// CharacterAnalysis is the result shape for KindCharacters.
type CharacterAnalysis struct {
	Characters []Character `json:"characters"`
}

// LanguageAnalysis is the result shape for KindLanguage.
type LanguageAnalysis struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// PlotAnalysis is the result shape for KindPlot.
type PlotAnalysis struct {
	Summary   string   `json:"summary"`
	KeyEvents []string `json:"key_events"`
}

// NormalizeResult decodes raw into the shape for kind, checks the required
// fields and returns the canonical re-encoded document.
func NormalizeResult(kind Kind, raw []byte) (json.RawMessage, error) {
	var (
		out any
		err error
	)
	switch kind {
	case KindCharacters:
		var v CharacterAnalysis
		if err = json.Unmarshal(raw, &v); err == nil {
			err = checkCharacters(v)
		}
		out = v
	case KindLanguage:
		var v LanguageAnalysis
		if err = json.Unmarshal(raw, &v); err == nil {
			switch {
			case strings.TrimSpace(v.Language) == "":
				err = errors.New(`missing "language"`)
			case v.Confidence < 0 || v.Confidence > 1:
				err = fmt.Errorf("confidence %v outside [0,1]", v.Confidence)
			}
		}
		out = v
	case KindPlot:
		var v PlotAnalysis
		if err = json.Unmarshal(raw, &v); err == nil && strings.TrimSpace(v.Summary) == "" {
			err = errors.New(`missing "summary"`)
		}
		if v.KeyEvents == nil {
			v.KeyEvents = []string{}
		}
		out = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s result: %w", kind, err)
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", kind, err)
	}
	return encoded, nil
}

func checkCharacters(v CharacterAnalysis) error {
	if v.Characters == nil {
		return errors.New(`missing "characters"`)
	}
	for i, c := range v.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("character %d has no name", i)
		}
	}
	return nil
}
