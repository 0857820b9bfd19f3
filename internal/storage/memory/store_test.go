package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeancds29/gutenberg-back/internal/clock"
	"github.com/jeancds29/gutenberg-back/internal/library"
)

func TestStoreBooks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewStore(clk)

	first, err := s.CreateBook(ctx, library.Book{CatalogID: "84", Title: "Frankenstein", Content: "text"})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, clk.Now(), first.CreatedAt)

	clk.Advance(time.Minute)
	_, err = s.CreateBook(ctx, library.Book{CatalogID: "1342", Title: "Pride and Prejudice"})
	require.NoError(t, err)

	_, err = s.CreateBook(ctx, library.Book{CatalogID: "84"})
	require.ErrorIs(t, err, library.ErrConflict)

	got, err := s.GetBookByCatalogID(ctx, "84")
	require.NoError(t, err)
	assert.Equal(t, "text", got.Content)

	_, err = s.GetBookByCatalogID(ctx, "11")
	require.ErrorIs(t, err, library.ErrNotFound)

	list, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1342", list[0].CatalogID, "newest first")
	assert.Empty(t, list[1].Content, "list omits content")
}

func TestStoreAnalysesUniqueAndCascade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(nil)
	book, err := s.CreateBook(ctx, library.Book{CatalogID: "84"})
	require.NoError(t, err)

	result := json.RawMessage(`{"language":"English","confidence":0.9}`)
	created, err := s.CreateAnalysis(ctx, library.Analysis{BookID: book.ID, Kind: library.KindLanguage, Result: result})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = s.CreateAnalysis(ctx, library.Analysis{BookID: book.ID, Kind: library.KindLanguage, Result: result})
	require.ErrorIs(t, err, library.ErrConflict)

	_, err = s.CreateAnalysis(ctx, library.Analysis{BookID: book.ID + 100, Kind: library.KindPlot, Result: result})
	require.ErrorIs(t, err, library.ErrNotFound)

	cached, err := s.GetAnalysis(ctx, book.ID, library.KindLanguage)
	require.NoError(t, err)
	assert.JSONEq(t, string(result), string(cached.Result))

	_, err = s.GetAnalysis(ctx, book.ID, library.KindPlot)
	require.ErrorIs(t, err, library.ErrNotFound)

	require.NoError(t, s.DeleteBook(ctx, "84"))
	all, err := s.ListAnalyses(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
	require.ErrorIs(t, s.DeleteBook(ctx, "84"), library.ErrNotFound)
}
