// Package memory provides an in-memory library.Store for development/testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jeancds29/gutenberg-back/internal/clock"
	"github.com/jeancds29/gutenberg-back/internal/library"
)

type analysisKey struct {
	bookID int64
	kind   library.Kind
}

// Store mirrors the Postgres schema rules: unique catalog ids, unique
// (book, kind) analyses and cascading deletes.
type Store struct {
	mu           sync.RWMutex
	clock        library.Clock
	nextBookID   int64
	nextAnalysis int64
	books        map[string]library.Book
	analyses     map[analysisKey]library.Analysis
}

// NewStore constructs a Store. A nil clock uses the system clock.
func NewStore(c library.Clock) *Store {
	if c == nil {
		c = clock.System{}
	}
	return &Store{
		clock:    c,
		books:    make(map[string]library.Book),
		analyses: make(map[analysisKey]library.Analysis),
	}
}

// CreateBook stores a new book.
func (s *Store) CreateBook(_ context.Context, book library.Book) (library.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[book.CatalogID]; exists {
		return library.Book{}, fmt.Errorf("book %s: %w", book.CatalogID, library.ErrConflict)
	}
	s.nextBookID++
	book.ID = s.nextBookID
	book.CreatedAt = s.clock.Now()
	s.books[book.CatalogID] = book
	return book, nil
}

// GetBookByCatalogID fetches a book by its catalog id.
func (s *Store) GetBookByCatalogID(_ context.Context, catalogID string) (library.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[catalogID]
	if !ok {
		return library.Book{}, fmt.Errorf("book %s: %w", catalogID, library.ErrNotFound)
	}
	return book, nil
}

// ListBooks returns summaries ordered by creation time, newest first.
func (s *Store) ListBooks(_ context.Context) ([]library.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]library.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteBook removes a book together with its analyses.
func (s *Store) DeleteBook(_ context.Context, catalogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[catalogID]
	if !ok {
		return fmt.Errorf("book %s: %w", catalogID, library.ErrNotFound)
	}
	delete(s.books, catalogID)
	for key := range s.analyses {
		if key.bookID == book.ID {
			delete(s.analyses, key)
		}
	}
	return nil
}

// CreateAnalysis stores a result for a (book, kind) pair once.
func (s *Store) CreateAnalysis(_ context.Context, analysis library.Analysis) (library.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasBookLocked(analysis.BookID) {
		return library.Analysis{}, fmt.Errorf("analysis for book id %d: %w", analysis.BookID, library.ErrNotFound)
	}
	key := analysisKey{bookID: analysis.BookID, kind: analysis.Kind}
	if _, exists := s.analyses[key]; exists {
		return library.Analysis{}, fmt.Errorf("%s analysis for book id %d: %w", analysis.Kind, analysis.BookID, library.ErrConflict)
	}
	s.nextAnalysis++
	analysis.ID = s.nextAnalysis
	analysis.CreatedAt = s.clock.Now()
	analysis.Result = append([]byte(nil), analysis.Result...)
	s.analyses[key] = analysis
	return analysis, nil
}

// GetAnalysis fetches the cached result for a (book, kind) pair.
func (s *Store) GetAnalysis(_ context.Context, bookID int64, kind library.Kind) (library.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[analysisKey{bookID: bookID, kind: kind}]
	if !ok {
		return library.Analysis{}, fmt.Errorf("%s analysis for book id %d: %w", kind, bookID, library.ErrNotFound)
	}
	return a, nil
}

// ListAnalyses returns a book's analyses ordered by kind.
func (s *Store) ListAnalyses(_ context.Context, bookID int64) ([]library.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []library.Analysis
	for key, a := range s.analyses {
		if key.bookID == bookID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) hasBookLocked(id int64) bool {
	for _, b := range s.books {
		if b.ID == id {
			return true
		}
	}
	return false
}
