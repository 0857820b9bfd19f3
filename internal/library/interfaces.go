package library

import (
	"context"
	"time"
)

// BookStore persists scraped books.
type BookStore interface {
	// CreateBook inserts book and returns the stored row. A duplicate
	// catalog id yields ErrConflict.
	CreateBook(ctx context.Context, book Book) (Book, error)
	// GetBookByCatalogID returns the stored book or ErrNotFound.
	GetBookByCatalogID(ctx context.Context, catalogID string) (Book, error)
	// ListBooks returns all books, newest first, without content.
	ListBooks(ctx context.Context) ([]Book, error)
	// DeleteBook removes the book and its analyses, or returns ErrNotFound.
	DeleteBook(ctx context.Context, catalogID string) error
}

// AnalysisStore persists cached analyses.
type AnalysisStore interface {
	// CreateAnalysis inserts a result. A duplicate (book, kind) yields ErrConflict.
	CreateAnalysis(ctx context.Context, analysis Analysis) (Analysis, error)
	// GetAnalysis returns the cached result or ErrNotFound.
	GetAnalysis(ctx context.Context, bookID int64, kind Kind) (Analysis, error)
	// ListAnalyses returns every cached result for a book.
	ListAnalyses(ctx context.Context, bookID int64) ([]Analysis, error)
}

// Store combines both repositories plus liveness.
type Store interface {
	BookStore
	AnalysisStore
	Ping(ctx context.Context) error
	Close()
}

// ArchiveBook is what the archive scraper yields for a catalog id.
type ArchiveBook struct {
	Title         string
	Author        string
	Language      string
	DownloadCount int
	Content       string
}

// Archive fetches book text and metadata from the source archive. Missing
// books yield ErrNotFound, other failures ErrUpstream.
type Archive interface {
	FetchBook(ctx context.Context, catalogID string) (ArchiveBook, error)
}

// Analyzer produces the raw JSON document for one analysis kind.
type Analyzer interface {
	Analyze(ctx context.Context, kind Kind, book Book) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
