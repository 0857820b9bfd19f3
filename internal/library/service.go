package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/metrics"
)

// Service implements the fetch-or-scrape and cache-or-call flows.
type Service struct {
	books    BookStore
	analyses AnalysisStore
	archive  Archive
	analyzer Analyzer
	logger   *zap.Logger
}

// NewService wires the stores, the archive scraper and the analyzer.
func NewService(
	books BookStore,
	analyses AnalysisStore,
	archive Archive,
	analyzer Analyzer,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		books:    books,
		analyses: analyses,
		archive:  archive,
		analyzer: analyzer,
		logger:   logger,
	}
}

// ListBooks returns every stored book, newest first, without content.
func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// GetBook returns the stored book, scraping and persisting it on first use.
func (s *Service) GetBook(ctx context.Context, catalogID string) (Book, error) {
	if err := ValidateCatalogID(catalogID); err != nil {
		return Book{}, err
	}
	book, err := s.books.GetBookByCatalogID(ctx, catalogID)
	switch {
	case err == nil:
		return book, nil
	case !errors.Is(err, ErrNotFound):
		return Book{}, fmt.Errorf("load book %s: %w", catalogID, err)
	}

	s.logger.Info("book not stored, fetching from archive", zap.String("book_id", catalogID))
	fetched, err := s.archive.FetchBook(ctx, catalogID)
	if err != nil {
		return Book{}, fmt.Errorf("fetch book %s: %w", catalogID, err)
	}

	book, err = s.books.CreateBook(ctx, Book{
		CatalogID:     catalogID,
		Title:         fetched.Title,
		Author:        fetched.Author,
		Language:      fetched.Language,
		DownloadCount: fetched.DownloadCount,
		Content:       fetched.Content,
	})
	if errors.Is(err, ErrConflict) {
		// Another request stored it first; theirs wins.
		s.logger.Debug("book stored concurrently", zap.String("book_id", catalogID))
		return s.storedBook(ctx, catalogID)
	}
	if err != nil {
		return Book{}, fmt.Errorf("save book %s: %w", catalogID, err)
	}
	s.logger.Info("book saved",
		zap.String("book_id", catalogID),
		zap.String("title", book.Title),
		zap.Int("content_bytes", len(book.Content)),
	)
	return book, nil
}

// Analyze returns the cached analysis of kind for a stored book, calling the
// analyzer and caching its validated result on a miss. Books are never
// scraped here: a missing book yields ErrNotFound.
func (s *Service) Analyze(ctx context.Context, catalogID string, kind Kind) (Analysis, error) {
	kind, err := ParseKind(string(kind))
	if err != nil {
		return Analysis{}, err
	}
	book, err := s.storedBook(ctx, catalogID)
	if err != nil {
		return Analysis{}, err
	}
	logger := s.logger.With(zap.String("book_id", catalogID), zap.String("kind", string(kind)))

	cached, err := s.analyses.GetAnalysis(ctx, book.ID, kind)
	switch {
	case err == nil:
		logger.Info("using cached analysis")
		metrics.ObserveAnalysis(string(kind), metrics.SourceCache)
		return cached, nil
	case !errors.Is(err, ErrNotFound):
		return Analysis{}, fmt.Errorf("load %s analysis: %w", kind, err)
	}

	logger.Info("performing analysis")
	start := time.Now()
	raw, err := s.analyzer.Analyze(ctx, kind, book)
	metrics.ObserveLLMRequest(string(kind), time.Since(start))
	if err != nil {
		metrics.ObserveAnalysis(string(kind), metrics.SourceError)
		logger.Error("analysis failed", zap.Error(err))
		return Analysis{}, upstream(kind, err)
	}
	result, err := NormalizeResult(kind, raw)
	if err != nil {
		metrics.ObserveAnalysis(string(kind), metrics.SourceError)
		logger.Error("analysis returned an unusable document", zap.Error(err))
		return Analysis{}, upstream(kind, err)
	}

	saved, err := s.analyses.CreateAnalysis(ctx, Analysis{BookID: book.ID, Kind: kind, Result: result})
	if errors.Is(err, ErrConflict) {
		logger.Debug("analysis stored concurrently")
		saved, err = s.analyses.GetAnalysis(ctx, book.ID, kind)
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("save %s analysis: %w", kind, err)
	}
	metrics.ObserveAnalysis(string(kind), metrics.SourceModel)
	return saved, nil
}

// ListAnalyses returns all cached analyses of a stored book.
func (s *Service) ListAnalyses(ctx context.Context, catalogID string) ([]Analysis, error) {
	book, err := s.storedBook(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	analyses, err := s.analyses.ListAnalyses(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("list analyses of %s: %w", catalogID, err)
	}
	if analyses == nil {
		analyses = []Analysis{}
	}
	return analyses, nil
}

// EvictBook deletes a stored book and, by cascade, its analyses.
func (s *Service) EvictBook(ctx context.Context, catalogID string) error {
	if err := ValidateCatalogID(catalogID); err != nil {
		return err
	}
	if err := s.books.DeleteBook(ctx, catalogID); err != nil {
		return fmt.Errorf("evict book %s: %w", catalogID, err)
	}
	s.logger.Info("book evicted", zap.String("book_id", catalogID))
	return nil
}

func (s *Service) storedBook(ctx context.Context, catalogID string) (Book, error) {
	if err := ValidateCatalogID(catalogID); err != nil {
		return Book{}, err
	}
	book, err := s.books.GetBookByCatalogID(ctx, catalogID)
	if err != nil {
		return Book{}, fmt.Errorf("load book %s: %w", catalogID, err)
	}
	return book, nil
}

func upstream(kind Kind, err error) error {
	if errors.Is(err, ErrUpstream) {
		return fmt.Errorf("%s analysis: %w", kind, err)
	}
	return fmt.Errorf("%w: %s analysis: %w", ErrUpstream, kind, err)
}
