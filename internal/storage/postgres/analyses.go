package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jeancds29/gutenberg-back/internal/library"
)

const insertAnalysisSQL = `
INSERT INTO analyses (book_id, analysis_type, result)
VALUES ($1, $2, $3)
ON CONFLICT (book_id, analysis_type) DO NOTHING
RETURNING id, created_at`

const selectAnalysisSQL = `
SELECT id, book_id, analysis_type, result, created_at
FROM analyses
WHERE book_id = $1 AND analysis_type = $2`

const listAnalysesSQL = `
SELECT id, book_id, analysis_type, result, created_at
FROM analyses
WHERE book_id = $1
ORDER BY analysis_type`

// CreateAnalysis caches a result. A duplicate (book, kind) yields
// library.ErrConflict and a missing book library.ErrNotFound.
func (s *Store) CreateAnalysis(ctx context.Context, a library.Analysis) (library.Analysis, error) {
	err := s.pool.QueryRow(ctx, insertAnalysisSQL, a.BookID, string(a.Kind), []byte(a.Result)).
		Scan(&a.ID, &a.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows), pgCode(err) == codeUniqueViolation:
		return library.Analysis{}, fmt.Errorf("%s analysis for book id %d: %w", a.Kind, a.BookID, library.ErrConflict)
	case pgCode(err) == codeForeignKeyViolation:
		return library.Analysis{}, fmt.Errorf("analysis for book id %d: %w", a.BookID, library.ErrNotFound)
	case err != nil:
		return library.Analysis{}, fmt.Errorf("insert %s analysis: %w", a.Kind, err)
	}
	return a, nil
}

// GetAnalysis loads the cached result for a (book, kind) pair.
func (s *Store) GetAnalysis(ctx context.Context, bookID int64, kind library.Kind) (library.Analysis, error) {
	a, err := scanAnalysis(s.pool.QueryRow(ctx, selectAnalysisSQL, bookID, string(kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return library.Analysis{}, fmt.Errorf("%s analysis for book id %d: %w", kind, bookID, library.ErrNotFound)
	}
	if err != nil {
		return library.Analysis{}, fmt.Errorf("select %s analysis: %w", kind, err)
	}
	return a, nil
}

// ListAnalyses returns a book's cached results ordered by kind.
func (s *Store) ListAnalyses(ctx context.Context, bookID int64) ([]library.Analysis, error) {
	rows, err := s.pool.Query(ctx, listAnalysesSQL, bookID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []library.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}

func scanAnalysis(row pgx.Row) (library.Analysis, error) {
	var (
		a      library.Analysis
		kind   string
		result []byte
	)
	if err := row.Scan(&a.ID, &a.BookID, &kind, &result, &a.CreatedAt); err != nil {
		return library.Analysis{}, err
	}
	a.Kind = library.Kind(kind)
	a.Result = result
	return a, nil
}
