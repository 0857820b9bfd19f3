package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jeancds29/gutenberg-back/internal/library"
)

const insertBookSQL = `
INSERT INTO books (book_id, title, author, language, download_count, content)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (book_id) DO NOTHING
RETURNING id, created_at`

const selectBookSQL = `
SELECT id, book_id, title, author, language, download_count, content, created_at
FROM books
WHERE book_id = $1`

const listBooksSQL = `
SELECT id, book_id, title, author, language, download_count, created_at
FROM books
ORDER BY created_at DESC, id DESC`

const deleteBookSQL = `DELETE FROM books WHERE book_id = $1`

// CreateBook inserts a book. A duplicate catalog id yields library.ErrConflict.
func (s *Store) CreateBook(ctx context.Context, book library.Book) (library.Book, error) {
	err := s.pool.QueryRow(ctx, insertBookSQL,
		book.CatalogID,
		book.Title,
		book.Author,
		book.Language,
		book.DownloadCount,
		book.Content,
	).Scan(&book.ID, &book.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeUniqueViolation {
		return library.Book{}, fmt.Errorf("book %s: %w", book.CatalogID, library.ErrConflict)
	}
	if err != nil {
		return library.Book{}, fmt.Errorf("insert book %s: %w", book.CatalogID, err)
	}
	return book, nil
}

// GetBookByCatalogID loads a book with its content.
func (s *Store) GetBookByCatalogID(ctx context.Context, catalogID string) (library.Book, error) {
	var b library.Book
	err := s.pool.QueryRow(ctx, selectBookSQL, catalogID).Scan(
		&b.ID,
		&b.CatalogID,
		&b.Title,
		&b.Author,
		&b.Language,
		&b.DownloadCount,
		&b.Content,
		&b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return library.Book{}, fmt.Errorf("book %s: %w", catalogID, library.ErrNotFound)
	}
	if err != nil {
		return library.Book{}, fmt.Errorf("select book %s: %w", catalogID, err)
	}
	return b, nil
}

// ListBooks returns book summaries, newest first. Content is not loaded.
func (s *Store) ListBooks(ctx context.Context) ([]library.Book, error) {
	rows, err := s.pool.Query(ctx, listBooksSQL)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []library.Book{}
	for rows.Next() {
		var b library.Book
		if err := rows.Scan(
			&b.ID,
			&b.CatalogID,
			&b.Title,
			&b.Author,
			&b.Language,
			&b.DownloadCount,
			&b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out, nil
}

// DeleteBook removes a book; the foreign key cascades to its analyses.
func (s *Store) DeleteBook(ctx context.Context, catalogID string) error {
	tag, err := s.pool.Exec(ctx, deleteBookSQL, catalogID)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", catalogID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("book %s: %w", catalogID, library.ErrNotFound)
	}
	return nil
}
