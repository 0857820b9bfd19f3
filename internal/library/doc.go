// Package library holds the book and analysis domain types, the ports the
// service depends on, and the cache-or-fetch orchestration behind the HTTP API.
//
// Flow per request:
//   - GetBook: read the store; on a miss scrape the archive, persist, return.
//   - Analyze: the book must already be stored; a cached (book, kind) row is
//     returned untouched, otherwise the analyzer is called, its JSON validated
//     against the kind's shape, persisted and returned.
//
// Unique constraints on books.catalog_id and analyses(book_id, kind) settle
// concurrent first requests: the losing insert gets ErrConflict and the
// service returns the row that won.
package library
