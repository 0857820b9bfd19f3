package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/library"
)

// analysisRequest is the body of the analysis endpoints.
type analysisRequest struct {
	BookID       string `json:"book_id"`
	AnalysisType string `json:"analysis_type"`
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Gutenberg API"})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.lib.ListBooks(r.Context())
	if err != nil {
		s.logger.Error("list books failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "book_id")
	book, err := s.lib.GetBook(r.Context(), bookID)
	if err != nil {
		s.writeLibraryError(w, r, err, bookErrorMessages(bookID))
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "book_id")
	analyses, err := s.lib.ListAnalyses(r.Context(), bookID)
	if err != nil {
		s.writeLibraryError(w, r, err, analysisErrorMessages(bookID, ""))
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

// analyzeKind serves the per-kind routes. The kind comes from the path; the
// body's analysis_type is informational.
func (s *Server) analyzeKind(kind library.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalysisRequest(w, r)
		if !ok {
			return
		}
		s.analyze(w, r, req.BookID, kind)
	}
}

func (s *Server) analyzeFromBody(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalysisRequest(w, r)
	if !ok {
		return
	}
	kind, err := library.ParseKind(req.AnalysisType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.analyze(w, r, req.BookID, kind)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, bookID string, kind library.Kind) {
	analysis, err := s.lib.Analyze(r.Context(), bookID, kind)
	if err != nil {
		s.writeLibraryError(w, r, err, analysisErrorMessages(bookID, kind))
		return
	}
	writeRawJSON(w, http.StatusOK, analysis.Result)
}

func decodeAnalysisRequest(w http.ResponseWriter, r *http.Request) (analysisRequest, bool) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return analysisRequest{}, false
	}
	if req.BookID == "" {
		writeError(w, http.StatusBadRequest, "book_id is required")
		return analysisRequest{}, false
	}
	return req, true
}

// errorMessages holds the client-facing text for not-found and upstream
// failures of one operation.
type errorMessages struct {
	notFound string
	upstream string
}

func bookErrorMessages(bookID string) errorMessages {
	return errorMessages{
		notFound: fmt.Sprintf("Book with ID %s not found in Project Gutenberg", bookID),
		upstream: fmt.Sprintf("Error fetching book %s from Project Gutenberg", bookID),
	}
}

func analysisErrorMessages(bookID string, kind library.Kind) errorMessages {
	upstream := "Error processing analysis"
	if kind != "" {
		upstream = fmt.Sprintf("Error processing %s analysis", kind)
	}
	return errorMessages{
		notFound: fmt.Sprintf("Book with ID %s not found. Download it first.", bookID),
		upstream: upstream,
	}
}

func (s *Server) writeLibraryError(w http.ResponseWriter, r *http.Request, err error, msgs errorMessages) {
	switch {
	case errors.Is(err, library.ErrInvalidCatalogID), errors.Is(err, library.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, msgs.notFound)
	case errors.Is(err, library.ErrUpstream):
		s.logger.Warn("upstream failure",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, msgs.upstream)
	default:
		s.logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
