// Package api implements the dictionary REST API using chi.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sveinbjornt/ensk.is/internal/apperr"
	"github.com/sveinbjornt/ensk.is/internal/dictservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *dictservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *dictservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Search handles GET /api/search?q=...&page=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	res, err := h.svc.Search(r.Context(), q, page)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidQuery) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid query"))
			return
		}
		slog.Error("search failed", slog.String("q", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Item handles GET /api/item/{word}. The word may be URL-encoded.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	if decoded, err := url.PathUnescape(word); err == nil {
		word = decoded
	}
	if word == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("word is required"))
		return
	}

	items, err := h.svc.Lookup(r.Context(), word)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidQuery):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid query"))
		default:
			slog.Error("lookup failed", slog.String("word", word), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ItemResponse{Word: items[0].Word, Items: items})
}

// Suggest handles GET /api/suggest?q=...&limit=N.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	out, err := h.svc.Suggest(r.Context(), q, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidQuery) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid query"))
			return
		}
		slog.Error("suggest failed", slog.String("q", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: out})
}

// Metadata handles GET /api/metadata.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.Metadata(r.Context())
	if err != nil {
		slog.Error("metadata failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
