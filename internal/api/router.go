package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sveinbjornt/ensk.is/internal/dictservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events. exportsDir, if
// non-empty, enables the download endpoints.
func NewRouter(svc *dictservice.Service, sseHandler http.Handler, exportsDir string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Search and lookup.
	r.Get("/search", h.Search)
	r.Get("/item/{word}", h.Item)
	r.Get("/suggest", h.Suggest)

	// Dictionary metadata.
	r.Get("/metadata", h.Metadata)

	// Download artifacts produced by the build.
	if exportsDir != "" {
		dh := NewDownloadHandler(exportsDir)
		r.Get("/files/{name}", dh.Serve)
	}

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
