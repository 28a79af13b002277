package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/sveinbjornt/ensk.is/internal/exports"
)

// downloadable lists the artifacts clients may fetch. Anything else is
// rejected, so no path validation beyond the allowlist is needed.
var downloadable = map[string]string{
	exports.CSVName:     "text/csv; charset=utf-8",
	exports.TextName:    "text/plain; charset=utf-8",
	exports.CSVZipName:  "application/zip",
	exports.TextZipName: "application/zip",
	exports.DBZipName:   "application/zip",
}

// DownloadHandler serves the export artifacts produced by the build.
type DownloadHandler struct {
	dir string
}

// NewDownloadHandler creates a handler rooted at the exports directory.
func NewDownloadHandler(dir string) *DownloadHandler {
	return &DownloadHandler{dir: dir}
}

// Serve handles GET /api/files/{name}.
func (h *DownloadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctype, ok := downloadable[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no such file"))
		return
	}
	abs := filepath.Join(h.dir, name)
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		writeJSON(w, http.StatusNotFound, errorBody("no such file"))
		return
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeFile(w, r, abs)
}
