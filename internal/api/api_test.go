package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sveinbjornt/ensk.is/internal/dictservice"
	"github.com/sveinbjornt/ensk.is/internal/exports"
	"github.com/sveinbjornt/ensk.is/internal/models"
	"github.com/sveinbjornt/ensk.is/internal/testutil"
)

// testEnv builds a small store, wraps it in a service and returns the
// router. exportsDir may be empty to disable the download routes.
func testEnv(t *testing.T, exportsDir string) http.Handler {
	t.Helper()

	cat := testutil.Entry("cat", "köttur")
	cat.Page = models.PageRef{Num: 101}
	entries := []models.DictionaryEntry{
		cat,
		testutil.Entry("catalog", "skrá"),
		testutil.Entry("dog", "hundur"),
	}

	meta := map[string]string{"entry_count": "3", "generated_at": "2026-01-01T00:00:00Z"}
	rd := testutil.TestStore(t, entries, meta)
	svc, err := dictservice.New(rd, dictservice.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	return NewRouter(svc, nil, exportsDir)
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearch(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search?q=cat")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("total = %d, want 2", res.Total)
	}
	if len(res.Results) != 2 || res.Results[0].Word != "cat" {
		t.Errorf("results = %+v", res.Results)
	}
	if !res.Exact {
		t.Error("expected exact flag")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search?q=")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Total != 0 || len(res.Results) != 0 {
		t.Errorf("expected empty page, got %+v", res)
	}
}

func TestSearchInvalidQuery(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search?q=%ff")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestItem(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/item/cat")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Word != "cat" || len(res.Items) != 1 {
		t.Fatalf("response = %+v", res)
	}
	if res.Items[0].Definition != "n. köttur" {
		t.Errorf("definition = %q", res.Items[0].Definition)
	}
}

func TestItemNotFound(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/item/zebra")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "not found" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestSuggest(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/suggest?q=cat&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res SuggestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.Suggestions) != 2 || res.Suggestions[0] != "cat" {
		t.Errorf("suggestions = %v", res.Suggestions)
	}
}

func TestMetadata(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/metadata")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var meta map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &meta); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if meta["entry_count"] != "3" {
		t.Errorf("entry_count = %q", meta["entry_count"])
	}
}

func TestDownloads(t *testing.T) {
	dir := t.TempDir()
	data := []byte("cat n. köttur\n")
	if err := os.WriteFile(filepath.Join(dir, exports.TextName), data, 0o644); err != nil {
		t.Fatal(err)
	}
	router := testEnv(t, dir)

	w := get(t, router, "/files/"+exports.TextName)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != string(data) {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}

	// Names outside the allowlist are rejected outright.
	w = get(t, router, "/files/secret.txt")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	w = get(t, router, "/files/"+exports.CSVName)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing artifact status = %d, want 404", w.Code)
	}
}
