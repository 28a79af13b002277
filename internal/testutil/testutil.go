// Package testutil provides shared test helpers for building and
// opening throwaway dictionary stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/sveinbjornt/ensk.is/internal/models"
	"github.com/sveinbjornt/ensk.is/internal/store"
)

// TestStore builds a store from entries in a temp directory and returns
// an open reader that is automatically cleaned up.
func TestStore(t *testing.T, entries []models.DictionaryEntry, meta map[string]string) *store.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.db")
	if err := store.Build(path, entries, meta); err != nil {
		t.Fatalf("Build: %v", err)
	}
	rd, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { rd.Close() })
	return rd
}

// Entry constructs a minimal noun entry for tests.
func Entry(word, text string) models.DictionaryEntry {
	return models.DictionaryEntry{
		Headword:   word,
		Categories: []models.WordCategory{models.CatNoun},
		Senses:     []models.Sense{{Category: models.CatNoun, Text: text}},
	}
}
