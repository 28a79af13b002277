package exports

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sveinbjornt/ensk.is/internal/models"
)

func sampleEntries() []models.DictionaryEntry {
	return []models.DictionaryEntry{
		{
			Headword:   "cat",
			Categories: []models.WordCategory{models.CatNoun},
			IPAUK:      "/kæt/",
			Page:       models.PageRef{Num: 83},
			Senses: []models.Sense{
				{Category: models.CatNoun, Text: "köttur"},
				{Category: models.CatNoun, Text: "fress"},
			},
		},
		{
			Headword:   "dog",
			Categories: []models.WordCategory{models.CatNoun},
			Senses:     []models.Sense{{Category: models.CatNoun, Text: "hundur"}},
		},
	}
}

func writeAll(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "dict.db")
	if err := os.WriteFile(storePath, []byte("fake sqlite bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	exportDir := filepath.Join(dir, "files")
	if err := WriteAll(exportDir, sampleEntries(), storePath); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	return exportDir
}

func TestWriteAll_ProducesAllArtifacts(t *testing.T) {
	dir := writeAll(t)
	for _, name := range []string{CSVName, TextName, CSVZipName, TextZipName, DBZipName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestCSV_Content(t *testing.T) {
	dir := writeAll(t)
	data, err := os.ReadFile(filepath.Join(dir, CSVName))
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("csv parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3 (header + 2)", len(records))
	}
	if records[0][0] != "word" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "cat" || records[1][1] != "n. köttur; fress" || records[1][4] != "83" {
		t.Errorf("row = %v", records[1])
	}
}

func TestText_Content(t *testing.T) {
	dir := writeAll(t)
	data, err := os.ReadFile(filepath.Join(dir, TextName))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != "cat n. köttur; fress" {
		t.Errorf("line = %q", lines[0])
	}
}

func TestZip_RoundTrip(t *testing.T) {
	dir := writeAll(t)
	zr, err := zip.OpenReader(filepath.Join(dir, TextZipName))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 || zr.File[0].Name != TextName {
		t.Fatalf("zip contents = %v", zr.File)
	}
	f, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "cat ") {
		t.Errorf("zip text = %q", buf.String())
	}
}

func TestWriteAll_Deterministic(t *testing.T) {
	a := writeAll(t)
	b := writeAll(t)
	for _, name := range []string{CSVName, TextName, CSVZipName, TextZipName} {
		da, err := os.ReadFile(filepath.Join(a, name))
		if err != nil {
			t.Fatal(err)
		}
		db, err := os.ReadFile(filepath.Join(b, name))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(da, db) {
			t.Errorf("artifact %s differs between identical runs", name)
		}
	}
}
