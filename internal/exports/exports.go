// Package exports derives downloadable artifacts from a validated
// entry set: a CSV table, a plain-text dump, and zipped copies of both
// plus the SQLite store itself.
package exports

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sveinbjornt/ensk.is/internal/models"
)

// Artifact file names within the exports directory.
const (
	CSVName     = "ensk_dict.csv"
	TextName    = "ensk_dict.txt"
	CSVZipName  = "ensk_dict.csv.zip"
	TextZipName = "ensk_dict.txt.zip"
	DBZipName   = "ensk_dict.db.zip"
)

// WriteAll writes every export artifact into dir. The entries must
// already be in publication order; the artifacts preserve it. storePath
// points at the built SQLite store to include as a zipped download.
func WriteAll(dir string, entries []models.DictionaryEntry, storePath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("exports: create dir: %w", err)
	}

	csvData, err := renderCSV(entries)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, CSVName), csvData); err != nil {
		return err
	}
	if err := writeZip(filepath.Join(dir, CSVZipName), CSVName, csvData); err != nil {
		return err
	}

	textData := renderText(entries)
	if err := writeFile(filepath.Join(dir, TextName), textData); err != nil {
		return err
	}
	if err := writeZip(filepath.Join(dir, TextZipName), TextName, textData); err != nil {
		return err
	}

	dbData, err := os.ReadFile(storePath)
	if err != nil {
		return fmt.Errorf("exports: read store: %w", err)
	}
	return writeZip(filepath.Join(dir, DBZipName), filepath.Base(storePath), dbData)
}

// renderCSV renders entries as CSV with a header row.
func renderCSV(entries []models.DictionaryEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"word", "definition", "ipa_uk", "ipa_us", "page_num"}); err != nil {
		return nil, fmt.Errorf("exports: write csv header: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		rec := []string{e.Headword, e.DefinitionText(), e.IPAUK, e.IPAUS, strconv.Itoa(e.Page.Num)}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("exports: write csv row %q: %w", e.Headword, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("exports: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// renderText renders the classic "word definition" dump, one entry per
// line.
func renderText(entries []models.DictionaryEntry) []byte {
	var buf bytes.Buffer
	for i := range entries {
		e := &entries[i]
		buf.WriteString(e.Headword)
		buf.WriteString(" ")
		buf.WriteString(e.DefinitionText())
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// writeFile writes data atomically: temp file in the same directory,
// then rename.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".export-tmp-*")
	if err != nil {
		return fmt.Errorf("exports: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("exports: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("exports: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("exports: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("exports: rename: %w", err)
	}
	success = true
	return nil
}

// writeZip writes a single-file zip archive containing data under
// innerName. Timestamps are zeroed so identical input produces
// identical archives.
func writeZip(path, innerName string, data []byte) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:   innerName,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("exports: create zip entry: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("exports: write zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("exports: close zip: %w", err)
	}
	return writeFile(path, buf.Bytes())
}
