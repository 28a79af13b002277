// Package store persists validated dictionary entries in SQLite and
// answers read-only queries against the published store. A build writes
// a complete new database to a temporary file and atomically renames it
// over the live one, so the previous edition stays fully readable until
// the swap.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sveinbjornt/ensk.is/internal/models"
)

const schemaSQL = `
CREATE TABLE entries (
	id        INTEGER PRIMARY KEY,
	word      TEXT NOT NULL,
	categories TEXT NOT NULL DEFAULT '',
	homograph INTEGER NOT NULL DEFAULT 0,
	gender    TEXT NOT NULL DEFAULT '',
	ipa_uk    TEXT NOT NULL DEFAULT '',
	ipa_us    TEXT NOT NULL DEFAULT '',
	page_num  INTEGER NOT NULL DEFAULT 0,
	page_box  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_entries_word ON entries(word);

CREATE TABLE senses (
	entry_id INTEGER NOT NULL REFERENCES entries(id),
	seq      INTEGER NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	text     TEXT NOT NULL,
	PRIMARY KEY (entry_id, seq)
) WITHOUT ROWID;

CREATE TABLE examples (
	entry_id  INTEGER NOT NULL REFERENCES entries(id),
	sense_seq INTEGER NOT NULL,
	seq       INTEGER NOT NULL,
	en        TEXT NOT NULL,
	is_text   TEXT NOT NULL,
	PRIMARY KEY (entry_id, sense_seq, seq)
) WITHOUT ROWID;

CREATE TABLE crossrefs (
	entry_id INTEGER NOT NULL REFERENCES entries(id),
	seq      INTEGER NOT NULL,
	target   TEXT NOT NULL,
	PRIMARY KEY (entry_id, seq)
) WITHOUT ROWID;

CREATE TABLE metadata (
	key   TEXT PRIMARY KEY NOT NULL,
	value TEXT NOT NULL
) WITHOUT ROWID;
`

// Metadata keys written by every build.
const (
	MetaEntryCount    = "entry_count"
	MetaAdditionCount = "addition_count"
	MetaGeneratedAt   = "generated_at"
)

// Build writes a brand-new store for the given entries at path,
// replacing any existing store only after the new one is completely
// written. Entries are ordered case-insensitively by headword before
// insertion, so identical input yields identical output bytes
// (generated_at metadata aside).
func Build(path string, entries []models.DictionaryEntry, meta map[string]string) error {
	sorted := make([]models.DictionaryEntry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create dir: %w", err)
	}
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: clear temp: %w", err)
	}

	if err := writeStore(tmp, sorted, meta); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: swap in new store: %w", err)
	}
	return nil
}

// sortEntries orders entries by collated headword, then homograph, then
// rendered definition, giving every build the same insert order.
func sortEntries(entries []models.DictionaryEntry) {
	c := collate.New(language.English, collate.IgnoreCase)
	var buf collate.Buffer
	keys := make([]string, len(entries))
	for i := range entries {
		keys[i] = string(c.KeyFromString(&buf, entries[i].Headword))
		buf.Reset()
	}
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		a, b := idx[x], idx[y]
		if keys[a] != keys[b] {
			return keys[a] < keys[b]
		}
		if entries[a].Homograph != entries[b].Homograph {
			return entries[a].Homograph < entries[b].Homograph
		}
		return entries[a].DefinitionText() < entries[b].DefinitionText()
	})
	out := make([]models.DictionaryEntry, len(entries))
	for i, j := range idx {
		out[i] = entries[j]
	}
	copy(entries, out)
}

func writeStore(path string, entries []models.DictionaryEntry, meta map[string]string) error {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("store: open build db: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := insertEntries(tx, entries); err != nil {
		return err
	}
	if err := insertMetadata(tx, entries, meta); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func insertEntries(tx *sql.Tx, entries []models.DictionaryEntry) error {
	entryStmt, err := tx.Prepare(`
		INSERT INTO entries (id, word, categories, homograph, gender, ipa_uk, ipa_us, page_num, page_box)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare entry insert: %w", err)
	}
	defer entryStmt.Close()

	senseStmt, err := tx.Prepare(`INSERT INTO senses (entry_id, seq, category, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare sense insert: %w", err)
	}
	defer senseStmt.Close()

	exampleStmt, err := tx.Prepare(`INSERT INTO examples (entry_id, sense_seq, seq, en, is_text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare example insert: %w", err)
	}
	defer exampleStmt.Close()

	refStmt, err := tx.Prepare(`INSERT INTO crossrefs (entry_id, seq, target) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare crossref insert: %w", err)
	}
	defer refStmt.Close()

	for i := range entries {
		e := &entries[i]
		id := i + 1
		if _, err := entryStmt.Exec(id, e.Headword, joinCategories(e.Categories), e.Homograph,
			e.Gender, e.IPAUK, e.IPAUS, e.Page.Num, boxString(e.Page.Box)); err != nil {
			return fmt.Errorf("store: insert entry %q: %w", e.Headword, err)
		}
		for si, s := range e.Senses {
			if _, err := senseStmt.Exec(id, si+1, string(s.Category), s.Text); err != nil {
				return fmt.Errorf("store: insert sense for %q: %w", e.Headword, err)
			}
			for xi, ex := range s.Examples {
				if _, err := exampleStmt.Exec(id, si+1, xi+1, ex.English, ex.Icelandic); err != nil {
					return fmt.Errorf("store: insert example for %q: %w", e.Headword, err)
				}
			}
		}
		for ri, target := range e.CrossRefs {
			if _, err := refStmt.Exec(id, ri+1, target); err != nil {
				return fmt.Errorf("store: insert crossref for %q: %w", e.Headword, err)
			}
		}
	}
	return nil
}

func insertMetadata(tx *sql.Tx, entries []models.DictionaryEntry, meta map[string]string) error {
	additions := 0
	for i := range entries {
		if entries[i].IsAddition() {
			additions++
		}
	}

	all := map[string]string{
		MetaEntryCount:    strconv.Itoa(len(entries)),
		MetaAdditionCount: strconv.Itoa(additions),
	}
	for k, v := range meta {
		all[k] = v
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stmt, err := tx.Prepare(`INSERT INTO metadata (key, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare metadata insert: %w", err)
	}
	defer stmt.Close()
	for _, k := range keys {
		if _, err := stmt.Exec(k, all[k]); err != nil {
			return fmt.Errorf("store: insert metadata %q: %w", k, err)
		}
	}
	return nil
}

func joinCategories(cats []models.WordCategory) string {
	ss := make([]string, len(cats))
	for i, c := range cats {
		ss[i] = string(c)
	}
	return strings.Join(ss, " ")
}

func splitCategories(s string) []models.WordCategory {
	if s == "" {
		return nil
	}
	parts := strings.Fields(s)
	out := make([]models.WordCategory, len(parts))
	for i, p := range parts {
		out[i] = models.WordCategory(p)
	}
	return out
}

func boxString(b *models.BoundingBox) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%d,%d,%d,%d", b.X0, b.Y0, b.X1, b.Y1)
}

func parseBox(s string) *models.BoundingBox {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil
	}
	var coords [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		coords[i] = n
	}
	return &models.BoundingBox{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]}
}
