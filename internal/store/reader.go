package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sveinbjornt/ensk.is/internal/models"
)

// maxPageSize bounds a single query's result page regardless of what
// the caller asks for.
const maxPageSize = 500

// Reader answers queries against a published store. It is safe for
// unbounded concurrent readers; nothing writes to the store at serving
// time.
type Reader struct {
	conn *sql.DB
	path string
}

// Open opens the store at path read-only.
func Open(path string) (*Reader, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}
	return &Reader{conn: conn, path: path}, nil
}

// Path returns the store file path the reader was opened on.
func (r *Reader) Path() string { return r.path }

// Close closes the underlying connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

const entryColumns = `id, word, categories, homograph, gender, ipa_uk, ipa_us, page_num, page_box`

// Search returns one page of entries matching q plus the total match
// count. Matching is case-insensitive: exact headword matches rank
// first, then prefix, suffix and other substring matches, each group
// ordered by headword length, headword, and store id, so repeated
// identical queries return identical ordering. With exactOnly set, only
// exact headword matches are considered.
func (r *Reader) Search(q string, exactOnly bool, limit, offset int) ([]models.DictionaryEntry, int, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	ql := strings.ToLower(q)

	var (
		total int
		rows  *sql.Rows
		err   error
	)
	if exactOnly {
		if err = r.conn.QueryRow(`SELECT COUNT(*) FROM entries WHERE lower(word) = ?`, ql).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("store: count exact: %w", err)
		}
		rows, err = r.conn.Query(`
			SELECT `+entryColumns+`
			FROM entries
			WHERE lower(word) = ?
			ORDER BY homograph, id
			LIMIT ? OFFSET ?`, ql, limit, offset)
	} else {
		sub := "%" + escapeLike(ql) + "%"
		prefix := escapeLike(ql) + "%"
		suffix := "%" + escapeLike(ql)
		if err = r.conn.QueryRow(`SELECT COUNT(*) FROM entries WHERE lower(word) LIKE ? ESCAPE '\'`, sub).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("store: count: %w", err)
		}
		rows, err = r.conn.Query(`
			SELECT `+entryColumns+`,
			       CASE
			           WHEN lower(word) = ? THEN 0
			           WHEN lower(word) LIKE ? ESCAPE '\' THEN 1
			           WHEN lower(word) LIKE ? ESCAPE '\' THEN 2
			           ELSE 3
			       END AS rank_group
			FROM entries
			WHERE lower(word) LIKE ? ESCAPE '\'
			ORDER BY rank_group, length(word), lower(word), id
			LIMIT ? OFFSET ?`, ql, prefix, suffix, sub, limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	entries, ids, err := scanEntries(rows, !exactOnly)
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadDetails(entries, ids); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Lookup returns every entry whose headword equals word exactly
// (case-insensitive), homographs in index order.
func (r *Reader) Lookup(word string) ([]models.DictionaryEntry, error) {
	entries, _, err := r.Search(word, true, maxPageSize, 0)
	return entries, err
}

// Suggest returns up to limit headwords starting with prefix, shortest
// first.
func (r *Reader) Suggest(prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	like := escapeLike(strings.ToLower(prefix)) + "%"
	rows, err := r.conn.Query(`
		SELECT DISTINCT word FROM entries
		WHERE lower(word) LIKE ? ESCAPE '\'
		ORDER BY length(word), lower(word)
		LIMIT ?`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: suggest: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// AllEntries returns every entry, fully loaded, in store order.
func (r *Reader) AllEntries() ([]models.DictionaryEntry, error) {
	rows, err := r.conn.Query(`SELECT ` + entryColumns + ` FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: all entries: %w", err)
	}
	defer rows.Close()

	entries, ids, err := scanEntries(rows, false)
	if err != nil {
		return nil, err
	}
	if err := r.loadDetails(entries, ids); err != nil {
		return nil, err
	}
	return entries, nil
}

// AllWords returns every headword in store order.
func (r *Reader) AllWords() ([]string, error) {
	rows, err := r.conn.Query(`SELECT word FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: all words: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Metadata returns the edition metadata written at build time.
func (r *Reader) Metadata() (map[string]string, error) {
	rows, err := r.conn.Query(`SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("store: metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// scanEntries reads entry rows; hasRank indicates a trailing rank_group
// column to discard.
func scanEntries(rows *sql.Rows, hasRank bool) ([]models.DictionaryEntry, []int64, error) {
	var entries []models.DictionaryEntry
	var ids []int64
	for rows.Next() {
		var (
			id                 int64
			word, cats, gender string
			ipaUK, ipaUS, boxS string
			homograph, pageNum int
			rankGroup          int
		)
		dest := []any{&id, &word, &cats, &homograph, &gender, &ipaUK, &ipaUS, &pageNum, &boxS}
		if hasRank {
			dest = append(dest, &rankGroup)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("store: scan entry: %w", err)
		}
		entries = append(entries, models.DictionaryEntry{
			Headword:   word,
			Categories: splitCategories(cats),
			Homograph:  homograph,
			Gender:     gender,
			IPAUK:      ipaUK,
			IPAUS:      ipaUS,
			Page:       models.PageRef{Num: pageNum, Box: parseBox(boxS)},
		})
		ids = append(ids, id)
	}
	return entries, ids, rows.Err()
}

// loadDetails fills senses, examples and cross-references for the given
// entries (parallel to ids).
func (r *Reader) loadDetails(entries []models.DictionaryEntry, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	byID := make(map[int64]*models.DictionaryEntry, len(ids))
	for i, id := range ids {
		byID[id] = &entries[i]
	}
	in, args := inClause(ids)

	rows, err := r.conn.Query(`
		SELECT entry_id, seq, category, text FROM senses
		WHERE entry_id IN (`+in+`) ORDER BY entry_id, seq`, args...)
	if err != nil {
		return fmt.Errorf("store: load senses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, seq  int64
			cat, txt string
		)
		if err := rows.Scan(&id, &seq, &cat, &txt); err != nil {
			return err
		}
		e := byID[id]
		e.Senses = append(e.Senses, models.Sense{Category: models.WordCategory(cat), Text: txt})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	exRows, err := r.conn.Query(`
		SELECT entry_id, sense_seq, en, is_text FROM examples
		WHERE entry_id IN (`+in+`) ORDER BY entry_id, sense_seq, seq`, args...)
	if err != nil {
		return fmt.Errorf("store: load examples: %w", err)
	}
	defer exRows.Close()
	for exRows.Next() {
		var (
			id, senseSeq int64
			en, is       string
		)
		if err := exRows.Scan(&id, &senseSeq, &en, &is); err != nil {
			return err
		}
		e := byID[id]
		if si := int(senseSeq) - 1; si >= 0 && si < len(e.Senses) {
			e.Senses[si].Examples = append(e.Senses[si].Examples, models.Example{English: en, Icelandic: is})
		}
	}
	if err := exRows.Err(); err != nil {
		return err
	}

	refRows, err := r.conn.Query(`
		SELECT entry_id, target FROM crossrefs
		WHERE entry_id IN (`+in+`) ORDER BY entry_id, seq`, args...)
	if err != nil {
		return fmt.Errorf("store: load crossrefs: %w", err)
	}
	defer refRows.Close()
	for refRows.Next() {
		var (
			id     int64
			target string
		)
		if err := refRows.Scan(&id, &target); err != nil {
			return err
		}
		byID[id].CrossRefs = append(byID[id].CrossRefs, target)
	}
	return refRows.Err()
}

func inClause(ids []int64) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	return strings.Join(ph, ","), args
}

// escapeLike escapes LIKE metacharacters so user input matches
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
