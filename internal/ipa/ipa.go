// Package ipa provides phonetic transcription lookup for dictionary
// headwords, backed by per-language word→IPA tables stored as JSON.
package ipa

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Lang selects a pronunciation table.
type Lang string

const (
	UK Lang = "uk"
	US Lang = "us"
)

// Table maps lowercase-or-as-written English words to IPA strings,
// e.g. "cat" → "/kæt/".
type Table struct {
	lang  Lang
	words map[string]string
}

// LoadTable reads a JSON object of word→IPA pairs from path.
func LoadTable(lang Lang, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ipa: read table: %w", err)
	}
	var words map[string]string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("ipa: parse table %s: %w", path, err)
	}
	return &Table{lang: lang, words: words}, nil
}

// NewTable wraps an in-memory word map.
func NewTable(lang Lang, words map[string]string) *Table {
	return &Table{lang: lang, words: words}
}

// Lang returns the table's language variant.
func (t *Table) Lang() Lang { return t.lang }

// Len returns the number of words in the table.
func (t *Table) Len() int { return len(t.words) }

// Lookup returns the IPA transcription for a headword, or "" when the
// table has none. Multi-word headwords are assembled word by word; if
// any constituent word is missing the whole lookup is empty rather than
// partial.
func (t *Table) Lookup(word string) string {
	if t == nil {
		return ""
	}
	if ipa, ok := t.words[word]; ok {
		return ipa
	}
	if !strings.Contains(word, " ") {
		return ""
	}

	parts := strings.Fields(word)
	assembled := make([]string, 0, len(parts))
	for _, w := range parts {
		ipa := t.lookupSingle(w)
		if ipa == "" {
			return ""
		}
		assembled = append(assembled, strings.Trim(ipa, "/"))
	}
	return "/" + strings.Join(assembled, " ") + "/"
}

// lookupSingle tries the word as written, then lowercase, then
// capitalized.
func (t *Table) lookupSingle(w string) string {
	if ipa, ok := t.words[w]; ok {
		return ipa
	}
	if ipa, ok := t.words[strings.ToLower(w)]; ok {
		return ipa
	}
	if ipa, ok := t.words[capitalize(w)]; ok {
		return ipa
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
