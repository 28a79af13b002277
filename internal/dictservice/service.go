// Package dictservice applies the query policy on top of the store:
// input hygiene, the minimum-length rule, pagination, result
// formatting, and fuzzy suggestions. It also owns hot-reloading the
// reader when a new edition is swapped in.
package dictservice

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/sveinbjornt/ensk.is/internal/apperr"
	"github.com/sveinbjornt/ensk.is/internal/models"
	"github.com/sveinbjornt/ensk.is/internal/store"
)

// Defaults for the query policy.
const (
	DefaultMinQueryLength = 3
	DefaultPageSize       = 30
	DefaultSuggestLimit   = 10

	// maxSuggestDistance bounds the edit distance for fuzzy
	// suggestions.
	maxSuggestDistance = 2
)

// Config tunes the query policy.
type Config struct {
	// MinQueryLength restricts shorter queries to exact matching only.
	MinQueryLength int
	// PageSize is the fixed result page size.
	PageSize int
	// SuggestLimit caps autosuggest results.
	SuggestLimit int
}

func (c *Config) applyDefaults() {
	if c.MinQueryLength <= 0 {
		c.MinQueryLength = DefaultMinQueryLength
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.SuggestLimit <= 0 {
		c.SuggestLimit = DefaultSuggestLimit
	}
}

// Item is a single formatted result.
type Item struct {
	Word       string         `json:"word"`
	Definition string         `json:"def"`
	Categories []string       `json:"categories"`
	Senses     []models.Sense `json:"senses"`
	IPAUK      string         `json:"ipa_uk,omitempty"`
	IPAUS      string         `json:"ipa_us,omitempty"`
	Gender     string         `json:"gender,omitempty"`
	PageNum    int            `json:"page_num"`
	CrossRefs  []string       `json:"cross_refs,omitempty"`
}

// Page is one page of search results. Total counts every match, not
// just this page.
type Page struct {
	Results []Item `json:"results"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Exact   bool   `json:"exact"`
}

// Service answers dictionary queries. Safe for concurrent use; the
// reader swap on Reload is guarded, everything else is read-only.
type Service struct {
	cfg Config

	mu    sync.RWMutex
	rd    *store.Reader
	words []string
}

// New wraps an open store reader. The headword list is cached for
// fuzzy suggestions.
func New(rd *store.Reader, cfg Config) (*Service, error) {
	cfg.applyDefaults()
	words, err := rd.AllWords()
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, rd: rd, words: words}, nil
}

// Reload reopens the store at the same path and swaps it in. Requests
// in flight keep using the old reader until they finish.
func (s *Service) Reload() error {
	s.mu.RLock()
	path := s.rd.Path()
	s.mu.RUnlock()

	rd, err := store.Open(path)
	if err != nil {
		return err
	}
	words, err := rd.AllWords()
	if err != nil {
		rd.Close()
		return err
	}

	s.mu.Lock()
	old := s.rd
	s.rd = rd
	s.words = words
	s.mu.Unlock()

	return old.Close()
}

// Close closes the current reader.
func (s *Service) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rd.Close()
}

func (s *Service) reader() (*store.Reader, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rd, s.words
}

// Search returns one page of results for a free-text query. Page
// indexes are 1-based; any smaller value means page 1. An empty or
// whitespace-only query yields an empty page, not an error.
func (s *Service) Search(_ context.Context, q string, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	out := &Page{Results: []Item{}, Page: page, PerPage: s.cfg.PageSize}

	q = strings.TrimSpace(q)
	if q == "" {
		return out, nil
	}
	if !utf8.ValidString(q) {
		return nil, apperr.ErrInvalidQuery
	}

	rd, _ := s.reader()
	exactOnly := utf8.RuneCountInString(q) < s.cfg.MinQueryLength
	offset := (page - 1) * s.cfg.PageSize

	entries, total, err := rd.Search(q, exactOnly, s.cfg.PageSize, offset)
	if err != nil {
		return nil, err
	}

	// A fruitless substring search for what looks like an English
	// plural is retried as an exact singular lookup.
	if total == 0 && !exactOnly && strings.HasSuffix(q, "s") {
		singular := q[:len(q)-1]
		entries, total, err = rd.Search(singular, true, s.cfg.PageSize, offset)
		if err != nil {
			return nil, err
		}
		q = singular
	}

	out.Total = total
	for i := range entries {
		item := formatItem(&entries[i])
		out.Results = append(out.Results, item)
		if !out.Exact && strings.EqualFold(entries[i].Headword, q) {
			out.Exact = true
		}
	}
	return out, nil
}

// Lookup returns the formatted entries for an exact headword,
// homographs in index order. apperr.ErrNotFound when the word is not in
// the dictionary.
func (s *Service) Lookup(_ context.Context, word string) ([]Item, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, apperr.ErrNotFound
	}
	if !utf8.ValidString(word) {
		return nil, apperr.ErrInvalidQuery
	}
	rd, _ := s.reader()
	entries, err := rd.Lookup(word)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperr.ErrNotFound
	}
	items := make([]Item, len(entries))
	for i := range entries {
		items[i] = formatItem(&entries[i])
	}
	return items, nil
}

// Suggest returns up to limit completions for a partial query. When
// prefix matching finds nothing, close headwords by edit distance are
// offered instead.
func (s *Service) Suggest(_ context.Context, q string, limit int) ([]string, error) {
	if limit <= 0 || limit > s.cfg.SuggestLimit {
		limit = s.cfg.SuggestLimit
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}, nil
	}
	if !utf8.ValidString(q) {
		return nil, apperr.ErrInvalidQuery
	}

	rd, words := s.reader()
	out, err := rd.Suggest(q, limit)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		return out, nil
	}
	if utf8.RuneCountInString(q) < s.cfg.MinQueryLength {
		return []string{}, nil
	}
	return fuzzy(q, words, limit), nil
}

// Metadata returns the published edition's metadata.
func (s *Service) Metadata(_ context.Context) (map[string]string, error) {
	rd, _ := s.reader()
	return rd.Metadata()
}

// EntryCount returns the number of published entries.
func (s *Service) EntryCount() int {
	_, words := s.reader()
	return len(words)
}

// fuzzy ranks words by edit distance to q, closest and shortest first.
func fuzzy(q string, words []string, limit int) []string {
	type cand struct {
		word string
		dist int
	}
	ql := strings.ToLower(q)
	var cands []cand
	for _, w := range words {
		d := levenshtein.ComputeDistance(ql, strings.ToLower(w))
		if d <= maxSuggestDistance {
			cands = append(cands, cand{w, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		if len(cands[i].word) != len(cands[j].word) {
			return len(cands[i].word) < len(cands[j].word)
		}
		return strings.ToLower(cands[i].word) < strings.ToLower(cands[j].word)
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.word
	}
	return out
}

// formatItem renders an entry for API consumers: the ~ placeholder is
// expanded to the headword and cross-reference markers are unwrapped.
func formatItem(e *models.DictionaryEntry) Item {
	cats := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		cats[i] = string(c)
	}
	senses := make([]models.Sense, len(e.Senses))
	for i, s := range e.Senses {
		s.Text = expand(s.Text, e.Headword)
		for j, ex := range s.Examples {
			s.Examples[j].English = strings.ReplaceAll(ex.English, "~", e.Headword)
		}
		senses[i] = s
	}
	return Item{
		Word:       e.Headword,
		Definition: expand(e.DefinitionText(), e.Headword),
		Categories: cats,
		Senses:     senses,
		IPAUK:      e.IPAUK,
		IPAUS:      e.IPAUS,
		Gender:     e.Gender,
		PageNum:    e.Page.Num,
		CrossRefs:  e.CrossRefs,
	}
}

func expand(text, headword string) string {
	text = strings.ReplaceAll(text, "~", headword)
	text = strings.ReplaceAll(text, "%[", "")
	text = strings.ReplaceAll(text, "]%", "")
	return text
}
