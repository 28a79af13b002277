// Package dictparse reads plain-text dictionary source files and turns
// them into DictionaryEntry records.
//
// The source grammar is line-oriented. A non-indented line starts an
// entry and is its headword. Indented lines belong to the current
// entry: "key: value" lines with a known key are metadata, "ex:" lines
// attach a usage example to the most recent sense, and everything else
// is a definition line holding one or more senses separated by
// semicolons. A blank line inside an entry separates sense groups; the
// entry ends at the next non-indented line or end of file. Lines
// starting with '#' are comments. A definition line ending with a
// trailing backslash continues on the next line.
package dictparse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sveinbjornt/ensk.is/internal/models"
)

// Metadata tags recognized inside an entry block.
const (
	tagPos       = "pos"
	tagIPAUK     = "ipa-uk"
	tagIPAUS     = "ipa-us"
	tagGender    = "gender"
	tagHomograph = "homograph"
	tagPage      = "page"
	tagExample   = "ex"
)

var crossRefRe = regexp.MustCompile(`%\[(.+?)\]%`)

// ParseError is a malformed source line. It is fatal to the build and
// carries the exact source location.
type ParseError struct {
	Loc models.Location
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

func errAt(file string, line int, format string, args ...any) error {
	return &ParseError{
		Loc: models.Location{File: file, Line: line},
		Msg: fmt.Sprintf(format, args...),
	}
}

// Dir parses every .txt file in dir in sorted filename order and
// returns the combined entry list. The additions file is just another
// source file in the directory. Parsing stops at the first malformed
// line.
func Dir(dir string) ([]models.DictionaryEntry, error) {
	names, err := sourceFiles(dir)
	if err != nil {
		return nil, err
	}
	var entries []models.DictionaryEntry
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("dictparse: open source: %w", err)
		}
		parsed, err := File(name, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		entries = append(entries, parsed...)
	}
	return entries, nil
}

// sourceFiles returns the sorted .txt file names in dir.
func sourceFiles(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dictparse: read source dir: %w", err)
	}
	var names []string
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".txt") {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names, nil
}

// File parses a single source file. The name is used in error
// locations only.
func File(name string, r io.Reader) ([]models.DictionaryEntry, error) {
	p := &fileParser{file: name}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.lineNum++
		line := sc.Text()
		if p.lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if err := p.feed(line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dictparse: read %s: %w", name, err)
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.entries, nil
}

// fileParser holds per-file parse state. No state crosses files;
// cross-reference resolution is deferred to the validator.
type fileParser struct {
	file    string
	lineNum int
	entries []models.DictionaryEntry

	cur      *models.DictionaryEntry
	curLine  int  // line the current entry started on
	sawSense bool // a definition line has been seen for cur
	pending  string
	pendLine int // line the pending continuation started on
}

func (p *fileParser) feed(line string) error {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "#") {
		return nil
	}

	// A pending continuation consumes the next line regardless of
	// indentation.
	if p.pending != "" {
		return p.continueDefinition(trimmed)
	}

	if trimmed == "" {
		// Blank lines between entries are ignored; inside an entry they
		// separate sense groups but never end the entry.
		return nil
	}

	indented := line[0] == ' ' || line[0] == '\t'
	if !indented {
		if err := p.closeEntry(); err != nil {
			return err
		}
		return p.startEntry(trimmed)
	}

	if p.cur == nil {
		return errAt(p.file, p.lineNum, "indented line outside an entry: %q", trimmed)
	}
	return p.entryLine(trimmed)
}

func (p *fileParser) startEntry(headword string) error {
	if strings.Contains(headword, "  ") {
		return errAt(p.file, p.lineNum, "double space in headword: %q", headword)
	}
	p.cur = &models.DictionaryEntry{
		Headword: headword,
		Source:   models.Location{File: p.file, Line: p.lineNum},
	}
	p.curLine = p.lineNum
	p.sawSense = false
	return nil
}

func (p *fileParser) entryLine(trimmed string) error {
	if key, val, ok := splitTag(trimmed); ok {
		if key == tagExample {
			return p.addExample(val)
		}
		return p.setMetadata(key, val)
	}
	if strings.Contains(trimmed, ":") && looksLikeTag(trimmed) {
		key, _, _ := strings.Cut(trimmed, ":")
		return errAt(p.file, p.lineNum, "unrecognized tag %q", strings.TrimSpace(key))
	}
	return p.definitionLine(trimmed)
}

// splitTag splits "key: value" when key is a recognized tag.
func splitTag(s string) (key, val string, ok bool) {
	before, after, found := strings.Cut(s, ":")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(before)
	switch key {
	case tagPos, tagIPAUK, tagIPAUS, tagGender, tagHomograph, tagPage, tagExample:
		return key, strings.TrimSpace(after), true
	}
	return "", "", false
}

// looksLikeTag reports whether a line has the shape of a metadata tag
// (single lowercase word before the colon). Definition text routinely
// contains colons too, so the check is deliberately narrow.
func looksLikeTag(s string) bool {
	before, _, found := strings.Cut(s, ":")
	if !found {
		return false
	}
	word := strings.TrimSpace(before)
	if word == "" || strings.ContainsAny(word, " \t") {
		return false
	}
	for _, r := range word {
		if r < 'a' || r > 'z' {
			if r != '-' {
				return false
			}
		}
	}
	return true
}

func (p *fileParser) setMetadata(key, val string) error {
	if p.sawSense {
		return errAt(p.file, p.lineNum, "metadata tag %q after definition lines", key)
	}
	if val == "" {
		return errAt(p.file, p.lineNum, "empty value for tag %q", key)
	}
	e := p.cur
	switch key {
	case tagPos:
		for _, c := range strings.Split(val, ",") {
			c = strings.TrimSpace(c)
			if !models.KnownCategory(c) {
				return errAt(p.file, p.lineNum, "unknown word category %q", c)
			}
			e.Categories = append(e.Categories, models.WordCategory(c))
		}
	case tagIPAUK:
		e.IPAUK = val
	case tagIPAUS:
		e.IPAUS = val
	case tagGender:
		e.Gender = val
	case tagHomograph:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return errAt(p.file, p.lineNum, "homograph must be a positive integer, got %q", val)
		}
		e.Homograph = n
	case tagPage:
		return p.setPage(val)
	}
	return nil
}

// setPage parses "N" or "N x0,y0,x1,y1".
func (p *fileParser) setPage(val string) error {
	numStr, boxStr, hasBox := strings.Cut(val, " ")
	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 {
		return errAt(p.file, p.lineNum, "page must be a positive integer, got %q", numStr)
	}
	p.cur.Page.Num = n
	if !hasBox {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(boxStr), ",")
	if len(parts) != 4 {
		return errAt(p.file, p.lineNum, "page bounding box needs 4 coordinates, got %q", boxStr)
	}
	var coords [4]int
	for i, s := range parts {
		c, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || c < 0 {
			return errAt(p.file, p.lineNum, "bad bounding box coordinate %q", s)
		}
		coords[i] = c
	}
	p.cur.Page.Box = &models.BoundingBox{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]}
	return nil
}

func (p *fileParser) definitionLine(trimmed string) error {
	if strings.HasSuffix(trimmed, "\\") {
		p.pending = strings.TrimSpace(strings.TrimSuffix(trimmed, "\\"))
		p.pendLine = p.lineNum
		return nil
	}
	return p.addSenses(trimmed, p.lineNum)
}

func (p *fileParser) continueDefinition(trimmed string) error {
	if trimmed == "" {
		return errAt(p.file, p.lineNum, "continuation line is empty")
	}
	joined := p.pending + " " + strings.TrimSuffix(trimmed, "\\")
	if strings.HasSuffix(trimmed, "\\") {
		p.pending = strings.TrimSpace(joined)
		return nil
	}
	line, start := strings.TrimSpace(joined), p.pendLine
	p.pending = ""
	return p.addSenses(line, start)
}

// addSenses splits a definition line into senses. A sense may begin
// with a word category tag; later senses inherit the category of the
// one before them.
func (p *fileParser) addSenses(line string, lineNum int) error {
	cat := p.currentCategory()
	for _, raw := range strings.Split(line, ";") {
		text := strings.TrimSpace(raw)
		if text == "" {
			return errAt(p.file, lineNum, "empty sense in definition line %q", line)
		}
		if c, rest, ok := leadingCategory(text); ok {
			cat = c
			text = rest
			if text == "" {
				return errAt(p.file, lineNum, "category %q with no sense text", c)
			}
		}
		p.cur.Senses = append(p.cur.Senses, models.Sense{
			Category: cat,
			Text:     text,
		})
		p.collectCrossRefs(text)
		if cat != "" && !hasCategory(p.cur.Categories, cat) {
			p.cur.Categories = append(p.cur.Categories, cat)
		}
	}
	p.sawSense = true
	return nil
}

// currentCategory returns the category in effect before a new
// definition line: the last sense's category, or the first declared
// pos, or "".
func (p *fileParser) currentCategory() models.WordCategory {
	if n := len(p.cur.Senses); n > 0 {
		return p.cur.Senses[n-1].Category
	}
	if len(p.cur.Categories) > 0 {
		return p.cur.Categories[0]
	}
	return ""
}

// leadingCategory strips a word category tag from the start of a sense.
func leadingCategory(s string) (models.WordCategory, string, bool) {
	tok, rest, found := strings.Cut(s, " ")
	if !found {
		return "", "", false
	}
	if !models.KnownCategory(tok) {
		return "", "", false
	}
	return models.WordCategory(tok), strings.TrimSpace(rest), true
}

func (p *fileParser) collectCrossRefs(text string) {
	for _, m := range crossRefRe.FindAllStringSubmatch(text, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if !containsString(p.cur.CrossRefs, target) {
			p.cur.CrossRefs = append(p.cur.CrossRefs, target)
		}
	}
}

// addExample attaches "english [icelandic]" to the most recent sense.
func (p *fileParser) addExample(val string) error {
	if len(p.cur.Senses) == 0 {
		return errAt(p.file, p.lineNum, "example before any sense")
	}
	open := strings.LastIndex(val, "[")
	if open < 0 || !strings.HasSuffix(val, "]") {
		return errAt(p.file, p.lineNum, "example must be \"english [icelandic]\", got %q", val)
	}
	en := strings.TrimSpace(val[:open])
	is := strings.TrimSpace(val[open+1 : len(val)-1])
	if en == "" || is == "" {
		return errAt(p.file, p.lineNum, "example must be \"english [icelandic]\", got %q", val)
	}
	last := &p.cur.Senses[len(p.cur.Senses)-1]
	last.Examples = append(last.Examples, models.Example{English: en, Icelandic: is})
	return nil
}

// closeEntry finalizes the current entry, if any.
func (p *fileParser) closeEntry() error {
	if p.cur == nil {
		return nil
	}
	if p.pending != "" {
		return errAt(p.file, p.pendLine, "definition continuation never completed")
	}
	if len(p.cur.Senses) == 0 {
		return errAt(p.file, p.curLine, "entry %q has no definitions", p.cur.Headword)
	}
	p.entries = append(p.entries, *p.cur)
	p.cur = nil
	return nil
}

func (p *fileParser) finish() error {
	if p.pending != "" {
		return errAt(p.file, p.pendLine, "definition continuation never completed")
	}
	return p.closeEntry()
}

func hasCategory(cats []models.WordCategory, c models.WordCategory) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
