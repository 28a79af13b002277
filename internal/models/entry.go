// Package models defines the domain types for the dictionary.
package models

import (
	"sort"
	"strconv"
	"strings"
)

// WordCategory is a part-of-speech tag as written in the source files.
type WordCategory string

// Word categories used by the dictionary, with the trailing period as
// they appear in source text.
const (
	CatNoun         WordCategory = "n."     // nafnorð
	CatNounPlural   WordCategory = "nft."   // nafnorð í fleirtölu
	CatAdjective    WordCategory = "l."     // lýsingarorð
	CatVerb         WordCategory = "s."     // sagnorð
	CatAdverb       WordCategory = "ao."    // atviksorð
	CatPrefix       WordCategory = "fsk."   // forskeyti
	CatConjunction  WordCategory = "st."    // samtenging
	CatArticle      WordCategory = "gr."    // greinir
	CatPreposition  WordCategory = "fs."    // forsetning
	CatInterjection WordCategory = "uh."    // upphrópun
	CatPronoun      WordCategory = "fn."    // fornafn
	CatShortening   WordCategory = "stytt." // stytting
	CatAbbreviation WordCategory = "sks."   // skammstöfun
)

// Categories lists every known word category in source order.
var Categories = []WordCategory{
	CatNoun, CatNounPlural, CatAdjective, CatVerb, CatAdverb, CatPrefix,
	CatConjunction, CatArticle, CatPreposition, CatInterjection,
	CatPronoun, CatShortening, CatAbbreviation,
}

// CategoryNames maps categories to their human-friendly Icelandic names.
var CategoryNames = map[WordCategory]string{
	CatNoun:         "nafnorð",
	CatNounPlural:   "nafnorð (í fleirtölu)",
	CatAdjective:    "lýsingarorð",
	CatVerb:         "sagnorð",
	CatAdverb:       "atviksorð",
	CatPrefix:       "forskeyti",
	CatConjunction:  "samtenging",
	CatArticle:      "greinir",
	CatPreposition:  "forsetning",
	CatInterjection: "upphrópun",
	CatPronoun:      "fornafn",
	CatShortening:   "stytting",
	CatAbbreviation: "skammstöfun",
}

// KnownCategory reports whether s is a recognized word category tag.
func KnownCategory(s string) bool {
	_, ok := CategoryNames[WordCategory(s)]
	return ok
}

// Example is a usage example attached to a single sense: the English
// phrase (with ~ standing in for the headword) and its Icelandic
// rendering.
type Example struct {
	English   string `json:"en"`
	Icelandic string `json:"is"`
}

// Sense is one translated meaning of a headword. Order among an entry's
// senses is meaningful; the primary sense comes first.
type Sense struct {
	Category WordCategory `json:"category"`
	Text     string       `json:"text"`
	Examples []Example    `json:"examples,omitempty"`
}

// PageRef points at the location of an entry in the original scanned
// dictionary. Num is the page number (0 when the entry is an addition
// absent from the original), Box an optional bounding box on that page.
type PageRef struct {
	Num int          `json:"num"`
	Box *BoundingBox `json:"box,omitempty"`
}

// BoundingBox is a rectangle on a scanned page, in scan pixel
// coordinates.
type BoundingBox struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Location identifies where in the source text an entry (or problem)
// originates.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return l.File + ":" + strconv.Itoa(l.Line)
}

// DictionaryEntry is a fully parsed dictionary record. Entries are
// immutable after the build; the serving path never mutates them.
type DictionaryEntry struct {
	Headword   string         `json:"word"`
	Categories []WordCategory `json:"categories"`
	// Homograph distinguishes intentionally coexisting entries with the
	// same headword (different etymology). Zero means "only entry".
	Homograph int      `json:"homograph,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Senses    []Sense  `json:"senses"`
	IPAUK     string   `json:"ipa_uk,omitempty"`
	IPAUS     string   `json:"ipa_us,omitempty"`
	Page      PageRef  `json:"page"`
	CrossRefs []string `json:"cross_refs,omitempty"`

	Source Location `json:"-"`
}

// Key returns the composite identity used by duplicate and homograph
// checks: headword plus sorted category set plus homograph index.
func (e *DictionaryEntry) Key() string {
	cats := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		cats[i] = string(c)
	}
	sort.Strings(cats)
	return e.Headword + "\x00" + strings.Join(cats, " ") + "\x00" + strconv.Itoa(e.Homograph)
}

// DefinitionText renders the entry's senses as a single plain-text
// definition string: category tags followed by their senses, senses
// separated by semicolons.
func (e *DictionaryEntry) DefinitionText() string {
	var b strings.Builder
	var last WordCategory
	for i, s := range e.Senses {
		if i > 0 {
			b.WriteString("; ")
		}
		if s.Category != last && s.Category != "" {
			b.WriteString(string(s.Category))
			b.WriteString(" ")
			last = s.Category
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// IsAddition reports whether the entry is absent from the original
// scanned dictionary.
func (e *DictionaryEntry) IsAddition() bool {
	return e.Page.Num == 0
}
