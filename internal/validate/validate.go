// Package validate checks a parsed dictionary corpus against the rules
// an entry set must satisfy before it may be published. All violations
// are collected and reported together, so one build attempt surfaces
// everything that needs fixing.
package validate

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sveinbjornt/ensk.is/internal/models"
)

// Rule identifies the violated rule.
type Rule string

const (
	RuleDuplicateEntry    Rule = "duplicate-entry"
	RuleHomographClash    Rule = "homograph-clash"
	RuleDanglingReference Rule = "dangling-reference"
	RuleEmptyDefinition   Rule = "empty-definition"
	RuleMissingCategory   Rule = "missing-category"
	RuleCategoryMismatch  Rule = "category-mismatch"
	RuleAdjectiveForm     Rule = "adjective-form"
	RuleHeadwordForm      Rule = "headword-form"
	RuleTextHygiene       Rule = "text-hygiene"
)

// Violation is a single broken rule, tied to the offending entry's
// source location.
type Violation struct {
	Rule     Rule
	Headword string
	Loc      models.Location
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s | %s | %s: %s", v.Loc, v.Rule, v.Headword, v.Message)
}

// Violations is the complete list of broken rules for a corpus. It is
// an error so the build pipeline can abort on it directly.
type Violations []Violation

func (vs Violations) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d violation(s):", len(vs))
	for _, v := range vs {
		b.WriteString("\n  ")
		b.WriteString(v.String())
	}
	return b.String()
}

// invisible characters that must never appear in source text.
var invisibleChars = []rune{
	'​',      // zero-width space
	'‌',      // zero-width non-joiner
	'‍',      // zero-width joiner
	'⁠',      // word joiner
	'\uFEFF', // zero-width no-break space
	'­',      // soft hyphen
}

// Corpus validates the full entry set. A nil return means the corpus is
// clean; otherwise the returned error is a Violations list with every
// problem found, in deterministic order.
func Corpus(entries []models.DictionaryEntry) error {
	var vs Violations

	vs = append(vs, checkEntries(entries)...)
	vs = append(vs, checkDuplicates(entries)...)
	vs = append(vs, checkHomographs(entries)...)
	vs = append(vs, checkReferences(entries)...)

	if len(vs) == 0 {
		return nil
	}
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Loc.File != vs[j].Loc.File {
			return vs[i].Loc.File < vs[j].Loc.File
		}
		if vs[i].Loc.Line != vs[j].Loc.Line {
			return vs[i].Loc.Line < vs[j].Loc.Line
		}
		return vs[i].Rule < vs[j].Rule
	})
	return vs
}

// checkEntries applies the intra-entry rules to every entry.
func checkEntries(entries []models.DictionaryEntry) []Violation {
	var vs []Violation
	for i := range entries {
		vs = append(vs, Entry(&entries[i])...)
	}
	return vs
}

// Entry applies the intra-entry rules to a single entry.
func Entry(e *models.DictionaryEntry) []Violation {
	var vs []Violation

	report := func(rule Rule, format string, args ...any) {
		vs = append(vs, Violation{
			Rule:     rule,
			Headword: e.Headword,
			Loc:      e.Source,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if err := fieldRules(e); err != nil {
		report(RuleHeadwordForm, "%v", err)
	}
	if len(e.Senses) == 0 {
		report(RuleEmptyDefinition, "entry has no senses")
	}

	declared := make(map[models.WordCategory]bool, len(e.Categories))
	for _, c := range e.Categories {
		declared[c] = true
	}
	for i, s := range e.Senses {
		if s.Category == "" {
			report(RuleMissingCategory, "sense %d has no word category", i+1)
		} else if len(declared) > 0 && !declared[s.Category] {
			report(RuleCategoryMismatch, "sense %d uses %q, not among declared categories", i+1, s.Category)
		}
	}

	if declared[models.CatAdjective] {
		vs = append(vs, adjectiveRules(e)...)
	}

	vs = append(vs, hygiene(e)...)
	return vs
}

// fieldRules covers the simple field-shape invariants.
func fieldRules(e *models.DictionaryEntry) error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Headword,
			validation.Required.Error("headword must not be empty"),
			validation.By(trimmedHeadword),
		),
		validation.Field(&e.Homograph, validation.Min(0)),
	)
}

func trimmedHeadword(value any) error {
	s, _ := value.(string)
	if s != strings.TrimSpace(s) {
		return fmt.Errorf("headword has surrounding whitespace")
	}
	return nil
}

// adjectiveRules enforces the canonical grammatical form for entries
// carrying the adjective category: lowercase headword with no alternate
// forms crammed into it. Title-case words are exempt so proper-noun
// adjectives ("Polish", "Icelandic") remain ordinary entries.
func adjectiveRules(e *models.DictionaryEntry) []Violation {
	var vs []Violation
	report := func(format string, args ...any) {
		vs = append(vs, Violation{
			Rule:     RuleAdjectiveForm,
			Headword: e.Headword,
			Loc:      e.Source,
			Message:  fmt.Sprintf(format, args...),
		})
	}
words:
	for _, w := range strings.FieldsFunc(e.Headword, func(r rune) bool {
		return r == ' ' || r == '-'
	}) {
		for i, r := range w {
			if i > 0 && unicode.IsUpper(r) {
				report("adjective headword must be lowercase or title case")
				break words
			}
		}
	}
	if strings.ContainsAny(e.Headword, "/|") {
		report("adjective headword must be a single canonical form")
	}
	return vs
}

// hygiene covers the text-level checks the source files must pass:
// spacing, balanced brackets, paired cross-reference markers, and no
// invisible characters.
func hygiene(e *models.DictionaryEntry) []Violation {
	var vs []Violation
	report := func(format string, args ...any) {
		vs = append(vs, Violation{
			Rule:     RuleTextHygiene,
			Headword: e.Headword,
			Loc:      e.Source,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	check := func(what, s string) {
		if strings.Contains(s, "  ") {
			report("double space in %s", what)
		}
		if strings.Contains(s, "\t") {
			report("tab character in %s", what)
		}
		if strings.Count(s, "[") != strings.Count(s, "]") {
			report("unbalanced square brackets in %s", what)
		}
		if strings.Count(s, "(") != strings.Count(s, ")") {
			report("unbalanced parentheses in %s", what)
		}
		if strings.Count(s, "%")%2 != 0 {
			report("unpaired %% marker in %s", what)
		}
		for _, c := range invisibleChars {
			if strings.ContainsRune(s, c) {
				report("invisible character %U in %s", c, what)
			}
		}
	}

	check("headword", e.Headword)
	for i, s := range e.Senses {
		check(fmt.Sprintf("sense %d", i+1), s.Text)
	}
	return vs
}

// checkDuplicates reports byte-identical entries: same headword,
// categories, homograph index and rendered definition. Exactly one
// violation is reported per duplicate group.
func checkDuplicates(entries []models.DictionaryEntry) []Violation {
	var vs []Violation
	seen := make(map[string]*models.DictionaryEntry, len(entries))
	reported := make(map[string]bool)
	for i := range entries {
		e := &entries[i]
		k := e.Key() + "\x00" + e.DefinitionText()
		if first, ok := seen[k]; ok {
			if !reported[k] {
				vs = append(vs, Violation{
					Rule:     RuleDuplicateEntry,
					Headword: e.Headword,
					Loc:      e.Source,
					Message:  fmt.Sprintf("identical to entry at %s", first.Source),
				})
				reported[k] = true
			}
			continue
		}
		seen[k] = e
	}
	return vs
}

// checkHomographs enforces the homograph policy: entries sharing a
// headword must carry distinct homograph indexes. Byte-identical
// duplicates are excluded here; checkDuplicates already covers them.
func checkHomographs(entries []models.DictionaryEntry) []Violation {
	type slot struct {
		entry *models.DictionaryEntry
		body  string
	}
	byWord := make(map[string][]slot)
	for i := range entries {
		e := &entries[i]
		byWord[e.Headword] = append(byWord[e.Headword], slot{e, e.Key() + "\x00" + e.DefinitionText()})
	}

	var vs []Violation
	words := make([]string, 0, len(byWord))
	for w := range byWord {
		words = append(words, w)
	}
	sort.Strings(words)

	for _, w := range words {
		group := byWord[w]
		if len(group) < 2 {
			continue
		}
		indexes := make(map[int]*models.DictionaryEntry)
		dupBodies := make(map[string]bool)
		for _, s := range group {
			if dupBodies[s.body] {
				continue // byte-identical duplicate, reported elsewhere
			}
			dupBodies[s.body] = true
			if prev, clash := indexes[s.entry.Homograph]; clash {
				vs = append(vs, Violation{
					Rule:     RuleHomographClash,
					Headword: w,
					Loc:      s.entry.Source,
					Message: fmt.Sprintf("shares homograph index %d with entry at %s; give each homograph a distinct index",
						s.entry.Homograph, prev.Source),
				})
				continue
			}
			indexes[s.entry.Homograph] = s.entry
		}
	}
	return vs
}

// checkReferences resolves every cross-reference against the corpus
// headword set. A dangling reference is a hard failure.
func checkReferences(entries []models.DictionaryEntry) []Violation {
	words := make(map[string]bool, len(entries))
	for i := range entries {
		words[entries[i].Headword] = true
	}
	var vs []Violation
	for i := range entries {
		e := &entries[i]
		for _, target := range e.CrossRefs {
			if !words[target] {
				vs = append(vs, Violation{
					Rule:     RuleDanglingReference,
					Headword: e.Headword,
					Loc:      e.Source,
					Message:  fmt.Sprintf("cross-reference to non-existent entry %q", target),
				})
			}
		}
	}
	return vs
}
