package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/sveinbjornt/ensk.is/internal/models"
)

func entry(word string, cat models.WordCategory, senses ...string) models.DictionaryEntry {
	e := models.DictionaryEntry{
		Headword:   word,
		Categories: []models.WordCategory{cat},
		Source:     models.Location{File: "test.txt", Line: 1},
	}
	for _, s := range senses {
		e.Senses = append(e.Senses, models.Sense{Category: cat, Text: s})
	}
	return e
}

func violations(t *testing.T, err error) Violations {
	t.Helper()
	if err == nil {
		t.Fatal("expected violations")
	}
	var vs Violations
	if !errors.As(err, &vs) {
		t.Fatalf("error is not Violations: %v", err)
	}
	return vs
}

func countRule(vs Violations, r Rule) int {
	n := 0
	for _, v := range vs {
		if v.Rule == r {
			n++
		}
	}
	return n
}

func TestCorpus_Clean(t *testing.T) {
	entries := []models.DictionaryEntry{
		entry("cat", models.CatNoun, "köttur"),
		entry("dog", models.CatNoun, "hundur"),
	}
	if err := Corpus(entries); err != nil {
		t.Fatalf("clean corpus reported: %v", err)
	}
}

func TestCorpus_DuplicateReportedExactlyOnce(t *testing.T) {
	entries := []models.DictionaryEntry{
		entry("cat", models.CatNoun, "köttur"),
		entry("cat", models.CatNoun, "köttur"),
	}
	vs := violations(t, Corpus(entries))
	if got := countRule(vs, RuleDuplicateEntry); got != 1 {
		t.Errorf("duplicate violations = %d, want 1", got)
	}
	// An identical duplicate must not also be flagged as a homograph
	// clash.
	if got := countRule(vs, RuleHomographClash); got != 0 {
		t.Errorf("homograph violations = %d, want 0", got)
	}
}

func TestCorpus_TripleDuplicateStillOneViolation(t *testing.T) {
	entries := []models.DictionaryEntry{
		entry("cat", models.CatNoun, "köttur"),
		entry("cat", models.CatNoun, "köttur"),
		entry("cat", models.CatNoun, "köttur"),
	}
	vs := violations(t, Corpus(entries))
	if got := countRule(vs, RuleDuplicateEntry); got != 1 {
		t.Errorf("duplicate violations = %d, want 1", got)
	}
}

func TestCorpus_HomographsWithDistinctIndexesPass(t *testing.T) {
	a := entry("bear", models.CatNoun, "björn")
	a.Homograph = 1
	b := entry("bear", models.CatVerb, "bera")
	b.Homograph = 2
	if err := Corpus([]models.DictionaryEntry{a, b}); err != nil {
		t.Fatalf("distinct homographs reported: %v", err)
	}
}

func TestCorpus_HomographClash(t *testing.T) {
	a := entry("bear", models.CatNoun, "björn")
	b := entry("bear", models.CatVerb, "bera")
	vs := violations(t, Corpus([]models.DictionaryEntry{a, b}))
	if got := countRule(vs, RuleHomographClash); got != 1 {
		t.Errorf("homograph violations = %d, want 1: %v", got, vs)
	}
}

func TestCorpus_DanglingReference(t *testing.T) {
	e := entry("feline", models.CatAdjective, "kattarlegur, sjá %[cat]%")
	e.CrossRefs = []string{"cat"}
	vs := violations(t, Corpus([]models.DictionaryEntry{e}))
	if got := countRule(vs, RuleDanglingReference); got != 1 {
		t.Errorf("dangling violations = %d, want 1: %v", got, vs)
	}
	// Resolves once the target exists.
	target := entry("cat", models.CatNoun, "köttur")
	if err := Corpus([]models.DictionaryEntry{e, target}); err != nil {
		t.Fatalf("resolved reference reported: %v", err)
	}
}

func TestCorpus_EmptyDefinition(t *testing.T) {
	e := models.DictionaryEntry{
		Headword:   "ghost",
		Categories: []models.WordCategory{models.CatNoun},
		Source:     models.Location{File: "test.txt", Line: 5},
	}
	vs := violations(t, Corpus([]models.DictionaryEntry{e}))
	if got := countRule(vs, RuleEmptyDefinition); got != 1 {
		t.Errorf("empty-definition violations = %d, want 1", got)
	}
}

func TestCorpus_AdjectiveForm(t *testing.T) {
	bad := entry("hAppy", models.CatAdjective, "glaður")
	vs := violations(t, Corpus([]models.DictionaryEntry{bad}))
	if got := countRule(vs, RuleAdjectiveForm); got != 1 {
		t.Errorf("adjective violations = %d, want 1: %v", got, vs)
	}

	alternates := entry("glad/happy", models.CatAdjective, "glaður")
	vs = violations(t, Corpus([]models.DictionaryEntry{alternates}))
	if got := countRule(vs, RuleAdjectiveForm); got != 1 {
		t.Errorf("alternate-form violations = %d, want 1: %v", got, vs)
	}

	// Proper-noun adjectives keep their capital letter.
	for _, w := range []string{"Polish", "Icelandic", "Old Norse"} {
		if err := Corpus([]models.DictionaryEntry{entry(w, models.CatAdjective, "pólskur")}); err != nil {
			t.Errorf("title-case adjective %q reported: %v", w, err)
		}
	}

	// Uppercase nouns are fine; the rule is scoped to adjectives.
	noun := entry("Iceland", models.CatNoun, "Ísland")
	if err := Corpus([]models.DictionaryEntry{noun}); err != nil {
		t.Fatalf("capitalized noun reported: %v", err)
	}
}

func TestCorpus_CategoryMismatch(t *testing.T) {
	e := entry("run", models.CatVerb, "hlaupa")
	e.Senses = append(e.Senses, models.Sense{Category: models.CatNoun, Text: "hlaup"})
	vs := violations(t, Corpus([]models.DictionaryEntry{e}))
	if got := countRule(vs, RuleCategoryMismatch); got != 1 {
		t.Errorf("mismatch violations = %d, want 1: %v", got, vs)
	}
}

func TestCorpus_MissingCategory(t *testing.T) {
	e := models.DictionaryEntry{
		Headword: "cat",
		Senses:   []models.Sense{{Text: "köttur"}},
		Source:   models.Location{File: "test.txt", Line: 1},
	}
	vs := violations(t, Corpus([]models.DictionaryEntry{e}))
	if got := countRule(vs, RuleMissingCategory); got != 1 {
		t.Errorf("missing-category violations = %d, want 1: %v", got, vs)
	}
}

func TestCorpus_Hygiene(t *testing.T) {
	e := entry("cat", models.CatNoun, "köttur  [fress")
	vs := violations(t, Corpus([]models.DictionaryEntry{e}))
	if got := countRule(vs, RuleTextHygiene); got != 2 {
		t.Errorf("hygiene violations = %d, want 2 (double space + unbalanced bracket): %v", got, vs)
	}
}

func TestCorpus_InvisibleCharacter(t *testing.T) {
	e := entry("cat", models.CatNoun, "k​öttur")
	vs := violations(t, Corpus([]models.DictionaryEntry{e}))
	if got := countRule(vs, RuleTextHygiene); got != 1 {
		t.Errorf("hygiene violations = %d, want 1: %v", got, vs)
	}
}

func TestViolations_ErrorListsEverything(t *testing.T) {
	entries := []models.DictionaryEntry{
		entry("cat", models.CatNoun, "köttur"),
		entry("cat", models.CatNoun, "köttur"),
		entry("hAppy", models.CatAdjective, "glaður"),
	}
	err := Corpus(entries)
	vs := violations(t, err)
	if len(vs) < 2 {
		t.Fatalf("expected at least 2 violations, got %d", len(vs))
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate-entry") || !strings.Contains(msg, "adjective-form") {
		t.Errorf("error message missing rules: %s", msg)
	}
	if !strings.Contains(msg, "test.txt:1") {
		t.Errorf("error message missing location: %s", msg)
	}
}

func TestCorpus_ViolationOrderDeterministic(t *testing.T) {
	entries := []models.DictionaryEntry{
		entry("cat", models.CatNoun, "köttur"),
		entry("cat", models.CatNoun, "köttur"),
		entry("hAppy", models.CatAdjective, "glaður"),
	}
	first := Corpus(entries).Error()
	for i := 0; i < 5; i++ {
		if got := Corpus(entries).Error(); got != first {
			t.Fatalf("violation order not deterministic:\n%s\nvs\n%s", first, got)
		}
	}
}
