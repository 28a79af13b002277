package models

import "testing"

func TestDefinitionText(t *testing.T) {
	e := DictionaryEntry{
		Headword: "bear",
		Senses: []Sense{
			{Category: CatNoun, Text: "björn"},
			{Category: CatNoun, Text: "bjarndýr"},
			{Category: CatVerb, Text: "bera"},
		},
	}
	want := "n. björn; bjarndýr; s. bera"
	if got := e.DefinitionText(); got != want {
		t.Errorf("DefinitionText() = %q, want %q", got, want)
	}
}

func TestKeyDistinguishesHomographs(t *testing.T) {
	a := DictionaryEntry{Headword: "bear", Categories: []WordCategory{CatNoun}, Homograph: 1}
	b := DictionaryEntry{Headword: "bear", Categories: []WordCategory{CatNoun}, Homograph: 2}
	if a.Key() == b.Key() {
		t.Error("homograph indexes should yield distinct keys")
	}
}

func TestKeyIgnoresCategoryOrder(t *testing.T) {
	a := DictionaryEntry{Headword: "run", Categories: []WordCategory{CatNoun, CatVerb}}
	b := DictionaryEntry{Headword: "run", Categories: []WordCategory{CatVerb, CatNoun}}
	if a.Key() != b.Key() {
		t.Errorf("category order should not affect the key: %q vs %q", a.Key(), b.Key())
	}
}

func TestIsAddition(t *testing.T) {
	e := DictionaryEntry{Headword: "blog"}
	if !e.IsAddition() {
		t.Error("entry without a page should be an addition")
	}
	e.Page.Num = 42
	if e.IsAddition() {
		t.Error("entry with a page is not an addition")
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{File: "a.txt", Line: 7}
	if loc.String() != "a.txt:7" {
		t.Errorf("String() = %q", loc.String())
	}
	if (Location{}).String() != "" {
		t.Error("zero location should render empty")
	}
}

func TestKnownCategory(t *testing.T) {
	if !KnownCategory("n.") {
		t.Error("n. should be known")
	}
	if KnownCategory("xyz.") {
		t.Error("xyz. should be unknown")
	}
}
