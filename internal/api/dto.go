package api

import "github.com/sveinbjornt/ensk.is/internal/dictservice"

// Item is a single formatted dictionary entry (aliased from the domain
// layer).
type Item = dictservice.Item

// SearchResponse wraps one page of search results.
type SearchResponse = dictservice.Page

// ItemResponse wraps the entries for one headword.
type ItemResponse struct {
	Word  string `json:"word"`
	Items []Item `json:"items"`
}

// SuggestResponse wraps autosuggest completions.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}
