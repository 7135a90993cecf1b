package model

import (
	"slices"
	"time"
)

// MaxSnippets is the maximum number of relevant snippets kept per leak record.
const MaxSnippets = 5

// LeakRecord is one fetched source's evidence of a potential data exposure.
type LeakRecord struct {
	// URL is the source the content was fetched from.
	URL string `json:"url"`

	// ContentHash is the fingerprint of the normalized fetched text.
	ContentHash string `json:"content_hash"`

	// DiscoveryTime is when the classifier matched the content.
	DiscoveryTime time.Time `json:"discovery_time"`

	// RelevantSnippets holds up to MaxSnippets paragraphs mentioning both
	// the company and a leak indicator, in document order.
	RelevantSnippets []string `json:"relevant_snippets"`

	// ExtractedInfo is attached to exactly one representative record per scan.
	ExtractedInfo EntityBundle `json:"extracted_info,omitempty"`

	// PreviouslySeen reports that the fingerprint was already recorded for
	// this company by an earlier scan.
	PreviouslySeen bool `json:"previously_seen,omitempty"`

	// FirstSeen is the first time the fingerprint was recorded, if known.
	FirstSeen *time.Time `json:"first_seen,omitempty"`
}

// EntityCategory names a class of extracted entities.
// The string values match the keys of the archived extracted_info object.
type EntityCategory string

// Entity categories.
const (
	CategoryEmail        EntityCategory = "EMAIL"
	CategoryPerson       EntityCategory = "PERSON"
	CategoryOrganization EntityCategory = "ORG"
	CategoryMoney        EntityCategory = "MONEY"
	CategoryLocation     EntityCategory = "GPE"
	CategoryNumeric      EntityCategory = "CARDINAL"
	CategoryPassword     EntityCategory = "POTENTIAL_PASSWORDS"
)

// EntityCategories lists every category in presentation order.
var EntityCategories = []EntityCategory{
	CategoryEmail,
	CategoryPerson,
	CategoryOrganization,
	CategoryMoney,
	CategoryLocation,
	CategoryNumeric,
	CategoryPassword,
}

// EntityBundle maps a category to the distinct values found for it.
// A missing or empty category is valid.
type EntityBundle map[EntityCategory][]string

// NewEntityBundle returns an empty bundle.
func NewEntityBundle() EntityBundle {
	return make(EntityBundle)
}

// Add appends value to the category unless it is empty, already present,
// or the category already holds limit values. A limit <= 0 means unbounded.
// It reports whether the value was added.
func (b EntityBundle) Add(category EntityCategory, value string, limit int) bool {
	if value == "" {
		return false
	}
	values := b[category]
	if limit > 0 && len(values) >= limit {
		return false
	}
	if slices.Contains(values, value) {
		return false
	}
	b[category] = append(values, value)
	return true
}

// IsEmpty reports whether no category holds a value.
func (b EntityBundle) IsEmpty() bool {
	for _, values := range b {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Count returns the total number of values across all categories.
func (b EntityBundle) Count() int {
	n := 0
	for _, values := range b {
		n += len(values)
	}
	return n
}
