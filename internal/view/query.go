package view

import (
	"errors"
	"fmt"
	"strings"
)

type SortKey string

const (
	SortInsertion SortKey = ""
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortName      SortKey = "name"
)

var ErrUnknownSortKey = errors.New("unknown sort key")

// ParseSortKey accepts the empty key (insertion order) and the three named
// orders. Surrounding whitespace is ignored.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(raw)); k {
	case SortInsertion, SortPriceLow, SortPriceHigh, SortName:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, raw)
	}
}

func (k SortKey) Label() string {
	switch k {
	case SortPriceLow:
		return "Price: Low to High"
	case SortPriceHigh:
		return "Price: High to Low"
	case SortName:
		return "Name"
	default:
		return "Default"
	}
}

// SortKeys lists the supported orders in menu order.
func SortKeys() []SortKey {
	return []SortKey{SortInsertion, SortPriceLow, SortPriceHigh, SortName}
}

// Query is the full view state. All three criteria are applied together, so
// changing one never discards the others.
type Query struct {
	Search   string  `json:"search,omitempty"`
	Category string  `json:"category,omitempty"`
	Sort     SortKey `json:"sort,omitempty"`
}

// Filtered reports whether the query narrows the set.
func (q Query) Filtered() bool {
	return q.Search != "" || q.Category != ""
}

func (q Query) WithSearch(term string) Query {
	q.Search = term
	return q
}

func (q Query) WithCategory(category string) Query {
	q.Category = category
	return q
}

func (q Query) WithSort(key SortKey) Query {
	q.Sort = key
	return q
}
