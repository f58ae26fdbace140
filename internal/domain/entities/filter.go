package entities

import "fmt"

// SortMode orders the visible directory
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortRating    SortMode = "rating"
	SortPriceAsc  SortMode = "priceAsc"
	SortPriceDesc SortMode = "priceDesc"
)

// ParseSortMode accepts the four known modes; empty means relevance.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case "":
		return SortRelevance, nil
	case SortRelevance, SortRating, SortPriceAsc, SortPriceDesc:
		return m, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// FilterCriteria narrows and orders the directory. Nil price bounds are inactive.
type FilterCriteria struct {
	Specialty    string
	City         string
	MinPriceRON  *float64
	MaxPriceRON  *float64
	OnlyVerified bool
	Sort         SortMode
}

// Equal compares criteria by value, including the pointed-to price bounds.
func (c FilterCriteria) Equal(o FilterCriteria) bool {
	return c.Specialty == o.Specialty &&
		c.City == o.City &&
		equalBound(c.MinPriceRON, o.MinPriceRON) &&
		equalBound(c.MaxPriceRON, o.MaxPriceRON) &&
		c.OnlyVerified == o.OnlyVerified &&
		c.Sort == o.Sort
}

func equalBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// PriceBound returns a pointer suitable for MinPriceRON / MaxPriceRON.
func PriceBound(ron float64) *float64 {
	return &ron
}
