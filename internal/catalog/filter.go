package catalog

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/drstein77/shopsphere/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// AllCategories is the category wildcard
const AllCategories = "all"

// SortKey selects the order of the visible items
type SortKey string

const (
	SortFeatured        SortKey = "featured"
	SortPriceAscending  SortKey = "price-ascending"
	SortPriceDescending SortKey = "price-descending"
	SortRatingDesc      SortKey = "rating-descending"
)

// ParseSortKey maps a sort token to a SortKey. The short tokens used by the
// storefront UI are accepted as aliases, anything unknown sorts as featured.
func ParseSortKey(s string) SortKey {
	switch s {
	case string(SortPriceAscending), "price-low":
		return SortPriceAscending
	case string(SortPriceDescending), "price-high":
		return SortPriceDescending
	case string(SortRatingDesc), "rating":
		return SortRatingDesc
	default:
		return SortFeatured
	}
}

var (
	defaultMinPrice = decimal.Zero
	defaultMaxPrice = decimal.NewFromInt(1000)
)

// Filter is the user-controlled part of the catalog view
type Filter struct {
	SearchTerm string
	Category   string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	Sort       SortKey
}

// DefaultFilter is the state restored by Reset.
func DefaultFilter() Filter {
	return Filter{
		SearchTerm: "",
		Category:   AllCategories,
		MinPrice:   defaultMinPrice,
		MaxPrice:   defaultMaxPrice,
		Sort:       SortFeatured,
	}
}

// Apply returns the ordered subset of items that pass every predicate of f.
// The input slice is left untouched and the result is never nil.
func Apply(items []models.CatalogItem, f Filter) []models.CatalogItem {
	term := fold(f.SearchTerm)

	result := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if !matchesTerm(item, term) {
			continue
		}
		if f.Category != AllCategories && item.Category != f.Category {
			continue
		}
		if item.Price.LessThan(f.MinPrice) || item.Price.GreaterThan(f.MaxPrice) {
			continue
		}
		result = append(result, item)
	}

	slices.SortStableFunc(result, comparator(f.Sort))
	return result
}

func matchesTerm(item models.CatalogItem, foldedTerm string) bool {
	if foldedTerm == "" {
		return true
	}
	return strings.Contains(fold(item.Name), foldedTerm) ||
		strings.Contains(fold(item.Description), foldedTerm)
}

func comparator(key SortKey) func(a, b models.CatalogItem) int {
	switch key {
	case SortPriceAscending:
		return func(a, b models.CatalogItem) int { return a.Price.Cmp(b.Price) }
	case SortPriceDescending:
		return func(a, b models.CatalogItem) int { return b.Price.Cmp(a.Price) }
	case SortRatingDesc:
		return func(a, b models.CatalogItem) int { return cmp.Compare(b.Rating, a.Rating) }
	default:
		return func(a, b models.CatalogItem) int { return cmp.Compare(a.ID, b.ID) }
	}
}

// fold builds a fresh Caser per call, a Caser keeps internal state
func fold(s string) string {
	return cases.Fold().String(s)
}

// Stars splits a rating into full, half and empty stars out of five.
func Stars(rating float64) (full, half, empty int) {
	rating = math.Max(0, math.Min(5, rating))
	full = int(math.Floor(rating))
	if full < 5 && rating-float64(full) >= 0.5 {
		half = 1
	}
	empty = 5 - full - half
	return full, half, empty
}
