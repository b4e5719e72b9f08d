package catalog_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/drstein77/shopsphere/internal/catalog"
	"github.com/drstein77/shopsphere/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	items := []models.CatalogItem{
		item(1, "10", "a", 4.0),
		item(2, "50", "b", 4.8),
	}

	tests := []struct {
		name    string
		items   []models.CatalogItem
		filter  func(f *catalog.Filter)
		wantIDs []int64
	}{
		{
			name:    "price descending: ok",
			items:   items,
			filter:  func(f *catalog.Filter) { f.MaxPrice = decimal.NewFromInt(100); f.Sort = catalog.SortPriceDescending },
			wantIDs: []int64{2, 1},
		},
		{
			name:    "featured sorts by id",
			items:   []models.CatalogItem{items[1], items[0]},
			filter:  func(f *catalog.Filter) {},
			wantIDs: []int64{1, 2},
		},
		{
			name:    "category filter",
			items:   items,
			filter:  func(f *catalog.Filter) { f.Category = "b" },
			wantIDs: []int64{2},
		},
		{
			name:    "price range is inclusive",
			items:   items,
			filter:  func(f *catalog.Filter) { f.MinPrice = decimal.NewFromInt(10); f.MaxPrice = decimal.NewFromInt(10) },
			wantIDs: []int64{1},
		},
		{
			name:    "rating descending",
			items:   items,
			filter:  func(f *catalog.Filter) { f.Sort = catalog.SortRatingDesc },
			wantIDs: []int64{2, 1},
		},
		{
			name:    "empty collection",
			items:   nil,
			filter:  func(f *catalog.Filter) { f.SearchTerm = "anything" },
			wantIDs: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := catalog.DefaultFilter()
			tt.filter(&f)

			got := catalog.Apply(tt.items, f)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	items := []models.CatalogItem{
		{ID: 1, Name: "Smart Home Speaker", Description: "voice controlled", Category: "electronics", Price: decimal.NewFromInt(90)},
		{ID: 2, Name: "Mug Set", Description: "Handmade CERAMIC mugs", Category: "home", Price: decimal.NewFromInt(30)},
		{ID: 3, Name: "T-Shirt", Description: "organic cotton", Category: "clothing", Price: decimal.NewFromInt(35)},
	}

	tests := []struct {
		term    string
		wantIDs []int64
	}{
		{term: "SPEAKER", wantIDs: []int64{1}},
		{term: "ceramic", wantIDs: []int64{2}},
		{term: "t", wantIDs: []int64{1, 2, 3}},
		{term: "nothing matches", wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			f := catalog.DefaultFilter()
			f.SearchTerm = tt.term
			assert.Equal(t, tt.wantIDs, ids(catalog.Apply(items, f)))
		})
	}
}

func TestApplyIsStable(t *testing.T) {
	// equal prices and ratings, ids deliberately out of order
	items := []models.CatalogItem{
		item(5, "20", "a", 4.0),
		item(3, "20", "a", 4.0),
		item(9, "20", "a", 4.0),
		item(1, "5", "a", 5.0),
	}

	for _, key := range []catalog.SortKey{catalog.SortPriceAscending, catalog.SortPriceDescending, catalog.SortRatingDesc} {
		t.Run(string(key), func(t *testing.T) {
			f := catalog.DefaultFilter()
			f.Sort = key

			var tied []int64
			for _, it := range catalog.Apply(items, f) {
				if it.ID != 1 {
					tied = append(tied, it.ID)
				}
			}
			assert.Equal(t, []int64{5, 3, 9}, tied)
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	items := randomItems(50)

	for _, key := range []catalog.SortKey{catalog.SortFeatured, catalog.SortPriceAscending, catalog.SortPriceDescending, catalog.SortRatingDesc} {
		t.Run(string(key), func(t *testing.T) {
			f := catalog.DefaultFilter()
			f.Sort = key
			f.MaxPrice = decimal.NewFromInt(500)

			once := catalog.Apply(items, f)
			twice := catalog.Apply(once, f)

			assert.Empty(t, cmp.Diff(ids(once), ids(twice)))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	items := []models.CatalogItem{item(2, "1", "a", 1), item(1, "2", "a", 2)}
	f := catalog.DefaultFilter()

	_ = catalog.Apply(items, f)
	assert.Equal(t, []int64{2, 1}, ids(items))
}

func TestParseSortKey(t *testing.T) {
	tests := map[string]catalog.SortKey{
		"price-low":         catalog.SortPriceAscending,
		"price-ascending":   catalog.SortPriceAscending,
		"price-high":        catalog.SortPriceDescending,
		"price-descending":  catalog.SortPriceDescending,
		"rating":            catalog.SortRatingDesc,
		"rating-descending": catalog.SortRatingDesc,
		"featured":          catalog.SortFeatured,
		"":                  catalog.SortFeatured,
		"bogus":             catalog.SortFeatured,
	}

	for in, want := range tests {
		assert.Equal(t, want, catalog.ParseSortKey(in), in)
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		rating                float64
		full, half, emptyWant int
	}{
		{rating: 4.5, full: 4, half: 1, emptyWant: 0},
		{rating: 4.2, full: 4, half: 0, emptyWant: 1},
		{rating: 0, full: 0, half: 0, emptyWant: 5},
		{rating: 5, full: 5, half: 0, emptyWant: 0},
		{rating: 7, full: 5, half: 0, emptyWant: 0},
	}

	for _, tt := range tests {
		full, half, empty := catalog.Stars(tt.rating)
		assert.Equal(t, []int{tt.full, tt.half, tt.emptyWant}, []int{full, half, empty}, "rating %v", tt.rating)
	}
}

func TestSeed(t *testing.T) {
	products, err := catalog.DemoProducts()
	require.NoError(t, err)
	require.Len(t, products, 8)
	assert.Equal(t, "129.99", products[0].Price.String())

	featured, err := catalog.FeaturedProducts()
	require.NoError(t, err)
	require.Len(t, featured, 3)
	for _, p := range featured {
		assert.NotEmpty(t, p.ImageRefs)
		assert.NotEmpty(t, p.Colors)
		assert.NotEmpty(t, p.Sizes)
	}
}

func item(id int64, price, category string, rating float64) models.CatalogItem {
	return models.CatalogItem{
		ID:        id,
		Name:      gofakeit.ProductName(),
		Price:     decimal.RequireFromString(price),
		Category:  category,
		Rating:    rating,
		ImageRefs: []string{gofakeit.URL()},
	}
}

func randomItems(n int) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, n)
	for i := range n {
		items = append(items, models.CatalogItem{
			ID:          int64(gofakeit.IntRange(1, 1000)) + int64(i),
			Name:        gofakeit.ProductName(),
			Description: gofakeit.ProductDescription(),
			Price:       decimal.NewFromFloat(gofakeit.Price(0, 1000)),
			Category:    gofakeit.RandomString(catalog.Categories()[1:]),
			Rating:      float64(gofakeit.IntRange(0, 10)) / 2,
			ImageRefs:   []string{gofakeit.URL()},
		})
	}
	return items
}

func ids(items []models.CatalogItem) []int64 {
	result := make([]int64, 0, len(items))
	for _, it := range items {
		result = append(result, it.ID)
	}
	return result
}
