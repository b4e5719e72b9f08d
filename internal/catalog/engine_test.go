package catalog_test

import (
	"testing"

	"github.com/drstein77/shopsphere/internal/catalog"
	"github.com/drstein77/shopsphere/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEngineDispatch(t *testing.T) {
	e := catalog.NewEngine([]models.CatalogItem{
		item(3, "89.99", "electronics", 4.2),
		item(1, "129.99", "electronics", 4.5),
		item(4, "34.99", "clothing", 4.0),
	})
	assert.Equal(t, []int64{1, 3, 4}, ids(e.Visible()))

	e.Dispatch(catalog.SelectCategory{Category: "electronics"}, catalog.SortBy{Key: "price-low"})
	assert.Equal(t, []int64{3, 1}, ids(e.Visible()))

	e.Dispatch(catalog.SetPriceRange{Min: decimal.NewFromInt(100), Max: decimal.NewFromInt(200)})
	assert.Equal(t, []int64{1}, ids(e.Visible()))

	e.Dispatch(catalog.Reset{})
	assert.Equal(t, catalog.DefaultFilter(), e.Filter())
	assert.Equal(t, []int64{1, 3, 4}, ids(e.Visible()))
}

func TestEngineIgnoresInvalidInput(t *testing.T) {
	e := catalog.NewEngine(nil)
	e.Dispatch(catalog.SetPriceRange{Min: decimal.NewFromInt(10), Max: decimal.NewFromInt(20)})

	tests := []struct {
		name   string
		action catalog.Action
	}{
		{name: "min greater than max", action: catalog.SetPriceRange{Min: decimal.NewFromInt(30), Max: decimal.NewFromInt(20)}},
		{name: "negative min", action: catalog.SetPriceRange{Min: decimal.NewFromInt(-1), Max: decimal.NewFromInt(20)}},
		{name: "empty category", action: catalog.SelectCategory{}},
		{name: "nil action", action: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.Filter()
			e.Dispatch(tt.action)
			assert.Equal(t, before, e.Filter())
			assert.NotNil(t, e.Visible())
		})
	}
}

func TestEngineLookup(t *testing.T) {
	e := catalog.NewEngine([]models.CatalogItem{item(7, "1", "home", 1)})
	e.Dispatch(catalog.SelectCategory{Category: "electronics"})

	got, ok := e.Lookup(7)
	assert.True(t, ok)
	assert.Equal(t, int64(7), got.ID)

	_, ok = e.Lookup(8)
	assert.False(t, ok)
}
