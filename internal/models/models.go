package models

import (
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// CatalogItem is a product shown in the storefront catalog
type CatalogItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Rating      float64         `json:"rating"`
	Description string          `json:"description"`
	ImageRefs   []string        `json:"images"`

	// populated for featured products only
	Colors      []string `json:"colors,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Features    []string `json:"features,omitempty"`
	ReviewCount int      `json:"reviewCount,omitempty"`
}

// Clone returns a deep copy so that later changes to the source never leak into the copy.
func (i CatalogItem) Clone() CatalogItem {
	i.ImageRefs = slices.Clone(i.ImageRefs)
	i.Colors = slices.Clone(i.Colors)
	i.Sizes = slices.Clone(i.Sizes)
	i.Features = slices.Clone(i.Features)
	return i
}

// CartLine pairs a snapshot of a catalog item with a quantity
type CartLine struct {
	Item          CatalogItem `json:"item"`
	Quantity      int         `json:"quantity"`
	SelectedColor string      `json:"selectedColor,omitempty"`
	SelectedSize  string      `json:"selectedSize,omitempty"`
	Thumbnail     string      `json:"thumbnail,omitempty"`
}

// LineTotal is the unit price at add-time multiplied by the quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Money is an amount in a given currency
type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// MoneyView is the wire form of Money.
type MoneyView struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) View() MoneyView {
	return MoneyView{
		Amount:   m.Amount.StringFixed(2),
		Currency: m.Currency.String(),
	}
}

// ImportResponse summarizes a catalog import
type ImportResponse struct {
	TotalItems      int             `json:"total_items"`
	TotalCategories int             `json:"total_categories"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}
