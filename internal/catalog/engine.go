package catalog

import (
	"slices"

	"github.com/drstein77/shopsphere/internal/models"
	"github.com/shopspring/decimal"
)

// State is the full input of the catalog view
type State struct {
	Items  []models.CatalogItem
	Filter Filter
}

// Action is a single catalog state transition
type Action interface {
	reduce(State) State
}

// Reduce applies a to s. Invalid input leaves the previous state in place.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.reduce(s)
}

// SetItems replaces the catalog content, e.g. after a load from the keeper
type SetItems struct{ Items []models.CatalogItem }

func (a SetItems) reduce(s State) State {
	s.Items = slices.Clone(a.Items)
	return s
}

type Search struct{ Term string }

func (a Search) reduce(s State) State {
	s.Filter.SearchTerm = a.Term
	return s
}

type SelectCategory struct{ Category string }

func (a SelectCategory) reduce(s State) State {
	if a.Category == "" {
		return s
	}
	s.Filter.Category = a.Category
	return s
}

// SetPriceRange requires 0 <= Min <= Max
type SetPriceRange struct{ Min, Max decimal.Decimal }

func (a SetPriceRange) reduce(s State) State {
	if a.Min.IsNegative() || a.Max.IsNegative() || a.Min.GreaterThan(a.Max) {
		return s
	}
	s.Filter.MinPrice = a.Min
	s.Filter.MaxPrice = a.Max
	return s
}

type SortBy struct{ Key SortKey }

func (a SortBy) reduce(s State) State {
	s.Filter.Sort = ParseSortKey(string(a.Key))
	return s
}

// Reset restores the default filter, items are kept.
type Reset struct{}

func (Reset) reduce(s State) State {
	s.Filter = DefaultFilter()
	return s
}

// Engine holds the catalog state and keeps the visible subset in sync with it.
// It is not safe for concurrent use; the owning session serializes access.
type Engine struct {
	state   State
	visible []models.CatalogItem
}

func NewEngine(items []models.CatalogItem) *Engine {
	e := &Engine{state: State{Filter: DefaultFilter()}}
	e.Dispatch(SetItems{Items: items})
	return e
}

// Dispatch applies the actions in order and recomputes the visible items.
func (e *Engine) Dispatch(actions ...Action) {
	for _, a := range actions {
		e.state = Reduce(e.state, a)
	}
	e.visible = Apply(e.state.Items, e.state.Filter)
}

func (e *Engine) Filter() Filter {
	return e.state.Filter
}

// Visible returns a copy of the current visible subset
func (e *Engine) Visible() []models.CatalogItem {
	return slices.Clone(e.visible)
}

// Lookup finds an item of the full collection by id.
func (e *Engine) Lookup(id int64) (models.CatalogItem, bool) {
	for _, item := range e.state.Items {
		if item.ID == id {
			return item, true
		}
	}
	return models.CatalogItem{}, false
}
