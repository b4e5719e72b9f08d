package cart

import (
	"math"
	"slices"
	"sync"

	"github.com/drstein77/shopsphere/internal/models"
	"github.com/shopspring/decimal"
)

// Stepper bounds used by the increment/decrement controls
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// State is the content of a cart together with its derived totals
type State struct {
	Lines      []models.CartLine
	TotalItems int
	Subtotal   decimal.Decimal
}

// EventKind classifies a notification emitted by a cart transition
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventRemoved EventKind = "removed"
)

type Event struct {
	Kind     EventKind
	ItemID   int64
	ItemName string
}

// Action is a single cart transition
type Action interface {
	reduce(State) (State, []Event)
}

// Apply is the only way a cart state changes. The passed state is never
// modified; the returned state has its totals recomputed.
func Apply(s State, a Action) (State, []Event) {
	if a == nil {
		return s, nil
	}
	next, events := a.reduce(s)
	return withTotals(next), events
}

// AddItem merges by item id. The merged quantity is not clamped to the stepper
// bounds; it saturates at math.MaxInt.
type AddItem struct {
	Item     models.CatalogItem
	Quantity int

	SelectedColor string
	SelectedSize  string
	Thumbnail     string
}

func (a AddItem) reduce(s State) (State, []Event) {
	qty := a.Quantity
	if qty < 1 {
		qty = 1
	}

	lines := slices.Clone(s.Lines)
	if i := indexOf(lines, a.Item.ID); i >= 0 {
		lines[i].Quantity = addSaturating(lines[i].Quantity, qty)
	} else {
		lines = append(lines, models.CartLine{
			Item:          a.Item.Clone(),
			Quantity:      qty,
			SelectedColor: a.SelectedColor,
			SelectedSize:  a.SelectedSize,
			Thumbnail:     a.thumbnail(),
		})
	}

	s.Lines = lines
	return s, []Event{{Kind: EventAdded, ItemID: a.Item.ID, ItemName: a.Item.Name}}
}

func (a AddItem) thumbnail() string {
	if a.Thumbnail != "" {
		return a.Thumbnail
	}
	if len(a.Item.ImageRefs) > 0 {
		return a.Item.ImageRefs[0]
	}
	return ""
}

// RemoveItem drops the line if present. The removed event is emitted either way.
type RemoveItem struct{ ItemID int64 }

func (a RemoveItem) reduce(s State) (State, []Event) {
	s.Lines = slices.DeleteFunc(slices.Clone(s.Lines), func(l models.CartLine) bool {
		return l.Item.ID == a.ItemID
	})
	return s, []Event{{Kind: EventRemoved, ItemID: a.ItemID}}
}

// UpdateQuantity sets the quantity of a line. Quantities below one are ignored.
type UpdateQuantity struct {
	ItemID   int64
	Quantity int
}

func (a UpdateQuantity) reduce(s State) (State, []Event) {
	if a.Quantity < 1 {
		return s, nil
	}
	i := indexOf(s.Lines, a.ItemID)
	if i < 0 {
		return s, nil
	}

	s.Lines = slices.Clone(s.Lines)
	s.Lines[i].Quantity = a.Quantity
	return s, nil
}

// Increment and Decrement mirror the sidebar stepper. Increment stops at
// MaxQuantity; Decrement lowers any quantity above MinQuantity.
type Increment struct{ ItemID int64 }

func (a Increment) reduce(s State) (State, []Event) {
	return step(s, a.ItemID, 1)
}

type Decrement struct{ ItemID int64 }

func (a Decrement) reduce(s State) (State, []Event) {
	return step(s, a.ItemID, -1)
}

func step(s State, id int64, delta int) (State, []Event) {
	i := indexOf(s.Lines, id)
	if i < 0 {
		return s, nil
	}
	current := s.Lines[i].Quantity
	next := current + delta
	switch {
	case delta > 0 && next > MaxQuantity:
		return s, nil
	case delta < 0 && current <= MinQuantity:
		return s, nil
	}
	return UpdateQuantity{ItemID: id, Quantity: next}.reduce(s)
}

// Clear empties the cart when the session ends
type Clear struct{}

func (Clear) reduce(s State) (State, []Event) {
	s.Lines = nil
	return s, nil
}

func indexOf(lines []models.CartLine, id int64) int {
	return slices.IndexFunc(lines, func(l models.CartLine) bool { return l.Item.ID == id })
}

func withTotals(s State) State {
	s.TotalItems = 0
	s.Subtotal = decimal.Zero
	for _, l := range s.Lines {
		s.TotalItems = addSaturating(s.TotalItems, l.Quantity)
		s.Subtotal = s.Subtotal.Add(l.LineTotal())
	}
	return s
}

func addSaturating(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Notifier receives the events produced by cart transitions
type Notifier interface {
	CartEvent(Event)
}

// Cart serializes transitions over a State and forwards their events.
type Cart struct {
	mu       sync.RWMutex
	state    State
	notifier Notifier
}

func New(notifier Notifier) *Cart {
	return &Cart{
		state:    withTotals(State{}),
		notifier: notifier,
	}
}

// Dispatch applies the action and returns the resulting state.
func (c *Cart) Dispatch(a Action) State {
	c.mu.Lock()
	next, events := Apply(c.state, a)
	c.state = next
	c.mu.Unlock()

	if c.notifier != nil {
		for _, e := range events {
			c.notifier.CartEvent(e)
		}
	}
	return next
}

func (c *Cart) AddItem(item models.CatalogItem, quantity int) State {
	return c.Dispatch(AddItem{Item: item, Quantity: quantity})
}

func (c *Cart) RemoveItem(id int64) State {
	return c.Dispatch(RemoveItem{ItemID: id})
}

func (c *Cart) UpdateQuantity(id int64, quantity int) State {
	return c.Dispatch(UpdateQuantity{ItemID: id, Quantity: quantity})
}

// Snapshot returns the current state. Lines are copied.
func (c *Cart) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.state
	s.Lines = slices.Clone(s.Lines)
	return s
}
