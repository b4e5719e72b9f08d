// Package showcase implements the featured product carousel with its variant
// selector, quantity stepper and the timed "added to cart" confirmation.
package showcase

import (
	"slices"
	"sync"
	"time"

	"github.com/drstein77/shopsphere/internal/cart"
	"github.com/drstein77/shopsphere/internal/models"
)

// DefaultConfirmDelay is how long the added confirmation stays visible
const DefaultConfirmDelay = 2 * time.Second

// Timer is a scheduled transition that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock schedules transitions; tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Adder is the cart entry point used by AddToCart
type Adder interface {
	Dispatch(cart.Action) cart.State
}

type Option func(*Showcase)

func WithClock(c Clock) Option {
	return func(s *Showcase) { s.clock = c }
}

func WithConfirmDelay(d time.Duration) Option {
	return func(s *Showcase) {
		if d > 0 {
			s.delay = d
		}
	}
}

// View is a read-only picture of the showcase
type View struct {
	Product  models.CatalogItem `json:"product"`
	Index    int                `json:"index"`
	Count    int                `json:"count"`
	Color    int                `json:"selectedColor"`
	Size     int                `json:"selectedSize"`
	Image    int                `json:"currentImage"`
	Quantity int                `json:"quantity"`
	Added    bool               `json:"isAddedToCart"`
}

type Showcase struct {
	mu       sync.Mutex
	products []models.CatalogItem

	index    int
	color    int
	size     int
	image    int
	quantity int
	added    bool

	// token identifies the confirmation a pending timer belongs to
	token uint64
	timer Timer

	clock Clock
	delay time.Duration
}

func New(products []models.CatalogItem, opts ...Option) *Showcase {
	s := &Showcase{
		products: slices.Clone(products),
		quantity: cart.MinQuantity,
		clock:    realClock{},
		delay:    DefaultConfirmDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Showcase) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Index:    s.index,
		Count:    len(s.products),
		Color:    s.color,
		Size:     s.size,
		Image:    s.image,
		Quantity: s.quantity,
		Added:    s.added,
	}
	if len(s.products) > 0 {
		v.Product = s.products[s.index].Clone()
	}
	return v
}

// Next moves to the following product, wrapping from the last to the first.
func (s *Showcase) Next() View {
	s.mu.Lock()
	if n := len(s.products); n > 0 {
		s.show((s.index + 1) % n)
	}
	s.mu.Unlock()
	return s.View()
}

// Previous moves to the preceding product, wrapping from the first to the last.
func (s *Showcase) Previous() View {
	s.mu.Lock()
	if n := len(s.products); n > 0 {
		s.show((s.index - 1 + n) % n)
	}
	s.mu.Unlock()
	return s.View()
}

// show switches product and resets every per-product selection. Caller holds mu.
func (s *Showcase) show(i int) {
	s.index = i
	s.color = 0
	s.size = 0
	s.image = 0
	s.quantity = cart.MinQuantity
	s.cancelConfirmation()
}

func (s *Showcase) cancelConfirmation() {
	s.added = false
	s.token++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Select changes the color, size and image indices. Out of range values are ignored.
func (s *Showcase) Select(color, size, image int) View {
	s.mu.Lock()
	if len(s.products) > 0 {
		p := s.products[s.index]
		if color >= 0 && color < len(p.Colors) {
			s.color = color
		}
		if size >= 0 && size < len(p.Sizes) {
			s.size = size
		}
		if image >= 0 && image < len(p.ImageRefs) {
			s.image = image
		}
	}
	s.mu.Unlock()
	return s.View()
}

func (s *Showcase) Increment() View {
	s.mu.Lock()
	if s.quantity < cart.MaxQuantity {
		s.quantity++
	}
	s.mu.Unlock()
	return s.View()
}

func (s *Showcase) Decrement() View {
	s.mu.Lock()
	if s.quantity > cart.MinQuantity {
		s.quantity--
	}
	s.mu.Unlock()
	return s.View()
}

// AddToCart snapshots the current product with its selections into the cart
// and shows the confirmation until the delay elapses.
func (s *Showcase) AddToCart(c Adder) (cart.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) == 0 {
		return cart.State{}, false
	}

	p := s.products[s.index]
	add := cart.AddItem{
		Item:     p,
		Quantity: s.quantity,
	}
	if s.color < len(p.Colors) {
		add.SelectedColor = p.Colors[s.color]
	}
	if s.size < len(p.Sizes) {
		add.SelectedSize = p.Sizes[s.size]
	}
	if len(p.ImageRefs) > 0 {
		add.Thumbnail = p.ImageRefs[0]
	}

	state := c.Dispatch(add)

	s.cancelConfirmation()
	s.added = true
	token := s.token
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.token == token {
			s.added = false
			s.timer = nil
		}
	})

	return state, true
}

// Close cancels a pending confirmation timer.
func (s *Showcase) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelConfirmation()
}
