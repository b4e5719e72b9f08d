package controllers

import (
	"fmt"
	"net/http"

	"github.com/drstein77/shopsphere/internal/cart"
	"github.com/drstein77/shopsphere/internal/icons"
	"github.com/drstein77/shopsphere/internal/models"
	"github.com/drstein77/shopsphere/internal/showcase"
	"github.com/drstein77/shopsphere/internal/storage"
	"github.com/go-chi/chi"
)

type lineView struct {
	models.CartLine
	Total models.MoneyView `json:"lineTotal"`
}

type cartView struct {
	Lines      []lineView       `json:"lines"`
	TotalItems int              `json:"totalItems"`
	Subtotal   models.MoneyView `json:"subtotal"`
}

func (h *BaseController) newCartView(s cart.State) cartView {
	lines := make([]lineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, lineView{
			CartLine: l,
			Total:    h.money(models.Money{Amount: l.LineTotal()}),
		})
	}
	return cartView{
		Lines:      lines,
		TotalItems: s.TotalItems,
		Subtotal:   h.money(models.Money{Amount: s.Subtotal}),
	}
}

type addItemRequest struct {
	ID       int64  `json:"id"`
	Quantity int    `json:"quantity"`
	Color    string `json:"color"`
	Size     string `json:"size"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *BaseController) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.newCartView(s.Cart.Snapshot()))
}

func (h *BaseController) addCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeJSON(w, r, &req) || !quantityInRange(w, req.Quantity) {
		return
	}

	var (
		item  models.CatalogItem
		found bool
	)
	s.With(func(s *storage.Session) { item, found = s.Catalog.Lookup(req.ID) })
	if !found {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	state := s.Cart.Dispatch(cart.AddItem{
		Item:          item,
		Quantity:      req.Quantity,
		SelectedColor: req.Color,
		SelectedSize:  req.Size,
	})
	h.metrics.CartOperation("add")
	writeJSON(w, http.StatusOK, h.newCartView(state))
}

func (h *BaseController) updateCartItem(w http.ResponseWriter, r *http.Request) {
	h.cartAction(w, r, "update", func(id int64) (cart.Action, bool) {
		var req quantityRequest
		if !decodeJSON(w, r, &req) || !quantityInRange(w, req.Quantity) {
			return nil, false
		}
		return cart.UpdateQuantity{ItemID: id, Quantity: req.Quantity}, true
	})
}

func (h *BaseController) incrementCartItem(w http.ResponseWriter, r *http.Request) {
	h.cartAction(w, r, "increment", func(id int64) (cart.Action, bool) {
		return cart.Increment{ItemID: id}, true
	})
}

func (h *BaseController) decrementCartItem(w http.ResponseWriter, r *http.Request) {
	h.cartAction(w, r, "decrement", func(id int64) (cart.Action, bool) {
		return cart.Decrement{ItemID: id}, true
	})
}

func (h *BaseController) removeCartItem(w http.ResponseWriter, r *http.Request) {
	h.cartAction(w, r, "remove", func(id int64) (cart.Action, bool) {
		return cart.RemoveItem{ItemID: id}, true
	})
}

// quantityInRange rejects requested quantities above the stepper limit.
// Quantities below one keep their cart meaning: default on add, ignored on update.
func quantityInRange(w http.ResponseWriter, quantity int) bool {
	if quantity > cart.MaxQuantity {
		http.Error(w, fmt.Sprintf("quantity must not exceed %d", cart.MaxQuantity), http.StatusBadRequest)
		return false
	}
	return true
}

// cartAction dispatches the action built for the {id} route parameter.
func (h *BaseController) cartAction(w http.ResponseWriter, r *http.Request, op string, build func(id int64) (cart.Action, bool)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	action, ok := build(id)
	if !ok {
		return
	}

	state := s.Cart.Dispatch(action)
	h.metrics.CartOperation(op)
	writeJSON(w, http.StatusOK, h.newCartView(state))
}

type showcaseAddResponse struct {
	Showcase showcase.View `json:"showcase"`
	Cart     cartView      `json:"cart"`
}

type selectionRequest struct {
	Color int `json:"color"`
	Size  int `json:"size"`
	Image int `json:"image"`
}

func (h *BaseController) getShowcase(w http.ResponseWriter, r *http.Request) {
	h.showcaseStep(w, r, (*showcase.Showcase).View)
}

func (h *BaseController) showcaseNext(w http.ResponseWriter, r *http.Request) {
	h.showcaseStep(w, r, (*showcase.Showcase).Next)
}

func (h *BaseController) showcasePrevious(w http.ResponseWriter, r *http.Request) {
	h.showcaseStep(w, r, (*showcase.Showcase).Previous)
}

func (h *BaseController) showcaseIncrement(w http.ResponseWriter, r *http.Request) {
	h.showcaseStep(w, r, (*showcase.Showcase).Increment)
}

func (h *BaseController) showcaseDecrement(w http.ResponseWriter, r *http.Request) {
	h.showcaseStep(w, r, (*showcase.Showcase).Decrement)
}

func (h *BaseController) showcaseStep(w http.ResponseWriter, r *http.Request, step func(*showcase.Showcase) showcase.View) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, step(s.Showcase))
}

func (h *BaseController) showcaseSelect(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	req := selectionRequest{Color: -1, Size: -1, Image: -1}
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.Showcase.Select(req.Color, req.Size, req.Image))
}

func (h *BaseController) showcaseAdd(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	state, added := s.Showcase.AddToCart(s.Cart)
	if !added {
		http.Error(w, "showcase is empty", http.StatusConflict)
		return
	}
	h.metrics.CartOperation("add")

	writeJSON(w, http.StatusOK, showcaseAddResponse{
		Showcase: s.Showcase.View(),
		Cart:     h.newCartView(state),
	})
}

func (h *BaseController) getNotifications(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Notices.Drain())
}

func (h *BaseController) getIcon(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, icons.Resolve(chi.URLParam(r, "name")))
}
