package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/drstein77/shopsphere/internal/catalog"
	"github.com/drstein77/shopsphere/internal/compress"
	"github.com/drstein77/shopsphere/internal/models"
	"github.com/drstein77/shopsphere/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stars struct {
	Full  int `json:"full"`
	Half  int `json:"half"`
	Empty int `json:"empty"`
}

type itemView struct {
	models.CatalogItem
	Stars stars `json:"stars"`
}

type filterView struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	MinPrice string `json:"minPrice"`
	MaxPrice string `json:"maxPrice"`
	Sort     string `json:"sort"`
}

type catalogView struct {
	Filter filterView `json:"filter"`
	Items  []itemView `json:"items"`
	Count  int        `json:"count"`
}

// filterRequest carries a partial filter update; absent fields keep their value.
type filterRequest struct {
	Search   *string          `json:"search"`
	Category *string          `json:"category"`
	MinPrice *decimal.Decimal `json:"minPrice"`
	MaxPrice *decimal.Decimal `json:"maxPrice"`
	Sort     *string          `json:"sort"`
}

func (req filterRequest) actions(current catalog.Filter) []catalog.Action {
	var actions []catalog.Action
	if req.Search != nil {
		actions = append(actions, catalog.Search{Term: *req.Search})
	}
	if req.Category != nil {
		actions = append(actions, catalog.SelectCategory{Category: *req.Category})
	}
	if req.MinPrice != nil || req.MaxPrice != nil {
		rng := catalog.SetPriceRange{Min: current.MinPrice, Max: current.MaxPrice}
		if req.MinPrice != nil {
			rng.Min = *req.MinPrice
		}
		if req.MaxPrice != nil {
			rng.Max = *req.MaxPrice
		}
		actions = append(actions, rng)
	}
	if req.Sort != nil {
		actions = append(actions, catalog.SortBy{Key: catalog.ParseSortKey(*req.Sort)})
	}
	return actions
}

func newCatalogView(e *catalog.Engine) catalogView {
	f := e.Filter()
	visible := e.Visible()

	items := make([]itemView, 0, len(visible))
	for _, item := range visible {
		full, half, empty := catalog.Stars(item.Rating)
		items = append(items, itemView{CatalogItem: item, Stars: stars{full, half, empty}})
	}

	return catalogView{
		Filter: filterView{
			Search:   f.SearchTerm,
			Category: f.Category,
			MinPrice: f.MinPrice.String(),
			MaxPrice: f.MaxPrice.String(),
			Sort:     string(f.Sort),
		},
		Items: items,
		Count: len(items),
	}
}

func (h *BaseController) getCatalog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var view catalogView
	s.With(func(s *storage.Session) { view = newCatalogView(s.Catalog) })
	writeJSON(w, http.StatusOK, view)
}

func (h *BaseController) getCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.storage.Categories())
}

func (h *BaseController) putFilter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req filterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var view catalogView
	s.With(func(s *storage.Session) {
		s.Catalog.Dispatch(req.actions(s.Catalog.Filter())...)
		view = newCatalogView(s.Catalog)
	})
	writeJSON(w, http.StatusOK, view)
}

func (h *BaseController) resetFilter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var view catalogView
	s.With(func(s *storage.Session) {
		s.Catalog.Dispatch(catalog.Reset{})
		view = newCatalogView(s.Catalog)
	})
	writeJSON(w, http.StatusOK, view)
}

func (h *BaseController) importCatalog(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	response, err := h.storage.ImportCatalog(r.Context(), r.Body)
	if err != nil {
		h.log.Error("catalog import failed", zap.Error(err))

		status := http.StatusInternalServerError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, storage.ErrInvalidCatalog):
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Failed to import catalog: %v", err), status)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *BaseController) exportCatalog(w http.ResponseWriter, r *http.Request) {
	archiveType := compress.ParseType(r.URL.Query().Get("archiveType"))

	contentType := "application/zip"
	if archiveType == compress.Tar {
		contentType = "application/x-tar"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="catalog.%s"`, archiveType))

	aw, err := compress.NewWriter(archiveType, w, "catalog.csv")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.storage.ExportCatalog(r.Context(), aw); err != nil {
		h.log.Error("catalog export failed", zap.Error(err))
		http.Error(w, "Failed to export catalog", http.StatusInternalServerError)
		return
	}
	if err := aw.Close(); err != nil {
		h.log.Error("failed to finish archive", zap.Error(err))
	}
}
