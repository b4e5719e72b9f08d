package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/drstein77/shopsphere/internal/records"
	"github.com/go-chi/chi"
)

type errorBanner struct {
	Error string `json:"error"`
}

// mountRecords exposes CRUD routes for one record table.
func mountRecords[T any](r chi.Router, h *BaseController, svc *records.Service[T]) {
	r.Route("/api/v0/records/"+svc.Table(), func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			opts, err := queryOptions(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			list, err := svc.List(r.Context(), opts)
			if err != nil {
				h.recordFailure(w, r, "load", svc.Table())
				return
			}
			writeJSON(w, http.StatusOK, list)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var rec T
			if !decodeJSON(w, r, &rec) {
				return
			}
			created, err := svc.Create(r.Context(), rec)
			if err != nil {
				h.recordFailure(w, r, "create", svc.Table())
				return
			}
			writeJSON(w, http.StatusCreated, created)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := idParam(w, r)
			if !ok {
				return
			}
			rec, err := svc.GetByID(r.Context(), id)
			if err != nil {
				h.recordFailure(w, r, "load", svc.Table())
				return
			}
			if rec == nil {
				http.Error(w, "record not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := idParam(w, r)
			if !ok {
				return
			}
			var rec T
			if !decodeJSON(w, r, &rec) {
				return
			}
			updated, err := svc.Update(r.Context(), id, rec)
			if err != nil {
				h.recordFailure(w, r, "update", svc.Table())
				return
			}
			if updated == nil {
				http.Error(w, "record not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := idParam(w, r)
			if !ok {
				return
			}
			if _, err := svc.Delete(r.Context(), id); err != nil {
				h.recordFailure(w, r, "delete", svc.Table())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

// recordFailure answers 502 with an error banner and queues the same message
// for the visitor. The cause is already logged by the record service.
func (h *BaseController) recordFailure(w http.ResponseWriter, r *http.Request, op, table string) {
	message := fmt.Sprintf("Failed to %s %s records", op, table)
	if s, err := h.currentSession(r); err == nil {
		s.Notices.Error(message)
	}
	writeJSON(w, http.StatusBadGateway, errorBanner{Error: message})
}

func (h *BaseController) unknownTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBanner{
		Error: fmt.Sprintf("%s: %s", records.ErrUnknownTable, chi.URLParam(r, "table")),
	})
}

// queryOptions reads fields, where (field:value), orderBy, sort, limit and offset query parameters.
func queryOptions(r *http.Request) (records.QueryOptions, error) {
	var opts records.QueryOptions
	q := r.URL.Query()

	if fields := q.Get("fields"); fields != "" {
		for _, name := range strings.Split(fields, ",") {
			opts.Fields = append(opts.Fields, records.Field(strings.TrimSpace(name)))
		}
	}

	for _, cond := range q["where"] {
		name, value, ok := strings.Cut(cond, ":")
		if !ok || name == "" {
			return opts, fmt.Errorf("invalid where %q, want field:value", cond)
		}
		opts.Where = append(opts.Where, records.Condition{FieldName: name, Operator: "EqualTo", Values: []any{value}})
	}

	if field := q.Get("orderBy"); field != "" {
		sortType := "ASC"
		if strings.EqualFold(q.Get("sort"), "desc") {
			sortType = "DESC"
		}
		opts.OrderBy = []records.OrderBy{{FieldName: field, SortType: sortType}}
	}

	if q.Has("limit") || q.Has("offset") {
		paging := &records.PagingInfo{}
		var err error
		if s := q.Get("limit"); s != "" {
			if paging.Limit, err = strconv.Atoi(s); err != nil || paging.Limit < 0 {
				return opts, fmt.Errorf("invalid limit %q", s)
			}
		}
		if s := q.Get("offset"); s != "" {
			if paging.Offset, err = strconv.Atoi(s); err != nil || paging.Offset < 0 {
				return opts, fmt.Errorf("invalid offset %q", s)
			}
		}
		opts.PagingInfo = paging
	}

	return opts, nil
}
