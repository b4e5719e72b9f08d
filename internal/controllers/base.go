package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/drstein77/shopsphere/internal/middleware"
	"github.com/drstein77/shopsphere/internal/models"
	"github.com/drstein77/shopsphere/internal/records"
	"github.com/drstein77/shopsphere/internal/session"
	"github.com/drstein77/shopsphere/internal/storage"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// Storage interface for application state
type Storage interface {
	Resume(uuid.UUID) bool
	Open() uuid.UUID
	Session(uuid.UUID) (*storage.Session, error)
	Categories() []string
	ImportCatalog(context.Context, io.Reader) (*models.ImportResponse, error)
	ExportCatalog(context.Context, io.Writer) error
	Ping(context.Context) bool
}

// Log interface for logging
type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

type Metrics interface {
	CartOperation(op string)
}

type nopMetrics struct{}

func (nopMetrics) CartOperation(string) {}

const defaultMaxImportBytes = 32 << 20

type Option func(*BaseController)

func WithMetrics(m Metrics) Option {
	return func(h *BaseController) { h.metrics = m }
}

// WithMetricsHandler exposes h under /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(h *BaseController) { h.metricsHandler = handler }
}

func WithCurrency(unit currency.Unit) Option {
	return func(h *BaseController) { h.currency = unit }
}

// WithWidgetConfig sets the project identity passed to the authentication widget.
func WithWidgetConfig(cfg session.WidgetConfig) Option {
	return func(h *BaseController) { h.widget = cfg }
}

// WithMaxImportBytes caps the size of an uploaded catalog archive.
func WithMaxImportBytes(n int64) Option {
	return func(h *BaseController) { h.maxImportBytes = n }
}

// BaseController struct for handling requests
type BaseController struct {
	ctx            context.Context
	storage        Storage
	records        *records.Services
	log            Log
	metrics        Metrics
	metricsHandler http.Handler
	currency       currency.Unit
	widget         session.WidgetConfig
	maxImportBytes int64
}

// NewBaseController creates a new BaseController instance
func NewBaseController(ctx context.Context, storage Storage, services *records.Services, log Log, opts ...Option) *BaseController {
	instance := &BaseController{
		ctx:            ctx,
		storage:        storage,
		records:        services,
		log:            log,
		metrics:        nopMetrics{},
		currency:       currency.USD,
		maxImportBytes: defaultMaxImportBytes,
	}
	for _, opt := range opts {
		opt(instance)
	}

	return instance
}

// Route sets up the routes for the BaseController
func (h *BaseController) Route() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/ping", h.getPing)
	if h.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.metricsHandler)
	}

	sessions := middleware.SessionMiddleware(h.storage)

	// stateless routes never open a session
	r.Get("/api/v0/icons/{name}", h.getIcon)

	r.Route("/api/v0/catalog", func(r chi.Router) {
		r.Get("/categories", h.getCategories)

		r.Group(func(r chi.Router) {
			r.Use(sessions)
			r.Get("/", h.getCatalog)
			r.Put("/filter", h.putFilter)
			r.Post("/filter/reset", h.resetFilter)
			r.Get("/export", h.exportCatalog)
			r.With(middleware.LimitBody(h.maxImportBytes), middleware.ArchiveTypeMiddleware).Post("/import", h.importCatalog)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(sessions)

		r.Route("/api/v0/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Post("/items", h.addCartItem)
			r.Patch("/items/{id}", h.updateCartItem)
			r.Post("/items/{id}/increment", h.incrementCartItem)
			r.Post("/items/{id}/decrement", h.decrementCartItem)
			r.Delete("/items/{id}", h.removeCartItem)
		})

		r.Route("/api/v0/showcase", func(r chi.Router) {
			r.Get("/", h.getShowcase)
			r.Post("/next", h.showcaseNext)
			r.Post("/previous", h.showcasePrevious)
			r.Post("/increment", h.showcaseIncrement)
			r.Post("/decrement", h.showcaseDecrement)
			r.Post("/add", h.showcaseAdd)
			r.Put("/selection", h.showcaseSelect)
		})

		r.Get("/api/v0/notifications", h.getNotifications)

		r.Post("/api/v0/auth/callback", h.authCallback)
		r.Post("/api/v0/auth/logout", h.logout)
		r.Get("/api/v0/session", h.getSession)
		r.Post("/api/v0/session/theme/toggle", h.toggleTheme)

		if h.records != nil {
			mountRecords(r, h, h.records.Destinations)
			mountRecords(r, h, h.records.DestinationGuides)
			mountRecords(r, h, h.records.FlightBookings)
			mountRecords(r, h, h.records.Passengers)
			mountRecords(r, h, h.records.TripPlans)
		}
		r.HandleFunc("/api/v0/records/{table}", h.unknownTable)
		r.HandleFunc("/api/v0/records/{table}/*", h.unknownTable)
	})

	return r
}

func (h *BaseController) getPing(w http.ResponseWriter, r *http.Request) {
	if !h.storage.Ping(r.Context()) {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

var errNoSession = errors.New("session is missing")

func (h *BaseController) currentSession(r *http.Request) (*storage.Session, error) {
	id, ok := middleware.SessionID(r.Context())
	if !ok {
		return nil, errNoSession
	}
	return h.storage.Session(id)
}

// session resolves the visitor session set by SessionMiddleware.
func (h *BaseController) session(w http.ResponseWriter, r *http.Request) (*storage.Session, bool) {
	s, err := h.currentSession(r)
	switch {
	case err == nil:
		return s, true
	case errors.Is(err, errNoSession), errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
	return nil, false
}

func (h *BaseController) money(amount models.Money) models.MoneyView {
	if amount.Currency == (currency.Unit{}) {
		amount.Currency = h.currency
	}
	return amount.View()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
