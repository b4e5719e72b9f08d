package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drstein77/shopsphere/internal/cart"
	"github.com/drstein77/shopsphere/internal/catalog"
	"github.com/drstein77/shopsphere/internal/models"
	"github.com/drstein77/shopsphere/internal/notify"
	"github.com/drstein77/shopsphere/internal/session"
	"github.com/drstein77/shopsphere/internal/showcase"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrConflict indicates a data conflict in the store.
// ErrInvalidCatalog marks imports rejected because of their content.
var (
	ErrConflict       = errors.New("data conflict")
	ErrNotFound       = errors.New("not found")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Keeper interface for database operations
type Keeper interface {
	Ping(context.Context) bool
	Close() bool
	InsertCatalogItems(context.Context, []models.CatalogItem) (*models.ImportResponse, error)
	GetCatalogItems(context.Context) ([]models.CatalogItem, error)
}

type Metrics interface {
	CatalogImport(err error)
	SessionCreated()
	SessionClosed()
}

type nopMetrics struct{}

func (nopMetrics) CatalogImport(error) {}
func (nopMetrics) SessionCreated()     {}
func (nopMetrics) SessionClosed()      {}

// Session is the state of one storefront visitor. Callers hold the session
// lock through With while touching the catalog engine.
type Session struct {
	mx       sync.Mutex
	lastSeen atomic.Int64 // unix nanoseconds

	ID       uuid.UUID
	Catalog  *catalog.Engine
	Cart     *cart.Cart
	Auth     *session.Store
	Notices  *notify.Queue
	Showcase *showcase.Showcase
}

// With runs f while holding the session lock.
func (s *Session) With(f func(*Session)) {
	s.mx.Lock()
	defer s.mx.Unlock()
	f(s)
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

type Option func(*MemoryStorage)

func WithMetrics(m Metrics) Option {
	return func(ms *MemoryStorage) { ms.metrics = m }
}

// WithShowcaseOptions applies opts to every session showcase.
func WithShowcaseOptions(opts ...showcase.Option) Option {
	return func(ms *MemoryStorage) { ms.showcaseOpts = opts }
}

// WithSessionIdle drops sessions that have not been seen for d. Zero keeps them until Close.
func WithSessionIdle(d time.Duration) Option {
	return func(ms *MemoryStorage) { ms.idle = d }
}

// WithClock replaces time.Now for session bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(ms *MemoryStorage) { ms.now = now }
}

// MemoryStorage holds the shared catalog and the per-session state
type MemoryStorage struct {
	ctx context.Context
	mx  sync.RWMutex

	items    []models.CatalogItem
	featured []models.CatalogItem
	sessions map[uuid.UUID]*Session

	keeper       Keeper
	log          Log
	metrics      Metrics
	showcaseOpts []showcase.Option

	idle      time.Duration
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMemoryStorage loads the catalog from the keeper, seeding it with the demo
// products when empty. Without a keeper the demo products are served directly.
func NewMemoryStorage(ctx context.Context, keeper Keeper, log Log, opts ...Option) (*MemoryStorage, error) {
	demo, err := catalog.DemoProducts()
	if err != nil {
		return nil, err
	}
	featured, err := catalog.FeaturedProducts()
	if err != nil {
		return nil, err
	}

	ms := &MemoryStorage{
		ctx:      ctx,
		items:    demo,
		featured: featured,
		sessions: make(map[uuid.UUID]*Session),
		keeper:   keeper,
		log:      log,
		metrics:  nopMetrics{},
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}

	if keeper != nil {
		if err := ms.loadCatalog(ctx, demo); err != nil {
			log.Error("cannot load catalog, serving demo products", zap.Error(err))
		}
	}

	if ms.idle > 0 {
		ms.wg.Add(1)
		go ms.sweepLoop(ctx)
	}

	return ms, nil
}

func (ms *MemoryStorage) loadCatalog(ctx context.Context, demo []models.CatalogItem) error {
	items, err := ms.keeper.GetCatalogItems(ctx)
	if err != nil {
		return fmt.Errorf("keeper.GetCatalogItems: %w", err)
	}

	if len(items) == 0 {
		if _, err := ms.keeper.InsertCatalogItems(ctx, demo); err != nil {
			return fmt.Errorf("keeper.InsertCatalogItems: %w", err)
		}
		ms.log.Info("catalog seeded with demo products", zap.Int("count", len(demo)))
		return nil
	}

	ms.items = items
	ms.log.Info("catalog loaded", zap.Int("count", len(items)))
	return nil
}

// Resume marks the session as active and reports whether it exists.
// Unknown ids are never adopted; the caller opens a new session instead.
func (ms *MemoryStorage) Resume(id uuid.UUID) bool {
	ms.mx.RLock()
	s, ok := ms.sessions[id]
	ms.mx.RUnlock()
	if ok {
		s.touch(ms.now())
	}
	return ok
}

// Open creates a session under a freshly minted id.
func (ms *MemoryStorage) Open() uuid.UUID {
	id := uuid.New()

	ms.mx.Lock()
	s := ms.newSession(id)
	s.touch(ms.now())
	ms.sessions[id] = s
	ms.mx.Unlock()

	ms.metrics.SessionCreated()
	return id
}

// Sweep drops the sessions not seen for longer than idle and returns their number.
func (ms *MemoryStorage) Sweep(idle time.Duration) int {
	cutoff := ms.now().Add(-idle).UnixNano()

	ms.mx.Lock()
	var expired []*Session
	for id, s := range ms.sessions {
		if s.lastSeen.Load() < cutoff {
			delete(ms.sessions, id)
			expired = append(expired, s)
		}
	}
	ms.mx.Unlock()

	for _, s := range expired {
		s.Showcase.Close()
		ms.metrics.SessionClosed()
	}
	if len(expired) > 0 {
		ms.log.Info("idle sessions dropped", zap.Int("count", len(expired)))
	}
	return len(expired)
}

func (ms *MemoryStorage) sweepLoop(ctx context.Context) {
	defer ms.wg.Done()

	ticker := time.NewTicker(max(ms.idle/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ms.done:
			return
		case <-ticker.C:
			ms.Sweep(ms.idle)
		}
	}
}

func (ms *MemoryStorage) newSession(id uuid.UUID) *Session {
	notices := notify.NewQueue(0)
	return &Session{
		ID:       id,
		Catalog:  catalog.NewEngine(ms.items),
		Cart:     cart.New(notices),
		Auth:     session.NewStore(),
		Notices:  notices,
		Showcase: showcase.New(ms.featured, ms.showcaseOpts...),
	}
}

func (ms *MemoryStorage) Session(id uuid.UUID) (*Session, error) {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	s, ok := ms.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Items returns a copy of the shared catalog.
func (ms *MemoryStorage) Items() []models.CatalogItem {
	ms.mx.RLock()
	defer ms.mx.RUnlock()
	return slices.Clone(ms.items)
}

// Categories lists the storefront categories followed by any others present in the catalog.
func (ms *MemoryStorage) Categories() []string {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	result := catalog.Categories()
	for _, item := range ms.items {
		if !slices.Contains(result, item.Category) {
			result = append(result, item.Category)
		}
	}
	return result
}

// ImportCatalog upserts the CSV items into the catalog and pushes the new
// collection to every session.
func (ms *MemoryStorage) ImportCatalog(ctx context.Context, r io.Reader) (resp *models.ImportResponse, err error) {
	defer func() { ms.metrics.CatalogImport(err) }()

	imported, err := ReadCatalogCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	ms.mx.Lock()
	merged := upsert(ms.items, imported)

	if ms.keeper != nil {
		resp, err = ms.keeper.InsertCatalogItems(ctx, imported)
		if err != nil {
			ms.mx.Unlock()
			ms.log.Error("cannot store catalog", zap.Error(err))
			return nil, fmt.Errorf("keeper.InsertCatalogItems: %w", err)
		}
	} else {
		resp = stats(merged)
	}

	ms.items = merged
	sessions := make([]*Session, 0, len(ms.sessions))
	for _, s := range ms.sessions {
		sessions = append(sessions, s)
	}
	ms.mx.Unlock()

	for _, s := range sessions {
		s.With(func(s *Session) {
			s.Catalog.Dispatch(catalog.SetItems{Items: merged})
		})
	}

	ms.log.Info("catalog imported", zap.Int("items", len(imported)), zap.Int("total", resp.TotalItems))
	return resp, nil
}

// ExportCatalog writes the catalog as CSV.
func (ms *MemoryStorage) ExportCatalog(_ context.Context, w io.Writer) error {
	return WriteCatalogCSV(w, ms.Items())
}

func (ms *MemoryStorage) Ping(ctx context.Context) bool {
	if ms.keeper == nil {
		return true
	}
	return ms.keeper.Ping(ctx)
}

// Close stops the session sweeper and pending showcase timers, then releases the keeper.
func (ms *MemoryStorage) Close() {
	ms.closeOnce.Do(func() { close(ms.done) })
	ms.wg.Wait()

	ms.mx.Lock()
	defer ms.mx.Unlock()

	for _, s := range ms.sessions {
		s.Showcase.Close()
	}
	if ms.keeper != nil {
		ms.keeper.Close()
	}
}

// upsert replaces items with matching ids and appends the rest, keeping the original order.
func upsert(items, updates []models.CatalogItem) []models.CatalogItem {
	result := slices.Clone(items)
	for _, u := range updates {
		i := slices.IndexFunc(result, func(item models.CatalogItem) bool { return item.ID == u.ID })
		if i >= 0 {
			result[i] = u
			continue
		}
		result = append(result, u)
	}
	return result
}

func stats(items []models.CatalogItem) *models.ImportResponse {
	resp := &models.ImportResponse{TotalPrice: decimal.Zero}
	categories := make(map[string]struct{})
	for _, item := range items {
		resp.TotalItems++
		resp.TotalPrice = resp.TotalPrice.Add(item.Price)
		categories[item.Category] = struct{}{}
	}
	resp.TotalCategories = len(categories)
	return resp
}
