package controllers_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/drstein77/shopsphere/internal/compress"
	"github.com/drstein77/shopsphere/internal/controllers"
	"github.com/drstein77/shopsphere/internal/metrics"
	"github.com/drstein77/shopsphere/internal/middleware"
	"github.com/drstein77/shopsphere/internal/models"
	"github.com/drstein77/shopsphere/internal/records"
	"github.com/drstein77/shopsphere/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// visitor drives the router while keeping the session cookie between calls.
type visitor struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func newVisitor(t *testing.T, client records.Client) *visitor {
	t.Helper()
	return newVisitorWith(t, client, nil)
}

func newVisitorWith(t *testing.T, client records.Client, keeper storage.Keeper, opts ...controllers.Option) *visitor {
	t.Helper()

	ms, err := storage.NewMemoryStorage(t.Context(), keeper, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(ms.Close)

	m := metrics.New()
	services := records.NewServices(client, zap.NewNop(), m)
	opts = append([]controllers.Option{
		controllers.WithMetrics(m),
		controllers.WithMetricsHandler(m.Handler()),
		controllers.WithCurrency(currency.EUR),
	}, opts...)
	h := controllers.NewBaseController(t.Context(), ms, services, zap.NewNop(), opts...)

	return &visitor{t: t, router: h.Route()}
}

func (v *visitor) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	v.t.Helper()

	req := httptest.NewRequest(method, target, body)
	if v.cookie != nil {
		req.AddCookie(v.cookie)
	}
	rec := httptest.NewRecorder()
	v.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			v.cookie = c
		}
	}
	return rec
}

func (v *visitor) json(method, target, body string, out any) int {
	v.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := v.do(method, target, reader)
	if out != nil && rec.Code < 300 {
		require.NoError(v.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type catalogResponse struct {
	Filter struct {
		Search   string `json:"search"`
		Category string `json:"category"`
		MinPrice string `json:"minPrice"`
		MaxPrice string `json:"maxPrice"`
		Sort     string `json:"sort"`
	} `json:"filter"`
	Items []struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Stars struct {
			Full, Half, Empty int
		} `json:"stars"`
	} `json:"items"`
	Count int `json:"count"`
}

type cartResponse struct {
	Lines []struct {
		Item struct {
			ID int64 `json:"id"`
		} `json:"item"`
		Quantity  int `json:"quantity"`
		LineTotal struct {
			Amount string `json:"amount"`
		} `json:"lineTotal"`
	} `json:"lines"`
	TotalItems int `json:"totalItems"`
	Subtotal   struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"subtotal"`
}

type notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func TestPingAndMetrics(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	assert.Equal(t, http.StatusOK, v.do(http.MethodGet, "/ping", nil).Code)
	assert.Nil(t, v.cookie)

	v.do(http.MethodPost, "/api/v0/cart/items", strings.NewReader(`{"id":1}`))
	rec := v.do(http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(), `shopsphere_cart_operations_total{op="add"} 1`)
}

func TestCatalogFilter(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	var got catalogResponse
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/catalog", "", &got))
	require.NotNil(t, v.cookie)
	assert.Equal(t, 8, got.Count)
	assert.Equal(t, "all", got.Filter.Category)
	assert.Equal(t, 4, got.Items[0].Stars.Full)
	assert.Equal(t, 1, got.Items[0].Stars.Half)

	require.Equal(t, http.StatusOK, v.json(http.MethodPut, "/api/v0/catalog/filter",
		`{"category":"electronics","sort":"price-low"}`, &got))
	require.Equal(t, 4, got.Count)
	assert.Equal(t, "Bluetooth Fitness Tracker", got.Items[0].Name)
	assert.Equal(t, "price-ascending", got.Filter.Sort)

	// a partial update keeps the other fields
	require.Equal(t, http.StatusOK, v.json(http.MethodPut, "/api/v0/catalog/filter", `{"maxPrice":"100"}`, &got))
	assert.Equal(t, "electronics", got.Filter.Category)
	assert.Equal(t, 2, got.Count)

	// an inverted range is ignored
	require.Equal(t, http.StatusOK, v.json(http.MethodPut, "/api/v0/catalog/filter", `{"minPrice":500}`, &got))
	assert.Equal(t, "0", got.Filter.MinPrice)

	assert.Equal(t, http.StatusBadRequest, v.json(http.MethodPut, "/api/v0/catalog/filter", `{"maxPrice":"lots"}`, nil))

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/catalog/filter/reset", "", &got))
	assert.Equal(t, 8, got.Count)
	assert.Equal(t, "featured", got.Filter.Sort)

	var categories []string
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/catalog/categories", "", &categories))
	assert.Equal(t, []string{"all", "electronics", "accessories", "clothing", "home"}, categories)
}

func TestCatalogImportExport(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	f, err := zw.Create("items.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte("id,name,category,price\n20,Kettle,home,45.00\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v0/catalog/import?archiveType=zip", &archive)
	req.Header.Set("Content-Type", "application/zip")
	rec := httptest.NewRecorder()
	v.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"total_items":9,"total_categories":4,"total_price":"1419.92"}`, rec.Body.String())

	rec = v.do(http.MethodPost, "/api/v0/catalog/import", strings.NewReader("id,name\n1,x\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = v.do(http.MethodGet, "/api/v0/catalog/export?archiveType=tar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-tar", rec.Header().Get("Content-Type"))

	r, err := compress.NewReader(compress.Tar, io.NopCloser(rec.Body))
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "20,Kettle,home,45.00")
}

type failingKeeper struct{}

func (failingKeeper) Ping(context.Context) bool { return true }
func (failingKeeper) Close() bool               { return true }
func (failingKeeper) GetCatalogItems(context.Context) ([]models.CatalogItem, error) {
	return nil, nil
}
func (failingKeeper) InsertCatalogItems(context.Context, []models.CatalogItem) (*models.ImportResponse, error) {
	return nil, errors.New("database unavailable")
}

func TestCatalogImportFailures(t *testing.T) {
	const csv = "id,name,category,price\n20,Kettle,home,45.00\n"

	t.Run("storage failure", func(t *testing.T) {
		v := newVisitorWith(t, records.NewMemoryClient(), failingKeeper{})
		rec := v.do(http.MethodPost, "/api/v0/catalog/import", strings.NewReader(csv))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("oversized plain body", func(t *testing.T) {
		v := newVisitorWith(t, records.NewMemoryClient(), nil, controllers.WithMaxImportBytes(64))
		body := csv + "21,Teapot,home,35.00\n22,Toaster,home,55.00\n23,Blender,home,65.00\n"
		rec := v.do(http.MethodPost, "/api/v0/catalog/import", strings.NewReader(body))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("oversized archive", func(t *testing.T) {
		v := newVisitorWith(t, records.NewMemoryClient(), nil, controllers.WithMaxImportBytes(64))

		var archive bytes.Buffer
		zw := zip.NewWriter(&archive)
		f, err := zw.Create("items.csv")
		require.NoError(t, err)
		_, err = f.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v0/catalog/import?archiveType=zip", &archive)
		req.Header.Set("Content-Type", "application/zip")
		rec := httptest.NewRecorder()
		v.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestSessionCookies(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	// stateless routes do not open sessions
	assert.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/v0/icons/Moon", nil).Code)
	assert.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/v0/catalog/categories", nil).Code)
	assert.Nil(t, v.cookie)

	forged := &http.Cookie{Name: middleware.SessionCookie, Value: "6f1c2a5e-8d4b-4f7e-9a3c-1b2d3e4f5a6b"}
	v.cookie = forged
	require.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/v0/cart", nil).Code)
	require.NotNil(t, v.cookie)
	assert.NotEqual(t, forged.Value, v.cookie.Value)

	// the issued id is kept
	issued := v.cookie.Value
	rec := v.do(http.MethodGet, "/api/v0/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, issued, v.cookie.Value)
}

func TestCart(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	var cart cartResponse
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/cart/items", `{"id":7,"quantity":2}`, &cart))
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, "59.98", cart.Subtotal.Amount)
	assert.Equal(t, "EUR", cart.Subtotal.Currency)
	assert.Equal(t, "59.98", cart.Lines[0].LineTotal.Amount)

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/cart/items/7/increment", "", &cart))
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	require.Equal(t, http.StatusOK, v.json(http.MethodPatch, "/api/v0/cart/items/7", `{"quantity":0}`, &cart))
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	require.Equal(t, http.StatusOK, v.json(http.MethodPatch, "/api/v0/cart/items/7", `{"quantity":10}`, &cart))
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/cart/items/7/increment", "", &cart))
	assert.Equal(t, 10, cart.Lines[0].Quantity)

	assert.Equal(t, http.StatusBadRequest, v.json(http.MethodPatch, "/api/v0/cart/items/7", `{"quantity":11}`, nil))
	assert.Equal(t, http.StatusNotFound, v.json(http.MethodPost, "/api/v0/cart/items", `{"id":999}`, nil))
	assert.Equal(t, http.StatusBadRequest, v.json(http.MethodPost, "/api/v0/cart/items/abc/increment", "", nil))

	require.Equal(t, http.StatusOK, v.json(http.MethodDelete, "/api/v0/cart/items/7", "", &cart))
	assert.Empty(t, cart.Lines)
	assert.Equal(t, "0.00", cart.Subtotal.Amount)

	var notes []notice
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/notifications", "", &notes))
	assert.Equal(t, []notice{
		{Level: "success", Message: "Added Ceramic Coffee Mug Set to cart!"},
		{Level: "info", Message: "Item removed from cart"},
	}, notes)

	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/notifications", "", &notes))
	assert.Empty(t, notes)
}

func TestCartQuantityLimits(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	assert.Equal(t, http.StatusBadRequest, v.json(http.MethodPost, "/api/v0/cart/items",
		`{"id":1,"quantity":9223372036854775807}`, nil))

	var cart cartResponse
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/cart/items", `{"id":1,"quantity":10}`, &cart))
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/cart/items", `{"id":1,"quantity":10}`, &cart))
	assert.Equal(t, 20, cart.TotalItems)

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/cart/items/1/decrement", "", &cart))
	assert.Equal(t, 19, cart.Lines[0].Quantity)
	assert.False(t, strings.HasPrefix(cart.Subtotal.Amount, "-"))
}

func TestShowcase(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	type view struct {
		Product struct {
			ID int64 `json:"id"`
		} `json:"product"`
		Index    int  `json:"index"`
		Color    int  `json:"selectedColor"`
		Quantity int  `json:"quantity"`
		Added    bool `json:"isAddedToCart"`
	}

	var got view
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/showcase/previous", "", &got))
	assert.Equal(t, 2, got.Index)
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/showcase/next", "", &got))
	assert.Equal(t, 0, got.Index)

	require.Equal(t, http.StatusOK, v.json(http.MethodPut, "/api/v0/showcase/selection", `{"color":1}`, &got))
	assert.Equal(t, 1, got.Color)
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/showcase/increment", "", &got))
	assert.Equal(t, 2, got.Quantity)

	var added struct {
		Showcase view         `json:"showcase"`
		Cart     cartResponse `json:"cart"`
	}
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/showcase/add", "", &added))
	assert.True(t, added.Showcase.Added)
	assert.Equal(t, 2, added.Cart.TotalItems)
	assert.Equal(t, int64(101), added.Cart.Lines[0].Item.ID)

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/showcase/next", "", &got))
	assert.False(t, got.Added)
	assert.Equal(t, 1, got.Quantity)
}

func TestAuth(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	type navigation struct {
		Redirect string `json:"redirect"`
		Session  struct {
			User            map[string]any `json:"user"`
			IsAuthenticated bool           `json:"isAuthenticated"`
			Theme           string         `json:"theme"`
		} `json:"session"`
	}

	var nav navigation
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/auth/callback",
		`{"user":{"userId":"u-1","emailAddress":"a@b.c"},"path":"/login","query":"redirect=%2Fcart"}`, &nav))
	assert.Equal(t, "/cart", nav.Redirect)
	assert.True(t, nav.Session.IsAuthenticated)
	assert.Equal(t, "u-1", nav.Session.User["userId"])

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/auth/callback",
		`{"user":{"userId":"u-1"},"path":"/login","query":"redirect=https%3A%2F%2Fevil.example%2Fphish"}`, &nav))
	assert.Equal(t, "/", nav.Redirect)

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/session/theme/toggle", "", &nav.Session))
	assert.Equal(t, "dark", nav.Session.Theme)

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/auth/logout", "", &nav))
	assert.Equal(t, "/login", nav.Redirect)
	assert.False(t, nav.Session.IsAuthenticated)
	assert.Equal(t, "dark", nav.Session.Theme)

	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/auth/callback",
		`{"user":null,"path":"/checkout"}`, &nav))
	assert.Equal(t, "/login?redirect=%2Fcheckout", nav.Redirect)

	nav = navigation{}
	require.Equal(t, http.StatusOK, v.json(http.MethodPost, "/api/v0/auth/callback",
		`{"error":"popup closed","path":"/login"}`, &nav))
	assert.Empty(t, nav.Redirect)

	var notes []notice
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/notifications", "", &notes))
	assert.Equal(t, []notice{{Level: "error", Message: "Authentication failed. Please try again."}}, notes)
}

func TestIcons(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	var glyph struct{ Name, Symbol string }
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/icons/Moon", "", &glyph))
	assert.Equal(t, "Moon", glyph.Name)
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/icons/Nope", "", &glyph))
	assert.Equal(t, "HelpCircle", glyph.Name)
}

func TestRecords(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	var created records.Destination
	require.Equal(t, http.StatusCreated, v.json(http.MethodPost, "/api/v0/records/destination",
		`{"Name":"Lisbon","country":"Portugal"}`, &created))
	require.NotZero(t, created.ID)

	var list []records.Destination
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/records/destination?limit=10", "", &list))
	assert.Len(t, list, 1)

	target := "/api/v0/records/destination/" + jsonNumber(created.ID)
	var updated records.Destination
	require.Equal(t, http.StatusOK, v.json(http.MethodPut, target, `{"rating":4.5}`, &updated))
	assert.Equal(t, "Lisbon", updated.Name)

	assert.Equal(t, http.StatusNoContent, v.json(http.MethodDelete, target, "", nil))
	assert.Equal(t, http.StatusNotFound, v.json(http.MethodGet, target, "", nil))

	assert.Equal(t, http.StatusNotFound, v.json(http.MethodGet, "/api/v0/records/planets", "", nil))
	assert.Equal(t, http.StatusBadRequest, v.json(http.MethodGet, "/api/v0/records/destination?limit=x", "", nil))
}

func TestRecordsQuery(t *testing.T) {
	v := newVisitor(t, records.NewMemoryClient())

	for _, body := range []string{
		`{"Name":"Lisbon","country":"Portugal"}`,
		`{"Name":"Paris","country":"France"}`,
		`{"Name":"Lyon","country":"France"}`,
	} {
		require.Equal(t, http.StatusCreated, v.json(http.MethodPost, "/api/v0/records/destination", body, nil))
	}

	var list []records.Destination
	require.Equal(t, http.StatusOK, v.json(http.MethodGet,
		"/api/v0/records/destination?where=country:France&orderBy=Name&sort=desc", "", &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Paris", list[0].Name)
	assert.Equal(t, "Lyon", list[1].Name)

	list = nil
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/records/destination?fields=Name", "", &list))
	require.Len(t, list, 3)
	assert.Empty(t, list[0].Country)
}

type brokenClient struct{ records.MemoryClient }

func (*brokenClient) FetchRecords(context.Context, string, records.QueryOptions) ([]json.RawMessage, error) {
	return nil, errors.New("backend unavailable")
}

func TestRecordFailure(t *testing.T) {
	v := newVisitor(t, &brokenClient{})

	rec := v.do(http.MethodGet, "/api/v0/records/trip_plan1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to load trip_plan1 records"}`, rec.Body.String())

	var notes []notice
	require.Equal(t, http.StatusOK, v.json(http.MethodGet, "/api/v0/notifications", "", &notes))
	assert.Equal(t, []notice{{Level: "error", Message: "Failed to load trip_plan1 records"}}, notes)
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}
