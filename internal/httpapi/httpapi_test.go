package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezmobilemechanic/crm/internal/domain"
	"github.com/ezmobilemechanic/crm/internal/storage/memory"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	store := memory.NewStore()
	container := domain.New(domain.Options{
		CustomerRepo: memory.NewCustomerRepository(store),
		ProductRepo:  memory.NewProductRepository(store),
		OrderRepo:    memory.NewOrderRepository(store),
	})

	mux := http.NewServeMux()
	Register(mux, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), container)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestPing(t *testing.T) {
	rec := do(t, newTestMux(t), http.MethodGet, "/v1/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestCustomerLifecycle(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/v1/customers", `{"name":"Alice","email":"alice@example.com","phone":"+14155550100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(string)

	rec = do(t, mux, http.MethodPost, "/v1/customers", `{"name":"Again","email":"ALICE@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, mux, http.MethodPost, "/v1/customers", `{"name":"Bad","email":"bad@example.com","phone":"12"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone", decode(t, rec)["field"])

	rec = do(t, mux, http.MethodGet, "/v1/customers/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", decode(t, rec)["email"])

	rec = do(t, mux, http.MethodPatch, "/v1/customers/"+id, `{"name":"Alice Smith"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice Smith", decode(t, rec)["name"])

	rec = do(t, mux, http.MethodGet, "/v1/customers?name=smith&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, mux, http.MethodGet, "/v1/customers?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/v1/customers/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/v1/customers/"+id, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCustomerBulkCreate(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/v1/customers/bulk", `{"customers":[
		{"name":"One","email":"one@example.com"},
		{"name":"Dup","email":"one@example.com"},
		{"name":"Two","email":"two@example.com","phone":"904-555-0101"}
	]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Len(t, body["customers"], 2)
	assert.Equal(t, []any{"Row 2: Email 'one@example.com' is duplicated in this request"}, body["errors"])

	rec = do(t, mux, http.MethodGet, "/v1/customers/bulk", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOrdersFlow(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/v1/customers", `{"name":"Bob","email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	customerID := decode(t, rec)["id"].(string)

	rec = do(t, mux, http.MethodPost, "/v1/products", `{"name":"Laptop","price":99999,"stock":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID := decode(t, rec)["id"].(string)

	rec = do(t, mux, http.MethodPost, "/v1/products", `{"name":"Free","price":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/v1/products/"+productID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodPost, "/v1/orders",
		`{"customer_id":"`+customerID+`","items":[{"product_id":"`+productID+`","quantity":2}],"order_date":"2026-10-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode(t, rec)
	assert.EqualValues(t, 199998, order["total_amount"])
	orderID := order["id"].(string)

	rec = do(t, mux, http.MethodPost, "/v1/orders", `{"customer_id":"`+customerID+`","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/v1/orders", `{"customer_id":"nobody","items":[{"product_id":"`+productID+`"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/v1/orders/"+orderID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodGet, "/v1/orders?since=2026-09-30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, mux, http.MethodGet, "/v1/orders?since=2026-10-02T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])

	rec = do(t, mux, http.MethodGet, "/v1/orders?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/v1/customers/"+customerID+"/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, mux, http.MethodGet, "/v1/customers/missing/orders", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductRangeFiltersAndRestock(t *testing.T) {
	mux := newTestMux(t)

	for _, body := range []string{
		`{"name":"Cable","price":500,"stock":2}`,
		`{"name":"Adapter","price":1500,"stock":9}`,
		`{"name":"Monitor","price":25000,"stock":40}`,
	} {
		rec := do(t, mux, http.MethodPost, "/v1/products", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, mux, http.MethodGet, "/v1/products?price_gte=1000&order_by=-price", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode(t, rec)["data"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "Monitor", list[0].(map[string]any)["name"])

	rec = do(t, mux, http.MethodGet, "/v1/products?low_stock=true&stock_gte=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	for _, path := range []string{
		"/v1/products?price_gte=cheap",
		"/v1/products?low_stock=maybe",
		"/v1/products?order_by=password",
	} {
		rec = do(t, mux, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec = do(t, mux, http.MethodPost, "/v1/products/restock-low", `{"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/v1/products/restock-low", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 19, body["data"].([]any)[0].(map[string]any)["stock"])

	rec = do(t, mux, http.MethodGet, "/v1/products/restock-low", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOrderRangeFilters(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, http.MethodPost, "/v1/customers", `{"name":"Alice Jones","email":"alice@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	alice := decode(t, rec)["id"].(string)
	rec = do(t, mux, http.MethodPost, "/v1/customers", `{"name":"Bob","email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	bob := decode(t, rec)["id"].(string)
	rec = do(t, mux, http.MethodPost, "/v1/products", `{"name":"Dock","price":9000,"stock":50}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	dock := decode(t, rec)["id"].(string)

	place := func(customerID string, qty int, date string) {
		t.Helper()
		body := `{"customer_id":"` + customerID + `","items":[{"product_id":"` + dock + `","quantity":` +
			strconv.Itoa(qty) + `}],"order_date":"` + date + `"}`
		rec := do(t, mux, http.MethodPost, "/v1/orders", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	place(alice, 1, "2026-03-01T10:00:00Z")
	place(alice, 3, "2026-03-05T10:00:00Z")
	place(bob, 2, "2026-03-09T10:00:00Z")

	rec = do(t, mux, http.MethodGet, "/v1/orders?total_amount_gte=18000&order_by=total_amount", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode(t, rec)["data"].([]any)
	require.Len(t, list, 2)
	assert.EqualValues(t, 18000, list[0].(map[string]any)["total_amount"])

	rec = do(t, mux, http.MethodGet, "/v1/orders?order_date_gte=2026-03-01&order_date_lte=2026-03-05", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	rec = do(t, mux, http.MethodGet, "/v1/orders?customer_name=jones&total_amount_lte=9000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, mux, http.MethodGet, "/v1/orders?order_date_gte=March", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/v1/customers?created_at_gte=2000-01-01&order_by=-name", "")
	require.Equal(t, http.StatusOK, rec.Code)
	customersList := decode(t, rec)["data"].([]any)
	require.Len(t, customersList, 2)
	assert.Equal(t, "Bob", customersList[0].(map[string]any)["name"])

	rec = do(t, mux, http.MethodGet, "/v1/customers?created_at_lte=2000-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])
}

func TestNotImplementedBackend(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), domain.New(domain.Options{}))

	rec := do(t, mux, http.MethodGet, "/v1/customers", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
