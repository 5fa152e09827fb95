package cartapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	id     string
	body   cart.ItemRequest
}

type commerceAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (a *commerceAPI) record(r *http.Request, id string) recordedRequest {
	rec := recordedRequest{method: r.Method, path: r.URL.Path, id: id}
	if r.Body != nil && r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
	}
	a.mu.Lock()
	a.requests = append(a.requests, rec)
	a.mu.Unlock()
	return rec
}

func (a *commerceAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.requests)
	return a.requests[len(a.requests)-1]
}

func writeCart(w http.ResponseWriter, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (a *commerceAPI) routes() http.Handler {
	r := chi.NewRouter()
	writeAuthCart := func(w http.ResponseWriter, rec recordedRequest) {
		items := []map[string]any{}
		if rec.body.ProductID != 0 {
			items = append(items, map[string]any{
				"id": 1, "productId": rec.body.ProductID, "productName": "Lamp",
				"priceAtTime": "12.50", "quantity": rec.body.Quantity,
			})
		}
		writeCart(w, map[string]any{
			"id": 7, "userId": "user-1", "items": items, "totalAmount": 25.0,
			"createdAt": "2024-05-01T10:00:00",
		})
	}
	authCart := func(w http.ResponseWriter, req *http.Request) {
		writeAuthCart(w, a.record(req, ""))
	}
	anonCart := func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		a.record(req, id)
		if id == "expired" {
			writeCart(w, map[string]any{"id": "rotated", "items": []any{}, "totalAmount": 0})
			return
		}
		writeCart(w, map[string]any{"id": id, "items": []any{}, "totalAmount": 0})
	}
	noContent := func(w http.ResponseWriter, req *http.Request) {
		a.record(req, chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	}

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", authCart)
		r.Delete("/", noContent)
		r.Post("/items", authCart)
		r.Put("/items", authCart)
		r.Delete("/items/{productID}", authCart)
		r.Post("/merge/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			rec := a.record(req, id)
			if id == "missing" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"status":404,"error":"Not Found","message":"cart not found"}`))
				return
			}
			writeAuthCart(w, rec)
		})
		r.Route("/anonymous/{id}", func(r chi.Router) {
			r.Get("/", anonCart)
			r.Delete("/", noContent)
			r.Post("/items", anonCart)
			r.Put("/items", anonCart)
			r.Delete("/items/{productID}", anonCart)
		})
	})
	return r
}

func newTestClient(t *testing.T) (*Client, *commerceAPI) {
	t.Helper()
	api := &commerceAPI{}
	srv := httptest.NewServer(api.routes())
	t.Cleanup(srv.Close)

	transport, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	return New(transport), api
}

func TestGetCartDecodesServerCart(t *testing.T) {
	client, api := newTestClient(t)

	got, err := client.GetCart(context.Background())
	require.NoError(t, err)
	require.Equal(t, cart.CartID("7"), got.ID)
	require.Equal(t, "user-1", got.UserID)
	require.True(t, got.TotalAmount.Equal(decimal.NewFromInt(25)))
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got.CreatedAt.Time)
	require.Equal(t, recordedRequest{method: http.MethodGet, path: "/api/cart"}, api.last(t))
}

func TestAnonymousRoutes(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()
	item := cart.ItemRequest{ProductID: 42, Quantity: 2}

	cases := []struct {
		name   string
		call   func() (*cart.Cart, error)
		method string
		path   string
		body   cart.ItemRequest
	}{
		{
			name:   "get or create",
			call:   func() (*cart.Cart, error) { return client.GetOrCreateAnonymous(ctx, "abc") },
			method: http.MethodGet,
			path:   "/api/cart/anonymous/abc",
		},
		{
			name:   "add",
			call:   func() (*cart.Cart, error) { return client.AddAnonymousItem(ctx, "abc", item) },
			method: http.MethodPost,
			path:   "/api/cart/anonymous/abc/items",
			body:   item,
		},
		{
			name:   "update",
			call:   func() (*cart.Cart, error) { return client.UpdateAnonymousItem(ctx, "abc", item) },
			method: http.MethodPut,
			path:   "/api/cart/anonymous/abc/items",
			body:   item,
		},
		{
			name:   "remove",
			call:   func() (*cart.Cart, error) { return client.RemoveAnonymousItem(ctx, "abc", 42) },
			method: http.MethodDelete,
			path:   "/api/cart/anonymous/abc/items/42",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.call()
			require.NoError(t, err)
			require.Equal(t, cart.CartID("abc"), got.ID)

			req := api.last(t)
			require.Equal(t, tc.method, req.method)
			require.Equal(t, tc.path, req.path)
			require.Equal(t, "abc", req.id)
			require.Equal(t, tc.body, req.body)
		})
	}
}

func TestAnonymousResponseCarriesRotatedID(t *testing.T) {
	client, _ := newTestClient(t)

	got, err := client.AddAnonymousItem(context.Background(), "expired", cart.ItemRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, cart.CartID("rotated"), got.ID)
}

func TestAuthenticatedMutations(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()
	item := cart.ItemRequest{ProductID: 42, Quantity: 2}

	added, err := client.AddItem(ctx, item)
	require.NoError(t, err)
	line, ok := added.Item(42)
	require.True(t, ok)
	require.Equal(t, 2, line.Quantity)
	require.True(t, line.PriceAtTime.Equal(decimal.RequireFromString("12.50")))
	require.Equal(t, recordedRequest{method: http.MethodPost, path: "/api/cart/items", body: item}, api.last(t))

	_, err = client.UpdateItem(ctx, item)
	require.NoError(t, err)
	require.Equal(t, recordedRequest{method: http.MethodPut, path: "/api/cart/items", body: item}, api.last(t))

	_, err = client.RemoveItem(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, recordedRequest{method: http.MethodDelete, path: "/api/cart/items/42"}, api.last(t))
}

func TestClear(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Clear(ctx))
	require.Equal(t, recordedRequest{method: http.MethodDelete, path: "/api/cart"}, api.last(t))

	require.NoError(t, client.ClearAnonymous(ctx, "abc"))
	require.Equal(t, recordedRequest{method: http.MethodDelete, path: "/api/cart/anonymous/abc", id: "abc"}, api.last(t))
}

func TestMerge(t *testing.T) {
	client, api := newTestClient(t)

	merged, err := client.Merge(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, cart.CartID("7"), merged.ID)
	require.Equal(t, recordedRequest{method: http.MethodPost, path: "/api/cart/merge/abc", id: "abc"}, api.last(t))
	require.Len(t, api.requests, 1, "merge is a single request")
}

func TestMergeNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Merge(context.Background(), "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, "cart not found", details["message"])
}

func TestEmptyAnonymousIDIsRejected(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetOrCreateAnonymous(ctx, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.True(t, pkgerrors.IsCode(client.ClearAnonymous(ctx, ""), pkgerrors.CodeValidation))
	_, err = client.Merge(ctx, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Empty(t, api.requests)
}

func TestReconcilerOverHTTP(t *testing.T) {
	client, api := newTestClient(t)
	identity := &staticIdentity{}
	store := &mapStore{data: map[string]string{cart.AnonymousIDKey: "expired"}}

	rec, err := cart.New(context.Background(), client, identity, store)
	require.NoError(t, err)

	_, err = rec.FetchOrInitialize(context.Background())
	require.NoError(t, err)
	id, ok := rec.AnonymousID()
	require.True(t, ok)
	require.Equal(t, "rotated", id)
	require.Equal(t, "rotated", store.data[cart.AnonymousIDKey])
	require.Equal(t, "/api/cart/anonymous/expired", api.last(t).path)
}

type staticIdentity struct{ authenticated bool }

func (s *staticIdentity) Authenticated(context.Context) bool { return s.authenticated }
func (s *staticIdentity) Login(context.Context) error        { return nil }

type mapStore struct{ data map[string]string }

func (m *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *mapStore) Remove(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}
