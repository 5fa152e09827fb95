package orders

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/pagination"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/angelmondragon/storefront-client/pkg/validators"
	"github.com/shopspring/decimal"
)

const ordersPath = "/api/orders"

// Transport is the subset of apiclient.Client used for orders.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Order struct {
	ID          int64             `json:"id"`
	UserID      string            `json:"userId"`
	OrderDate   types.Timestamp   `json:"orderDate"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
}

type Item struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// Detail is an order with its line items.
type Detail struct {
	Order
	Items []Item `json:"items"`
}

// List is one page of the user's orders.
type List struct {
	Orders        []Order `json:"orders"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
	TotalPages    int     `json:"totalPages"`
	TotalElements int64   `json:"totalElements"`
}

// ItemList is one page of an order's items. Paging fields are absent when the server returns all items.
type ItemList struct {
	Items         []Item `json:"items"`
	Page          *int   `json:"page,omitempty"`
	Size          *int   `json:"size,omitempty"`
	TotalPages    *int   `json:"totalPages,omitempty"`
	TotalElements *int64 `json:"totalElements,omitempty"`
}

// Query filters the order listing. Dates are sent as UTC RFC3339.
type Query struct {
	Status    enums.OrderStatus `json:"status" validate:"omitempty,oneof=PENDING COMPLETED CANCELLED"`
	StartDate time.Time
	EndDate   time.Time
	Page      int
	Size      int
}

// Client reads and deletes the authenticated user's orders.
type Client struct {
	api Transport
}

func New(api Transport) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context, q Query) (*List, error) {
	query, err := q.values()
	if err != nil {
		return nil, err
	}
	var out List
	if err := c.api.Get(ctx, ordersPath, query, &out); err != nil {
		return nil, err
	}
	if out.Orders == nil {
		out.Orders = []Order{}
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Detail, error) {
	path, err := orderPath(id)
	if err != nil {
		return nil, err
	}
	var out Detail
	if err := c.api.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Items returns a page of the order's items.
func (c *Client) Items(ctx context.Context, id int64, page, size int) (*ItemList, error) {
	path, err := orderPath(id)
	if err != nil {
		return nil, err
	}
	p := pagination.Normalize(pagination.Params{Page: page, Size: size})
	query := url.Values{}
	query.Set("page", strconv.Itoa(p.Page))
	query.Set("size", strconv.Itoa(p.Size))

	var out ItemList
	if err := c.api.Get(ctx, path+"/items", query, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []Item{}
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	path, err := orderPath(id)
	if err != nil {
		return err
	}
	return c.api.Delete(ctx, path, nil)
}

func (q Query) values() (url.Values, error) {
	if err := validators.Struct(q); err != nil {
		return nil, err
	}
	if !q.StartDate.IsZero() && !q.EndDate.IsZero() && q.EndDate.Before(q.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"endDate": "must not be before startDate"})
	}

	p := pagination.Normalize(pagination.Params{Page: q.Page, Size: q.Size})
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", string(q.Status))
	}
	if !q.StartDate.IsZero() {
		values.Set("startDate", q.StartDate.UTC().Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		values.Set("endDate", q.EndDate.UTC().Format(time.RFC3339))
	}
	values.Set("page", strconv.Itoa(p.Page))
	values.Set("size", strconv.Itoa(p.Size))
	return values, nil
}

func orderPath(id int64) (string, error) {
	if id <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	return ordersPath + "/" + strconv.FormatInt(id, 10), nil
}
