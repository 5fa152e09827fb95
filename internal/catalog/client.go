package catalog

import (
	"context"
	"net/url"
	"strconv"

	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/pagination"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/angelmondragon/storefront-client/pkg/validators"
	"github.com/shopspring/decimal"
)

const productsPath = "/api/products"

// Transport issues GET requests against the commerce API.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Product is a catalog listing row.
type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	ImageURL   string          `json:"imageUrl,omitempty"`
	CategoryID int64           `json:"categoryId,omitempty"`
}

// ProductDetail is the full product view.
type ProductDetail struct {
	Product
	Description  string          `json:"description,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
	CreatedAt    types.Timestamp `json:"createdAt"`
	UpdatedAt    types.Timestamp `json:"updatedAt"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Content []Product `json:"content"`
	pagination.Page
}

// Filters narrows a product listing. Zero values are left out of the query.
type Filters struct {
	CategoryID int64               `json:"categoryId" validate:"gte=0"`
	MinPrice   *decimal.Decimal    `json:"minPrice"`
	MaxPrice   *decimal.Decimal    `json:"maxPrice"`
	Search     string              `json:"search" validate:"max=200"`
	Page       int                 `json:"page"`
	Size       int                 `json:"size"`
	Sort       enums.ProductSort   `json:"sort" validate:"omitempty,oneof=name price"`
	Direction  enums.SortDirection `json:"direction" validate:"omitempty,oneof=asc desc"`
}

// Client reads the product catalog.
type Client struct {
	api Transport
}

func New(api Transport) *Client {
	return &Client{api: api}
}

// ListProducts returns one page of products. Page defaults to 0, size to 10, sorting to name ascending.
func (c *Client) ListProducts(ctx context.Context, filters Filters) (*ProductPage, error) {
	query, err := filters.query()
	if err != nil {
		return nil, err
	}
	var out ProductPage
	if err := c.api.Get(ctx, productsPath, query, &out); err != nil {
		return nil, err
	}
	if out.Content == nil {
		out.Content = []Product{}
	}
	return &out, nil
}

// GetProduct returns the detail view of one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	var out ProductDetail
	if err := c.api.Get(ctx, productsPath+"/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f Filters) query() (url.Values, error) {
	if err := validators.Struct(f); err != nil {
		return nil, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"minPrice": "must not exceed maxPrice"})
	}

	page := pagination.Normalize(pagination.Params{Page: f.Page, Size: f.Size})
	sort := f.Sort
	if sort == "" {
		sort = enums.ProductSortName
	}
	direction := f.Direction
	if direction == "" {
		direction = enums.SortAsc
	}

	q := url.Values{}
	if f.CategoryID > 0 {
		q.Set("categoryId", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	q.Set("page", strconv.Itoa(page.Page))
	q.Set("size", strconv.Itoa(page.Size))
	q.Set("sort", sort.String())
	q.Set("direction", direction.String())
	return q, nil
}
