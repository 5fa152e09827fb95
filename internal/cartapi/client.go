package cartapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/angelmondragon/storefront-client/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
)

const (
	cartPath      = "/api/cart"
	itemsPath     = cartPath + "/items"
	anonymousPath = cartPath + "/anonymous/"
	mergePath     = cartPath + "/merge/"
)

// Transport is the subset of apiclient.Client used to reach the commerce API.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Client implements cart.Remote over the commerce REST API.
type Client struct {
	api Transport
}

var _ cart.Remote = (*Client)(nil)

// New wraps api.
func New(api Transport) *Client {
	return &Client{api: api}
}

func (c *Client) GetCart(ctx context.Context) (*cart.Cart, error) {
	return c.read(ctx, cartPath)
}

func (c *Client) GetOrCreateAnonymous(ctx context.Context, anonymousID string) (*cart.Cart, error) {
	path, err := anonymousCartPath(anonymousID)
	if err != nil {
		return nil, err
	}
	return c.read(ctx, path)
}

func (c *Client) AddItem(ctx context.Context, item cart.ItemRequest) (*cart.Cart, error) {
	var out cart.Cart
	if err := c.api.Post(ctx, itemsPath, item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddAnonymousItem(ctx context.Context, anonymousID string, item cart.ItemRequest) (*cart.Cart, error) {
	path, err := anonymousCartPath(anonymousID)
	if err != nil {
		return nil, err
	}
	var out cart.Cart
	if err := c.api.Post(ctx, path+"/items", item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveItem(ctx context.Context, productID int64) (*cart.Cart, error) {
	var out cart.Cart
	if err := c.api.Delete(ctx, itemsPath+"/"+productSegment(productID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveAnonymousItem(ctx context.Context, anonymousID string, productID int64) (*cart.Cart, error) {
	path, err := anonymousCartPath(anonymousID)
	if err != nil {
		return nil, err
	}
	var out cart.Cart
	if err := c.api.Delete(ctx, path+"/items/"+productSegment(productID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateItem(ctx context.Context, item cart.ItemRequest) (*cart.Cart, error) {
	var out cart.Cart
	if err := c.api.Put(ctx, itemsPath, item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAnonymousItem(ctx context.Context, anonymousID string, item cart.ItemRequest) (*cart.Cart, error) {
	path, err := anonymousCartPath(anonymousID)
	if err != nil {
		return nil, err
	}
	var out cart.Cart
	if err := c.api.Put(ctx, path+"/items", item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Clear(ctx context.Context) error {
	return c.api.Delete(ctx, cartPath, nil)
}

func (c *Client) ClearAnonymous(ctx context.Context, anonymousID string) error {
	path, err := anonymousCartPath(anonymousID)
	if err != nil {
		return err
	}
	return c.api.Delete(ctx, path, nil)
}

// Merge folds the anonymous cart into the authenticated user's cart and returns the result.
func (c *Client) Merge(ctx context.Context, anonymousID string) (*cart.Cart, error) {
	if anonymousID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "anonymous cart id is required")
	}
	var out cart.Cart
	if err := c.api.Post(ctx, mergePath+url.PathEscape(anonymousID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) read(ctx context.Context, path string) (*cart.Cart, error) {
	var out cart.Cart
	if err := c.api.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func anonymousCartPath(anonymousID string) (string, error) {
	if anonymousID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "anonymous cart id is required")
	}
	return anonymousPath + url.PathEscape(anonymousID), nil
}

func productSegment(productID int64) string {
	return strconv.FormatInt(productID, 10)
}
