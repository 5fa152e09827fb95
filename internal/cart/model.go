package cart

import (
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/shopspring/decimal"
)

// CartID identifies a cart. Anonymous carts use client generated UUIDs, authenticated carts use the
// server's numeric ids; both travel as strings here.
type CartID = types.FlexID

// Cart is the server's view of a cart. TotalAmount is computed by the server and never recalculated locally.
type Cart struct {
	ID          CartID          `json:"id"`
	UserID      string          `json:"userId,omitempty"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   types.Timestamp `json:"createdAt"`
}

// LineItem is a product in a cart. PriceAtTime is the price captured when the item was added.
type LineItem struct {
	ID          int64           `json:"id,omitempty"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// ItemRequest is the payload for adding an item or setting its quantity.
type ItemRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

// Item returns the line item for productID, if present.
func (c *Cart) Item(productID int64) (LineItem, bool) {
	if c == nil {
		return LineItem{}, false
	}
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart is absent or holds no items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Clone returns a deep copy so callers cannot mutate reconciler state.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Items != nil {
		out.Items = make([]LineItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return &out
}
