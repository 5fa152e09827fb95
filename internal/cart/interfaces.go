package cart

import "context"

// AnonymousIDKey is the local store slot holding the anonymous cart id.
const AnonymousIDKey = "cart_id"

// Remote is the commerce API's cart surface. Anonymous calls may answer with a cart whose id differs
// from the one sent.
type Remote interface {
	GetCart(ctx context.Context) (*Cart, error)
	GetOrCreateAnonymous(ctx context.Context, anonymousID string) (*Cart, error)
	AddItem(ctx context.Context, item ItemRequest) (*Cart, error)
	AddAnonymousItem(ctx context.Context, anonymousID string, item ItemRequest) (*Cart, error)
	RemoveItem(ctx context.Context, productID int64) (*Cart, error)
	RemoveAnonymousItem(ctx context.Context, anonymousID string, productID int64) (*Cart, error)
	UpdateItem(ctx context.Context, item ItemRequest) (*Cart, error)
	UpdateAnonymousItem(ctx context.Context, anonymousID string, item ItemRequest) (*Cart, error)
	Clear(ctx context.Context) error
	ClearAnonymous(ctx context.Context, anonymousID string) error
	Merge(ctx context.Context, anonymousID string) (*Cart, error)
}

// Identity reports the authentication state. It is sampled once at the start of every operation.
type Identity interface {
	Authenticated(ctx context.Context) bool
	Login(ctx context.Context) error
}

// IDStore is the local persistent key/value slot surviving restarts.
type IDStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type logouter interface {
	Logout(ctx context.Context) error
}
