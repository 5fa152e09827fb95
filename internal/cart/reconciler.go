package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/angelmondragon/storefront-client/pkg/validators"
	"golang.org/x/sync/semaphore"
)

const (
	opFetch  = "fetch"
	opAdd    = "add_item"
	opRemove = "remove_item"
	opUpdate = "update_quantity"
	opClear  = "clear"
	opSync   = "sync"
	opLogout = "logout"

	eventIDGenerated   = "id_generated"
	eventIDAdopted     = "id_adopted"
	eventSessionReset  = "session_reset"
	eventMerged        = "merged"
	eventMergeFallback = "merge_fallback"
)

// State is a point-in-time copy of what the reconciler holds.
type State struct {
	Cart        *Cart
	AnonymousID string
}

// Reconciler owns the active cart and the anonymous cart id, routing every operation to the anonymous
// or authenticated API surface depending on the session at call time.
//
// Identifier adoption and the cart write are applied under one lock, store first, so no reader sees a
// cart that belongs to an id other than the one persisted.
type Reconciler struct {
	remote   Remote
	identity Identity
	store    IDStore

	logg        *logger.Logger
	metrics     *metrics.OperationMetrics
	newID       func() string
	clearPolicy ClearPolicy
	serial      *semaphore.Weighted

	mu          sync.RWMutex
	anonymousID string
	cart        *Cart

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New builds a reconciler and loads the anonymous cart id from store.
func New(ctx context.Context, remote Remote, identity Identity, store IDStore, opts ...Option) (*Reconciler, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote cart service required")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	if store == nil {
		return nil, fmt.Errorf("local id store required")
	}

	r := &Reconciler{
		remote:   remote,
		identity: identity,
		store:    store,
		logg:     logger.Nop(),
		newID:    defaultIDGenerator,
		subs:     map[int]func(State){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	id, ok, err := store.Get(ctx, AnonymousIDKey)
	if err != nil {
		return nil, fmt.Errorf("load anonymous cart id: %w", err)
	}
	if ok {
		r.anonymousID = id
	}
	return r, nil
}

// Cart returns a copy of the active cart, or nil when none is loaded.
func (r *Reconciler) Cart() *Cart {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart.Clone()
}

// AnonymousID returns the anonymous cart id held in memory.
func (r *Reconciler) AnonymousID() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.anonymousID, r.anonymousID != ""
}

// State returns a consistent copy of cart and anonymous id.
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Session samples the identity provider and returns the session the next call would be routed with.
func (r *Reconciler) Session(ctx context.Context) Session {
	if r.identity.Authenticated(ctx) {
		return Authenticated{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Anonymous{ID: r.anonymousID}
}

// FetchOrInitialize loads the cart for the current session. Anonymous sessions without an id get a
// fresh one and the server creates the cart. When the anonymous fetch fails the id is dropped so the
// next attempt starts a new session.
func (r *Reconciler) FetchOrInitialize(ctx context.Context) (*Cart, error) {
	return r.run(ctx, opFetch, r.fetch)
}

// AddItem adds quantity of productID. On failure the cart and id keep their previous values.
func (r *Reconciler) AddItem(ctx context.Context, productID int64, quantity int) (*Cart, error) {
	item := ItemRequest{ProductID: productID, Quantity: quantity}
	return r.run(ctx, opAdd, func(ctx context.Context) (*Cart, error) {
		if err := validators.Struct(item); err != nil {
			return nil, err
		}
		return r.mutate(ctx, "add item", true,
			func(ctx context.Context) (*Cart, error) { return r.remote.AddItem(ctx, item) },
			func(ctx context.Context, id string) (*Cart, error) { return r.remote.AddAnonymousItem(ctx, id, item) },
		)
	})
}

// RemoveItem removes productID. Anonymous sessions without an id have nothing to remove: no call is
// made and (nil, nil) is returned.
func (r *Reconciler) RemoveItem(ctx context.Context, productID int64) (*Cart, error) {
	return r.run(ctx, opRemove, func(ctx context.Context) (*Cart, error) {
		return r.mutate(ctx, "remove item", false,
			func(ctx context.Context) (*Cart, error) { return r.remote.RemoveItem(ctx, productID) },
			func(ctx context.Context, id string) (*Cart, error) {
				return r.remote.RemoveAnonymousItem(ctx, id, productID)
			},
		)
	})
}

// UpdateQuantity sets the quantity of productID. Quantities below one are rejected without a server
// call; callers route those to RemoveItem.
func (r *Reconciler) UpdateQuantity(ctx context.Context, productID int64, quantity int) (*Cart, error) {
	item := ItemRequest{ProductID: productID, Quantity: quantity}
	return r.run(ctx, opUpdate, func(ctx context.Context) (*Cart, error) {
		if err := validators.Struct(item); err != nil {
			return nil, err
		}
		return r.mutate(ctx, "update quantity", true,
			func(ctx context.Context) (*Cart, error) { return r.remote.UpdateItem(ctx, item) },
			func(ctx context.Context, id string) (*Cart, error) { return r.remote.UpdateAnonymousItem(ctx, id, item) },
		)
	})
}

// ClearCart empties the cart. With ClearEager (the default) local state and the persisted id are
// dropped before the server call and stay dropped if that call fails; the error is still returned.
func (r *Reconciler) ClearCart(ctx context.Context) error {
	_, err := r.run(ctx, opClear, func(ctx context.Context) (*Cart, error) {
		session := r.Session(ctx)
		if r.clearPolicy == ClearStaged {
			if err := r.clearRemote(ctx, session); err != nil {
				return nil, err
			}
			return nil, r.dropLocal(ctx)
		}
		if err := r.dropLocal(ctx); err != nil {
			return nil, err
		}
		return nil, r.clearRemote(ctx, session)
	})
	return err
}

// SyncWithServer merges the anonymous cart into the authenticated one after login. It does nothing
// while anonymous. A failed merge keeps the anonymous id and falls back to fetching the authenticated
// cart. Calling it again after a merge just fetches.
func (r *Reconciler) SyncWithServer(ctx context.Context) (*Cart, error) {
	return r.run(ctx, opSync, func(ctx context.Context) (*Cart, error) {
		if !r.identity.Authenticated(ctx) {
			return r.Cart(), nil
		}
		id, ok := r.AnonymousID()
		if !ok {
			return r.fetch(ctx)
		}

		ctx = r.logg.WithCartID(ctx, id)
		r.logg.Debug(ctx, "merging anonymous cart")
		merged, err := r.remote.Merge(ctx, id)
		if err == nil {
			err = ensureCart(merged)
		}
		if err != nil {
			r.logg.Error(ctx, "failed to merge carts", err)
			r.metrics.IncEvent(eventMergeFallback)
			return r.fetch(ctx)
		}

		if err := r.completeMerge(ctx, merged); err != nil {
			return nil, err
		}
		r.metrics.IncEvent(eventMerged)
		return merged.Clone(), nil
	})
}

// Logout drops the in-memory cart and ends the identity session when the provider supports it.
// The next FetchOrInitialize starts over on the anonymous path.
func (r *Reconciler) Logout(ctx context.Context) error {
	_, err := r.run(ctx, opLogout, func(ctx context.Context) (*Cart, error) {
		r.mu.Lock()
		r.cart = nil
		state := r.snapshotLocked()
		r.mu.Unlock()
		r.notify(state)

		if l, ok := r.identity.(logouter); ok {
			if err := l.Logout(ctx); err != nil {
				r.logg.Error(ctx, "identity logout failed", err)
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// Subscribe registers fn to receive a copy of the state after every change. The returned func
// unregisters it.
func (r *Reconciler) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
	r.subsMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subsMu.Unlock()

	return func() {
		r.subsMu.Lock()
		delete(r.subs, id)
		r.subsMu.Unlock()
	}
}

func (r *Reconciler) run(ctx context.Context, op string, fn func(context.Context) (*Cart, error)) (result *Cart, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe(op, started, err) }()

	if r.serial != nil {
		if err := r.serial.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("waiting to %s: %w", op, err)
		}
		defer r.serial.Release(1)
	}

	ctx = r.logg.WithOperation(ctx, op)
	return fn(ctx)
}

func (r *Reconciler) fetch(ctx context.Context) (*Cart, error) {
	switch s := r.Session(ctx).(type) {
	case Authenticated:
		ctx = r.logg.WithSession(ctx, s.Kind())
		r.logg.Debug(ctx, "fetching server cart")
		fetched, err := r.remote.GetCart(ctx)
		if err == nil {
			err = ensureCart(fetched)
		}
		if err != nil {
			r.logg.Error(ctx, "failed to fetch server cart", err)
			return nil, err
		}
		r.applyAuthenticated(fetched)
		return fetched.Clone(), nil

	case Anonymous:
		id := s.ID
		if !s.HasID() {
			id = r.newID()
		}
		ctx = r.logg.WithCartID(r.logg.WithSession(ctx, s.Kind()), id)
		r.logg.Debug(ctx, "fetching anonymous cart")
		fetched, err := r.remote.GetOrCreateAnonymous(ctx, id)
		if err == nil {
			err = ensureCart(fetched)
		}
		if err != nil {
			r.logg.Error(ctx, "failed to fetch anonymous cart", err)
			if resetErr := r.resetAnonymousID(ctx); resetErr != nil {
				r.logg.Error(ctx, "failed to reset anonymous cart id", resetErr)
			}
			return nil, err
		}
		if err := r.applyAnonymous(ctx, id, fetched); err != nil {
			return nil, err
		}
		return fetched.Clone(), nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown session kind")
}

// mutate routes a cart mutation. generate controls whether an anonymous session without an id gets
// one; when it does not, the call is skipped.
func (r *Reconciler) mutate(
	ctx context.Context,
	action string,
	generate bool,
	authenticated func(context.Context) (*Cart, error),
	anonymous func(context.Context, string) (*Cart, error),
) (*Cart, error) {
	switch s := r.Session(ctx).(type) {
	case Authenticated:
		ctx = r.logg.WithSession(ctx, s.Kind())
		r.logg.Debug(ctx, action)
		updated, err := authenticated(ctx)
		if err == nil {
			err = ensureCart(updated)
		}
		if err != nil {
			r.logg.Error(ctx, "failed to "+action+" on server cart", err)
			return nil, err
		}
		r.applyAuthenticated(updated)
		return updated.Clone(), nil

	case Anonymous:
		id := s.ID
		if !s.HasID() {
			if !generate {
				return nil, nil
			}
			id = r.newID()
		}
		ctx = r.logg.WithCartID(r.logg.WithSession(ctx, s.Kind()), id)
		r.logg.Debug(ctx, action)
		updated, err := anonymous(ctx, id)
		if err == nil {
			err = ensureCart(updated)
		}
		if err != nil {
			r.logg.Error(ctx, "failed to "+action+" on anonymous cart", err)
			return nil, err
		}
		if err := r.applyAnonymous(ctx, id, updated); err != nil {
			return nil, err
		}
		return updated.Clone(), nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown session kind")
}

func (r *Reconciler) clearRemote(ctx context.Context, session Session) error {
	switch s := session.(type) {
	case Authenticated:
		if err := r.remote.Clear(ctx); err != nil {
			r.logg.Error(ctx, "failed to clear server cart", err)
			return err
		}
	case Anonymous:
		if !s.HasID() {
			return nil
		}
		if err := r.remote.ClearAnonymous(ctx, s.ID); err != nil {
			r.logg.Error(r.logg.WithCartID(ctx, s.ID), "failed to clear anonymous cart", err)
			return err
		}
	}
	return nil
}

func (r *Reconciler) applyAuthenticated(updated *Cart) {
	r.mu.Lock()
	r.cart = updated.Clone()
	state := r.snapshotLocked()
	r.mu.Unlock()
	r.notify(state)
}

// applyAnonymous stores the cart returned for a request sent with id sent. The id the server answered
// with wins; it is persisted before memory is touched.
func (r *Reconciler) applyAnonymous(ctx context.Context, sent string, updated *Cart) error {
	target := sent
	if !updated.ID.IsZero() {
		target = updated.ID.String()
	}

	r.mu.Lock()
	if target != r.anonymousID {
		if err := r.store.Set(ctx, AnonymousIDKey, target); err != nil {
			r.mu.Unlock()
			r.logg.Error(ctx, "failed to persist anonymous cart id", err)
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist anonymous cart id")
		}
		r.anonymousID = target
		if target != sent {
			r.logg.Debug(r.logg.WithField(ctx, "new_cart_id", target), "new cart id received")
			r.metrics.IncEvent(eventIDAdopted)
		} else {
			r.metrics.IncEvent(eventIDGenerated)
		}
	}
	r.cart = updated.Clone()
	state := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(state)
	return nil
}

// resetAnonymousID forgets the anonymous id. Memory is cleared even when the store refuses the
// removal, so the next fetch starts a new cart and its Set overwrites the stale slot.
func (r *Reconciler) resetAnonymousID(ctx context.Context) error {
	r.mu.Lock()
	removeErr := r.store.Remove(ctx, AnonymousIDKey)
	r.anonymousID = ""
	state := r.snapshotLocked()
	r.mu.Unlock()

	r.metrics.IncEvent(eventSessionReset)
	r.notify(state)
	return removeErr
}

func (r *Reconciler) dropLocal(ctx context.Context) error {
	r.mu.Lock()
	if err := r.store.Remove(ctx, AnonymousIDKey); err != nil {
		r.mu.Unlock()
		r.logg.Error(ctx, "failed to remove anonymous cart id", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove anonymous cart id")
	}
	r.anonymousID = ""
	r.cart = nil
	state := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(state)
	return nil
}

func (r *Reconciler) completeMerge(ctx context.Context, merged *Cart) error {
	r.mu.Lock()
	if err := r.store.Remove(ctx, AnonymousIDKey); err != nil {
		r.mu.Unlock()
		r.logg.Error(ctx, "failed to remove merged anonymous cart id", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove anonymous cart id")
	}
	r.anonymousID = ""
	r.cart = merged.Clone()
	state := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(state)
	return nil
}

func (r *Reconciler) snapshotLocked() State {
	return State{Cart: r.cart.Clone(), AnonymousID: r.anonymousID}
}

func (r *Reconciler) notify(state State) {
	r.subsMu.Lock()
	listeners := make([]func(State), 0, len(r.subs))
	for _, fn := range r.subs {
		listeners = append(listeners, fn)
	}
	r.subsMu.Unlock()

	for _, fn := range listeners {
		fn(State{Cart: state.Cart.Clone(), AnonymousID: state.AnonymousID})
	}
}

func ensureCart(c *Cart) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "empty cart response")
	}
	return nil
}
