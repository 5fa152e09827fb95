package cart

import (
	"context"
	"sync"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	mGetCart        = "GetCart"
	mGetOrCreate    = "GetOrCreateAnonymous"
	mAdd            = "AddItem"
	mAddAnon        = "AddAnonymousItem"
	mRemove         = "RemoveItem"
	mRemoveAnon     = "RemoveAnonymousItem"
	mUpdate         = "UpdateItem"
	mUpdateAnon     = "UpdateAnonymousItem"
	mClear          = "Clear"
	mClearAnon      = "ClearAnonymous"
	mMerge          = "Merge"
	authenticatedID = "7"
)

var unitPrice = decimal.NewFromInt(10)

type remoteCall struct {
	method    string
	id        string
	item      ItemRequest
	productID int64
}

// fakeRemote behaves like the commerce API: it owns carts, computes totals and can rotate ids, fail or
// block per method.
type fakeRemote struct {
	mu          sync.Mutex
	calls       []remoteCall
	anonymous   map[string]*Cart
	rotate      map[string]string
	auth        *Cart
	errs        map[string]error
	block       map[string]chan struct{}
	entered     chan string
	inFlight    int
	maxInFlight int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		anonymous: map[string]*Cart{},
		rotate:    map[string]string{},
		errs:      map[string]error{},
		block:     map[string]chan struct{}{},
	}
}

func (f *fakeRemote) failWith(method string) error {
	err := pkgerrors.New(pkgerrors.CodeDependency, method+" unavailable")
	f.mu.Lock()
	f.errs[method] = err
	f.mu.Unlock()
	return err
}

func (f *fakeRemote) callsTo(method string) []remoteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remoteCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRemote) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) enter(c remoteCall) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	wait := f.block[c.method]
	err := f.errs[c.method]
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- c.method
	}
	if wait != nil {
		<-wait
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return err
}

func (f *fakeRemote) anonymousCartLocked(id string) *Cart {
	if rotated, ok := f.rotate[id]; ok {
		id = rotated
	}
	c, ok := f.anonymous[id]
	if !ok {
		c = &Cart{ID: CartID(id), Items: []LineItem{}}
		f.anonymous[id] = c
	}
	return c
}

func (f *fakeRemote) authCartLocked() *Cart {
	if f.auth == nil {
		f.auth = &Cart{ID: authenticatedID, UserID: "user-1", Items: []LineItem{}}
	}
	return f.auth
}

func addLocked(c *Cart, item ItemRequest) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			recomputeLocked(c)
			return
		}
	}
	c.Items = append(c.Items, LineItem{ProductID: item.ProductID, PriceAtTime: unitPrice, Quantity: item.Quantity})
	recomputeLocked(c)
}

func setLocked(c *Cart, item ItemRequest) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity = item.Quantity
		}
	}
	recomputeLocked(c)
}

func removeLocked(c *Cart, productID int64) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	recomputeLocked(c)
}

func recomputeLocked(c *Cart) {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.PriceAtTime.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.TotalAmount = total
}

func (f *fakeRemote) GetCart(ctx context.Context) (*Cart, error) {
	if err := f.enter(remoteCall{method: mGetCart}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCartLocked().Clone(), nil
}

func (f *fakeRemote) GetOrCreateAnonymous(ctx context.Context, id string) (*Cart, error) {
	if err := f.enter(remoteCall{method: mGetOrCreate, id: id}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.anonymousCartLocked(id).Clone(), nil
}

func (f *fakeRemote) AddItem(ctx context.Context, item ItemRequest) (*Cart, error) {
	if err := f.enter(remoteCall{method: mAdd, item: item}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.authCartLocked()
	addLocked(c, item)
	return c.Clone(), nil
}

func (f *fakeRemote) AddAnonymousItem(ctx context.Context, id string, item ItemRequest) (*Cart, error) {
	if err := f.enter(remoteCall{method: mAddAnon, id: id, item: item}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.anonymousCartLocked(id)
	addLocked(c, item)
	return c.Clone(), nil
}

func (f *fakeRemote) RemoveItem(ctx context.Context, productID int64) (*Cart, error) {
	if err := f.enter(remoteCall{method: mRemove, productID: productID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.authCartLocked()
	removeLocked(c, productID)
	return c.Clone(), nil
}

func (f *fakeRemote) RemoveAnonymousItem(ctx context.Context, id string, productID int64) (*Cart, error) {
	if err := f.enter(remoteCall{method: mRemoveAnon, id: id, productID: productID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.anonymousCartLocked(id)
	removeLocked(c, productID)
	return c.Clone(), nil
}

func (f *fakeRemote) UpdateItem(ctx context.Context, item ItemRequest) (*Cart, error) {
	if err := f.enter(remoteCall{method: mUpdate, item: item}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.authCartLocked()
	setLocked(c, item)
	return c.Clone(), nil
}

func (f *fakeRemote) UpdateAnonymousItem(ctx context.Context, id string, item ItemRequest) (*Cart, error) {
	if err := f.enter(remoteCall{method: mUpdateAnon, id: id, item: item}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.anonymousCartLocked(id)
	setLocked(c, item)
	return c.Clone(), nil
}

func (f *fakeRemote) Clear(ctx context.Context) error {
	if err := f.enter(remoteCall{method: mClear}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.authCartLocked()
	c.Items = []LineItem{}
	recomputeLocked(c)
	return nil
}

func (f *fakeRemote) ClearAnonymous(ctx context.Context, id string) error {
	if err := f.enter(remoteCall{method: mClearAnon, id: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.anonymous, id)
	return nil
}

func (f *fakeRemote) Merge(ctx context.Context, id string) (*Cart, error) {
	if err := f.enter(remoteCall{method: mMerge, id: id}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.authCartLocked()
	if anon, ok := f.anonymous[id]; ok {
		for _, it := range anon.Items {
			addLocked(target, ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		delete(f.anonymous, id)
	}
	return target.Clone(), nil
}

type fakeIdentity struct {
	mu            sync.Mutex
	authenticated bool
	logins        int
	logouts       int
}

func (f *fakeIdentity) Authenticated(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeIdentity) Login(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	f.authenticated = true
	return nil
}

func (f *fakeIdentity) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.authenticated = false
	return nil
}

func (f *fakeIdentity) set(authenticated bool) {
	f.mu.Lock()
	f.authenticated = authenticated
	f.mu.Unlock()
}

type fakeStore struct {
	mu        sync.Mutex
	data      map[string]string
	sets      []string
	setErr    error
	removeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.sets = append(s.sets, value)
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.data, key)
	return nil
}

func (s *fakeStore) persisted() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[AnonymousIDKey]
	return v, ok
}
