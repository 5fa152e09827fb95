package identity

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-client/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

// TokenKey is the local store slot holding the access token between runs.
const TokenKey = "access_token"

const defaultLeeway = 30 * time.Second

// TokenStore persists the access token. localstore implementations satisfy it.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// LoginFunc obtains a fresh access token from the identity provider.
type LoginFunc func(ctx context.Context) (string, error)

// TokenSession holds the OIDC access token of the current user. A session is authenticated while it
// holds a token whose exp claim has not passed.
type TokenSession struct {
	mu     sync.RWMutex
	token  string
	claims *auth.AccessTokenClaims

	store  TokenStore
	login  LoginFunc
	now    func() time.Time
	leeway time.Duration
	logg   *logger.Logger
}

// Option configures a TokenSession.
type Option func(*TokenSession)

// WithStore persists tokens across runs.
func WithStore(store TokenStore) Option {
	return func(s *TokenSession) { s.store = store }
}

// WithLogin sets the hook Login delegates to.
func WithLogin(fn LoginFunc) Option {
	return func(s *TokenSession) { s.login = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TokenSession) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLeeway(leeway time.Duration) Option {
	return func(s *TokenSession) {
		if leeway >= 0 {
			s.leeway = leeway
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *TokenSession) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// NewTokenSession builds a session and restores a previously persisted token. An unreadable persisted
// token is dropped rather than failing startup.
func NewTokenSession(ctx context.Context, opts ...Option) (*TokenSession, error) {
	s := &TokenSession{
		now:    time.Now,
		leeway: defaultLeeway,
		logg:   logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.store == nil {
		return s, nil
	}

	token, ok, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load access token")
	}
	if !ok {
		return s, nil
	}
	claims, err := auth.ParseAccessToken(token)
	if err != nil {
		s.logg.Warn(ctx, "discarding unreadable stored access token")
		if removeErr := s.store.Remove(ctx, TokenKey); removeErr != nil {
			s.logg.Error(ctx, "failed to remove stored access token", removeErr)
		}
		return s, nil
	}
	s.token, s.claims = token, claims
	return s, nil
}

// Authenticated reports whether a non-expired token is held.
func (s *TokenSession) Authenticated(context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && !s.claims.Expired(s.now(), s.leeway)
}

// AccessToken returns the bearer token, or an UNAUTHORIZED error when none is usable.
func (s *TokenSession) AccessToken(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no access token")
	}
	if s.claims.Expired(s.now(), s.leeway) {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "access token expired")
	}
	return s.token, nil
}

// Subject returns the sub claim of the current token.
func (s *TokenSession) Subject() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil || s.claims.Subject == "" {
		return "", false
	}
	return s.claims.Subject, true
}

// Claims returns a copy of the current token claims.
func (s *TokenSession) Claims() (auth.AccessTokenClaims, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return auth.AccessTokenClaims{}, false
	}
	return *s.claims, true
}

// SetToken installs token and persists it when a store is configured.
func (s *TokenSession) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	claims, err := auth.ParseAccessToken(token)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid access token")
	}
	if s.store != nil {
		if err := s.store.Set(ctx, TokenKey, token); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist access token")
		}
	}

	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()
	s.logg.Info(s.logg.WithField(ctx, "subject", claims.Subject), "access token installed")
	return nil
}

// Login asks the identity provider for a token through the configured hook.
func (s *TokenSession) Login(ctx context.Context) error {
	if s.login == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "login is not configured")
	}
	token, err := s.login(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "login failed")
	}
	return s.SetToken(ctx, token)
}

// Logout forgets the token locally and in the store.
func (s *TokenSession) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.claims = "", nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Remove(ctx, TokenKey); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove access token")
		}
	}
	return nil
}

// StaticLogin returns a login hook yielding token.
func StaticLogin(token string) LoginFunc {
	return func(context.Context) (string, error) {
		if strings.TrimSpace(token) == "" {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no access token configured")
		}
		return token, nil
	}
}

// FileLogin returns a login hook reading the token from path, as written by an external OIDC helper.
func FileLogin(path string) LoginFunc {
	return func(context.Context) (string, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "token file is empty")
		}
		return token, nil
	}
}

// FirstLogin tries each hook in order and returns the first token obtained.
func FirstLogin(hooks ...LoginFunc) LoginFunc {
	return func(ctx context.Context) (string, error) {
		var lastErr error
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			token, err := hook(ctx)
			if err == nil {
				return token, nil
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "no login source configured")
		}
		return "", lastErr
	}
}
