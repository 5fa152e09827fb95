package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/cartapi"
	"github.com/angelmondragon/storefront-client/internal/catalog"
	"github.com/angelmondragon/storefront-client/internal/identity"
	"github.com/angelmondragon/storefront-client/internal/localstore"
	"github.com/angelmondragon/storefront-client/internal/orders"
	"github.com/angelmondragon/storefront-client/pkg/apiclient"
	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// deps are the seams the commands build on; tests swap them for in-memory versions.
type deps struct {
	loadConfig func() (*config.Config, error)
	openStore  func(ctx context.Context, cfg *config.Config, logg *logger.Logger) (localstore.Store, error)
	logOutput  io.Writer
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.Load,
		openStore: func(ctx context.Context, cfg *config.Config, logg *logger.Logger) (localstore.Store, error) {
			return localstore.Open(ctx, cfg.LocalStore, cfg.Redis, logg)
		},
		logOutput: os.Stderr,
	}
}

// app holds everything one command invocation needs.
type app struct {
	cfg      *config.Config
	logg     *logger.Logger
	store    localstore.Store
	session  *identity.TokenSession
	api      *apiclient.Client
	cart     *cart.Reconciler
	catalog  *catalog.Client
	orders   *orders.Client
	registry *prometheus.Registry
}

type appOptions struct {
	profile string
	verbose bool
}

func newApp(ctx context.Context, d deps, opts appOptions) (*app, error) {
	cfg, err := d.loadConfig()
	if err != nil {
		return nil, err
	}
	if p := strings.TrimSpace(opts.profile); p != "" {
		cfg.LocalStore.Profile = p
	}

	level := logger.ParseLevel(cfg.App.LogLevel)
	if opts.verbose {
		level = logger.ParseLevel("debug")
	}
	logg := logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       level,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Output:      d.logOutput,
	})
	ctx = logg.WithField(ctx, "profile", cfg.LocalStore.Profile)

	store, err := d.openStore(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		return nil, err
	}

	a := &app{cfg: cfg, logg: logg, store: store, registry: prometheus.NewRegistry()}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	var hooks []identity.LoginFunc
	if a.cfg.Identity.AccessToken != "" {
		hooks = append(hooks, identity.StaticLogin(a.cfg.Identity.AccessToken))
	}
	if a.cfg.Identity.TokenFile != "" {
		hooks = append(hooks, identity.FileLogin(a.cfg.Identity.TokenFile))
	}

	session, err := identity.NewTokenSession(ctx,
		identity.WithStore(a.store),
		identity.WithLogin(identity.FirstLogin(hooks...)),
		identity.WithLogger(a.logg),
	)
	if err != nil {
		a.logg.Error(ctx, "failed to restore identity session", err)
		return err
	}
	a.session = session

	api, err := apiclient.New(a.cfg.API.BaseURL,
		apiclient.WithTimeout(a.cfg.API.Timeout),
		apiclient.WithTokenSource(session),
		apiclient.WithLogger(a.logg),
	)
	if err != nil {
		return err
	}
	a.api = api

	cartOpts := []cart.Option{
		cart.WithLogger(a.logg),
		cart.WithMetrics(metrics.NewOperationMetrics(a.registry, "cart")),
		cart.WithClearPolicy(cart.ParseClearPolicy(a.cfg.Cart.ClearPolicy)),
	}
	if a.cfg.Cart.SerializeMutations {
		cartOpts = append(cartOpts, cart.WithSerializedMutations())
	}
	reconciler, err := cart.New(ctx, cartapi.New(api), session, a.store, cartOpts...)
	if err != nil {
		a.logg.Error(ctx, "failed to initialise cart", err)
		return err
	}
	a.cart = reconciler
	a.catalog = catalog.New(api)
	a.orders = orders.New(api)
	return nil
}

// Close releases the local store.
func (a *app) Close() error {
	var err error
	if a.store != nil {
		err = multierr.Append(err, a.store.Close())
	}
	return err
}
