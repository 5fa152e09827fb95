package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/catalog"
	"github.com/angelmondragon/storefront-client/internal/orders"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

type rootFlags struct {
	profile string
	verbose bool
	metrics bool
}

func newRootCmd(d deps) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Shop against the storefront commerce API",
		Long: `storefront keeps a shopping cart in step with the commerce API.

Anonymous shoppers get a cart id that is stored locally and reused across runs.
After login the anonymous cart is merged into the account cart.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.profile, "profile", "", "local profile holding the cart id and token (overrides STOREFRONT_PROFILE)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&flags.metrics, "metrics", false, "print operation metrics to stderr after the command")

	root.AddCommand(
		newCartCmd(d, flags),
		newProductsCmd(d, flags),
		newOrdersCmd(d, flags),
		newLoginCmd(d, flags),
		newLogoutCmd(d, flags),
	)
	return root
}

// withApp builds the app for one invocation, runs fn and releases resources.
func withApp(cmd *cobra.Command, d deps, flags *rootFlags, fn func(ctx context.Context, a *app) (any, error)) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, d, appOptions{profile: flags.profile, verbose: flags.verbose})
	if err != nil {
		return err
	}
	defer func() {
		if flags.metrics {
			err = multierr.Append(err, writeMetrics(cmd.ErrOrStderr(), a.registry))
		}
		err = multierr.Append(err, a.Close())
	}()

	result, err := fn(ctx, a)
	if err != nil {
		a.logg.Debug(a.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "error chain")
		a.logg.Error(ctx, cmd.CommandPath()+" failed", err)
		_ = printJSON(cmd.ErrOrStderr(), describeError(err))
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

type errorOutput struct {
	Code      pkgerrors.Code `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   any            `json:"details,omitempty"`
}

// describeError renders err for the terminal. Untyped errors are reported as internal.
func describeError(err error) map[string]errorOutput {
	out := errorOutput{Code: pkgerrors.CodeInternal, Message: err.Error()}
	if typed := pkgerrors.As(err); typed != nil {
		meta := pkgerrors.MetadataFor(typed.Code())
		out.Code = typed.Code()
		out.Message = typed.Message()
		if cause := typed.Unwrap(); cause != nil {
			out.Message += ": " + cause.Error()
		}
		if meta.DetailsAllowed {
			out.Details = typed.Details()
		}
	}
	out.Retryable = pkgerrors.MetadataFor(out.Code).Retryable
	return map[string]errorOutput{"error": out}
}

// printJSON writes v indented. Nil results, including typed nil pointers such as a no-op remove's
// *cart.Cart, print nothing.
func printJSON(w io.Writer, v any) error {
	if isNil(v) {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg, name string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, arg)
	}
	return id, nil
}

func newCartCmd(d deps, flags *rootFlags) *cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the shopping cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart, merging the anonymous cart first when logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				if a.session.Authenticated(ctx) {
					return a.cart.SyncWithServer(ctx)
				}
				return a.cart.FetchOrInitialize(ctx)
			})
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.cart.AddItem(ctx, productID, quantity)
			})
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "q", 1, "quantity to add")

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.cart.RemoveItem(ctx, productID)
			})
		},
	}

	update := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a product; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be an integer, got %q", args[1])
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				if qty < 1 {
					return a.cart.RemoveItem(ctx, productID)
				}
				return a.cart.UpdateQuantity(ctx, productID, qty)
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				if err := a.cart.ClearCart(ctx); err != nil {
					return nil, err
				}
				return map[string]bool{"cleared": true}, nil
			})
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Merge the anonymous cart into the account cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.cart.SyncWithServer(ctx)
			})
		},
	}

	cartCmd.AddCommand(show, add, remove, update, clearCmd, syncCmd)
	return cartCmd
}

func newProductsCmd(d deps, flags *rootFlags) *cobra.Command {
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	var (
		filters                             catalog.Filters
		minPrice, maxPrice, sort, direction string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := filters
			if sort != "" {
				v, err := enums.ParseProductSort(sort)
				if err != nil {
					return err
				}
				f.Sort = v
			}
			if direction != "" {
				v, err := enums.ParseSortDirection(direction)
				if err != nil {
					return err
				}
				f.Direction = v
			}
			if minPrice != "" {
				v, err := decimal.NewFromString(minPrice)
				if err != nil {
					return fmt.Errorf("invalid --min-price: %w", err)
				}
				f.MinPrice = &v
			}
			if maxPrice != "" {
				v, err := decimal.NewFromString(maxPrice)
				if err != nil {
					return fmt.Errorf("invalid --max-price: %w", err)
				}
				f.MaxPrice = &v
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.catalog.ListProducts(ctx, f)
			})
		},
	}
	list.Flags().Int64Var(&filters.CategoryID, "category", 0, "category id")
	list.Flags().StringVar(&minPrice, "min-price", "", "minimum price")
	list.Flags().StringVar(&maxPrice, "max-price", "", "maximum price")
	list.Flags().StringVar(&filters.Search, "search", "", "free text search")
	list.Flags().IntVar(&filters.Page, "page", 0, "zero-based page")
	list.Flags().IntVar(&filters.Size, "size", 0, "page size")
	list.Flags().StringVar(&sort, "sort", "", "sort field (name|price)")
	list.Flags().StringVar(&direction, "direction", "", "sort direction (asc|desc)")

	get := &cobra.Command{
		Use:   "get <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.catalog.GetProduct(ctx, id)
			})
		},
	}

	productsCmd.AddCommand(list, get)
	return productsCmd
}

func newOrdersCmd(d deps, flags *rootFlags) *cobra.Command {
	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect past orders (requires login)",
	}

	var (
		status, startDate, endDate string
		page, size                 int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := orders.Query{Page: page, Size: size}
			var err error
			if status != "" {
				if q.Status, err = enums.ParseOrderStatus(status); err != nil {
					return err
				}
			}
			if q.StartDate, err = parseDate(startDate); err != nil {
				return fmt.Errorf("invalid --start-date: %w", err)
			}
			if q.EndDate, err = parseDate(endDate); err != nil {
				return fmt.Errorf("invalid --end-date: %w", err)
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.orders.List(ctx, q)
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "PENDING, COMPLETED or CANCELLED")
	list.Flags().StringVar(&startDate, "start-date", "", "earliest order date (YYYY-MM-DD or RFC3339)")
	list.Flags().StringVar(&endDate, "end-date", "", "latest order date (YYYY-MM-DD or RFC3339)")
	list.Flags().IntVar(&page, "page", 0, "zero-based page")
	list.Flags().IntVar(&size, "size", 0, "page size")

	get := &cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.orders.Get(ctx, id)
			})
		},
	}

	var itemsPage, itemsSize int
	items := &cobra.Command{
		Use:   "items <order-id>",
		Short: "List the items of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				return a.orders.Items(ctx, id, itemsPage, itemsSize)
			})
		},
	}
	items.Flags().IntVar(&itemsPage, "page", 0, "zero-based page")
	items.Flags().IntVar(&itemsSize, "size", 0, "page size")

	del := &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "order id")
			if err != nil {
				return err
			}
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				if err := a.orders.Delete(ctx, id); err != nil {
					return nil, err
				}
				return map[string]int64{"deleted": id}, nil
			})
		},
	}

	ordersCmd.AddCommand(list, get, items, del)
	return ordersCmd
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

type loginResult struct {
	Subject string     `json:"subject"`
	Cart    *cart.Cart `json:"cart"`
}

func newLoginCmd(d deps, flags *rootFlags) *cobra.Command {
	var token string
	login := &cobra.Command{
		Use:   "login",
		Short: "Install an access token and merge the anonymous cart",
		Long: `login installs an OIDC access token for the profile.

The token comes from --token, STOREFRONT_ACCESS_TOKEN or STOREFRONT_TOKEN_FILE, in that order.
Once logged in, any anonymous cart held by the profile is merged into the account cart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				var err error
				if token != "" {
					err = a.session.SetToken(ctx, token)
				} else {
					err = a.session.Login(ctx)
				}
				if err != nil {
					return nil, err
				}
				merged, err := a.cart.SyncWithServer(ctx)
				if err != nil {
					return nil, err
				}
				subject, _ := a.session.Subject()
				return loginResult{Subject: subject, Cart: merged}, nil
			})
		},
	}
	login.Flags().StringVar(&token, "token", "", "access token to install")
	return login
}

func newLogoutCmd(d deps, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the access token of the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, flags, func(ctx context.Context, a *app) (any, error) {
				if err := a.cart.Logout(ctx); err != nil {
					return nil, err
				}
				return map[string]bool{"loggedOut": true}, nil
			})
		},
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
