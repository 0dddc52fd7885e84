package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/internal/session"
	"github.com/angelmondragon/cropmarket-backend/internal/wiring"
	"github.com/angelmondragon/cropmarket-backend/pkg/config"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
)

type options struct {
	cmd    string
	id     string
	name   string
	price  string
	qty    int
	user   string
	cache  string
	remote string
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "cartctl", Output: os.Stderr})

	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "show", "command: show|add|remove|clear|checkout|orders")
	flag.StringVar(&opts.id, "id", "", "item id (add, remove)")
	flag.StringVar(&opts.name, "name", "", "item name (add)")
	flag.StringVar(&opts.price, "price", "0", "unit price (add)")
	flag.IntVar(&opts.qty, "qty", 1, "quantity (add)")
	flag.StringVar(&opts.user, "user", "", "signed-in user id; empty for anonymous")
	flag.StringVar(&opts.cache, "cache", "", "bolt cache file (defaults to CROPMARKET_CART_BOLT_PATH)")
	flag.StringVar(&opts.remote, "remote", "", "remote driver override: postgres|sqlite|firestore|none")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "cartctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	// The device cache is always the local bolt file.
	cfg.Cart.LocalDriver = config.LocalDriverBolt
	if opts.cache != "" {
		cfg.Cart.BoltPath = opts.cache
	}
	if opts.remote != "" {
		cfg.Cart.RemoteDriver = opts.remote
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"cmd":    opts.cmd,
		"cache":  cfg.Cart.BoltPath,
		"remote": cfg.Cart.RemoteDriver,
	})

	b, err := wiring.Open(ctx, cfg, logg)
	requireResource(ctx, logg, "backends", err)
	defer b.Close(ctx, logg)

	store, err := cart.NewStore(cart.StoreParams{
		Local:         b.Local,
		Users:         b.Users,
		Orders:        b.Orders,
		Session:       session.NewProvider(opts.user),
		Logger:        logg,
		RemoteTimeout: cfg.Cart.RemoteTimeout,
		ClearAttempts: cfg.Cart.ClearAttempts,
		ClearBackoff:  cfg.Cart.ClearBackoff,
	})
	requireResource(ctx, logg, "cart store", err)

	source, err := store.Load(ctx)
	requireResource(ctx, logg, "cart load", err)
	logg.Debug(logg.WithField(ctx, "source", string(source)), "cart loaded")

	out, runErr := run(ctx, store, b.Users, opts)

	if err := store.Flush(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "some cart mirrors were not updated")
	}
	_ = store.Close(ctx)

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "cartctl:", runErr)
		if out != nil {
			printJSON(out)
		}
		os.Exit(1)
	}
	printJSON(out)
}

func run(ctx context.Context, store *cart.Store, users cart.UserStore, opts options) (any, error) {
	switch opts.cmd {
	case "show":
	case "add":
		price, err := decimal.NewFromString(strings.TrimSpace(opts.price))
		if err != nil {
			return nil, fmt.Errorf("invalid -price %q: %w", opts.price, err)
		}
		if err := store.AddLine(ctx, cart.LineInput{
			ID:        opts.id,
			Name:      opts.name,
			UnitPrice: price,
			Quantity:  opts.qty,
		}); err != nil {
			return nil, err
		}
	case "remove":
		if err := store.RemoveLine(ctx, opts.id); err != nil {
			return nil, err
		}
	case "clear":
		if err := store.Clear(ctx); err != nil {
			return nil, err
		}
	case "checkout":
		res, err := store.Checkout(ctx)
		if err != nil {
			if res != nil {
				return totalsView(res.Totals), err
			}
			return nil, err
		}
		return res, nil
	case "orders":
		if users == nil || opts.user == "" {
			return nil, errors.New("orders needs -user and a remote driver")
		}
		record, err := users.ReadUserRecord(ctx, opts.user)
		if errors.Is(err, cart.ErrUserNotFound) {
			return []cart.OrderRecord{}, nil
		}
		if err != nil {
			return nil, err
		}
		return record.Orders, nil
	default:
		return nil, fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
	return cartView(store), nil
}

func cartView(store *cart.Store) map[string]any {
	lines := store.Snapshot()
	if lines == nil {
		lines = []cart.Line{}
	}
	view := totalsView(cart.ComputeTotals(lines))
	view["items"] = lines
	view["user_id"] = store.UserID()
	return view
}

func totalsView(t cart.Totals) map[string]any {
	return map[string]any{
		"total_items": t.TotalItems,
		"total_price": t.DisplayPrice(),
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
