package wiring

import (
	"context"
	"fmt"

	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/internal/devicecache"
	"github.com/angelmondragon/cropmarket-backend/internal/firestoredocs"
	"github.com/angelmondragon/cropmarket-backend/internal/orders"
	"github.com/angelmondragon/cropmarket-backend/internal/users"
	"github.com/angelmondragon/cropmarket-backend/pkg/config"
	"github.com/angelmondragon/cropmarket-backend/pkg/db"
	pkgfirestore "github.com/angelmondragon/cropmarket-backend/pkg/firestore"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
	"github.com/angelmondragon/cropmarket-backend/pkg/migrate"
	"github.com/angelmondragon/cropmarket-backend/pkg/redis"
)

// Backends holds the cart collaborators selected by configuration and every
// connection opened for them.
type Backends struct {
	Users  cart.UserStore
	Orders orders.Repository
	// Local is the shared device cache; LocalFor scopes it to one device.
	Local  devicecache.Cache
	Checks map[string]db.Pinger

	closers []func() error
}

// LocalFor namespaces the shared cache by device id.
func (b *Backends) LocalFor(deviceID string) cart.LocalCache {
	return devicecache.Namespace(b.Local, deviceID)
}

// Close releases connections in reverse order of opening.
func (b *Backends) Close(ctx context.Context, logg *logger.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logg.Error(ctx, "error closing backend", err)
		}
	}
}

// Open connects the remote user store and the local device cache named by
// cfg.Cart.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Backends, error) {
	b := &Backends{Checks: map[string]db.Pinger{}}
	if err := b.openRemote(ctx, cfg, logg); err != nil {
		b.Close(ctx, logg)
		return nil, err
	}
	if err := b.openLocal(ctx, cfg, logg); err != nil {
		b.Close(ctx, logg)
		return nil, err
	}
	return b, nil
}

func (b *Backends) openRemote(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	switch cfg.Cart.RemoteDriver {
	case config.RemoteDriverPostgres, config.RemoteDriverSQLite:
		dbClient, err := db.New(ctx, cfg.DB, cfg.Cart.RemoteDriver, logg)
		if err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		b.closers = append(b.closers, dbClient.Close)
		b.Checks["db"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return fmt.Errorf("run dev migrations: %w", err)
		}
		b.Users = users.NewRepository(dbClient.DB())
		b.Orders = orders.NewRepository(dbClient.DB())

	case config.RemoteDriverFirestore:
		fsClient, err := pkgfirestore.New(ctx, cfg.Firestore, logg)
		if err != nil {
			return fmt.Errorf("bootstrap firestore: %w", err)
		}
		b.closers = append(b.closers, fsClient.Close)
		b.Checks["firestore"] = fsClient

		repo := firestoredocs.NewRepository(fsClient.Raw(), cfg.Firestore.UsersCollection, cfg.Firestore.OrdersCollection)
		b.Users = repo
		b.Orders = repo

	case config.RemoteDriverNone:
		logg.Warn(ctx, "remote user store disabled; carts are device-local only")
	}
	return nil
}

func (b *Backends) openLocal(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	switch cfg.Cart.LocalDriver {
	case config.LocalDriverBolt:
		bolt, err := devicecache.OpenBolt(cfg.Cart.BoltPath)
		if err != nil {
			return fmt.Errorf("open bolt cache: %w", err)
		}
		b.closers = append(b.closers, bolt.Close)
		b.Checks["cache"] = bolt
		b.Local = bolt

	case config.LocalDriverRedis:
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		b.closers = append(b.closers, redisClient.Close)
		b.Checks["redis"] = redisClient

		rc, err := devicecache.NewRedis(redisClient, cfg.Cart.RedisTTL)
		if err != nil {
			return err
		}
		b.Local = rc

	default:
		return fmt.Errorf("unsupported local driver %q", cfg.Cart.LocalDriver)
	}
	return nil
}
