package cart

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the remote circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
	// OnStateChange is invoked on every transition (closed, open, half-open).
	OnStateChange func(name string, from, to gobreaker.State)
}

// NewRemoteBreaker builds a breaker that opens after MaxFailures consecutive
// remote failures. A missing user document counts as success.
func NewRemoteBreaker(settings BreakerSettings) *gobreaker.CircuitBreaker[any] {
	if settings.Name == "" {
		settings.Name = "cart-remote"
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	maxFailures := settings.MaxFailures
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUserNotFound)
		},
		OnStateChange: settings.OnStateChange,
	})
}

// remoteGuard bounds every remote call with a timeout and routes it through
// the optional breaker.
type remoteGuard struct {
	users   UserStore
	orders  OrderStore
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[any]
}

func newRemoteGuard(users UserStore, orders OrderStore, timeout time.Duration, breaker *gobreaker.CircuitBreaker[any]) *remoteGuard {
	return &remoteGuard{users: users, orders: orders, timeout: timeout, breaker: breaker}
}

func guarded[T any](ctx context.Context, g *remoteGuard, fn func(context.Context) (T, error)) (T, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if g.breaker == nil {
		return fn(ctx)
	}

	var zero T
	out, err := g.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := out.(T)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

func (g *remoteGuard) ReadUserRecord(ctx context.Context, userID string) (*UserRecord, error) {
	return guarded(ctx, g, func(ctx context.Context) (*UserRecord, error) {
		return g.users.ReadUserRecord(ctx, userID)
	})
}

func (g *remoteGuard) WriteUserCart(ctx context.Context, userID string, lines []Line) error {
	_, err := guarded(ctx, g, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.users.WriteUserCart(ctx, userID, lines)
	})
	return err
}

func (g *remoteGuard) DeleteUserCart(ctx context.Context, userID string) error {
	_, err := guarded(ctx, g, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.users.DeleteUserCart(ctx, userID)
	})
	return err
}

func (g *remoteGuard) AppendUserOrder(ctx context.Context, userID string, order OrderRecord) error {
	_, err := guarded(ctx, g, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.users.AppendUserOrder(ctx, userID, order)
	})
	return err
}

func (g *remoteGuard) CreateOrder(ctx context.Context, order OrderRecord) (string, error) {
	return guarded(ctx, g, func(ctx context.Context) (string, error) {
		return g.orders.CreateOrder(ctx, order)
	})
}
