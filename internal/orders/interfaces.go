package orders

import (
	"context"

	"github.com/angelmondragon/cropmarket-backend/internal/cart"
)

// Repository persists the standalone order records created at checkout.
// FindByID returns a CodeNotFound error for unknown ids.
type Repository interface {
	CreateOrder(ctx context.Context, order cart.OrderRecord) (string, error)
	FindByID(ctx context.Context, id string) (*cart.OrderRecord, error)
}
