package cart

import (
	"context"
	"time"
)

// LocalCache is the device-local key/value store. Read reports ok=false when
// the key is absent.
type LocalCache interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// UserStore is the remote per-user document store. ReadUserRecord returns
// ErrUserNotFound when no document exists.
type UserStore interface {
	ReadUserRecord(ctx context.Context, userID string) (*UserRecord, error)
	WriteUserCart(ctx context.Context, userID string, lines []Line) error
	DeleteUserCart(ctx context.Context, userID string) error
	AppendUserOrder(ctx context.Context, userID string, order OrderRecord) error
}

// OrderStore persists standalone order records and returns the stored id.
type OrderStore interface {
	CreateOrder(ctx context.Context, order OrderRecord) (string, error)
}

// SessionSource exposes the signed-in user ("" when anonymous) and change
// notifications.
type SessionSource interface {
	CurrentUserID() string
	Subscribe(fn func(userID string)) (unsubscribe func())
}

// Clock returns the current time.
type Clock func() time.Time
