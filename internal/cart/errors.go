package cart

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
)

var (
	// ErrPersistence marks a failed mirror write. The in-memory cart stays
	// authoritative and the failure is logged, never returned to the caller.
	ErrPersistence = errors.New("cart persistence failed")
	// ErrLoad marks an unreadable or undecodable source during hydration.
	ErrLoad = errors.New("cart load failed")
	// ErrCheckout marks a failed order write; the cart is left untouched.
	ErrCheckout = errors.New("checkout failed")
	// ErrStaleLoad is returned by Load when a newer session change superseded it.
	ErrStaleLoad = errors.New("cart load superseded")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("cart store closed")

	ErrSessionRequired = pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	ErrUserNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "user record not found")
	ErrNotLoaded       = pkgerrors.New(pkgerrors.CodeConflict, "cart is still loading")
	ErrDeviceOwned     = pkgerrors.New(pkgerrors.CodeForbidden, "device cart belongs to another user")
)

// PersistError describes one failed write to one mirror.
type PersistError struct {
	Op     string
	Mirror string
	UserID string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: %s %s mirror: %v", ErrPersistence, e.Op, e.Mirror, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func checkoutFailure(step string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %w", ErrCheckout, err), "checkout failed").
		WithDetails(map[string]any{"step": step})
}

func validateLineInput(in LineInput) error {
	problems := map[string]string{}
	if strings.TrimSpace(in.ID) == "" {
		problems["id"] = "is required"
	}
	if in.Quantity < 1 {
		problems["quantity"] = "must be at least 1"
	}
	if in.UnitPrice.IsNegative() {
		problems["price"] = "must not be negative"
	}
	if len(problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart line").WithDetails(problems)
}
