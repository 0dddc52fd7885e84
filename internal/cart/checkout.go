package cart

import (
	"context"

	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	checkoutResultCreated      = "created"
	checkoutResultEmpty        = "empty"
	checkoutResultUnauthorized = "unauthenticated"
	checkoutResultFailed       = "failed"
	checkoutResultNotLoaded    = "not_loaded"
)

// Checkout records the current cart as an order owned by the signed-in user
// and clears the cart. Without a session the totals are returned alongside
// ErrSessionRequired and nothing changes. If the order write fails the cart
// is left exactly as it was. While a load is in flight the lines may still
// belong to the previous session, so ErrNotLoaded is returned instead.
func (s *Store) Checkout(ctx context.Context) (*CheckoutResult, error) {
	s.checkoutMu.Lock()
	defer s.checkoutMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if !s.loaded {
		s.mu.Unlock()
		s.metrics.IncCheckout(checkoutResultNotLoaded)
		return nil, ErrNotLoaded
	}
	if len(s.lines) == 0 {
		s.mu.Unlock()
		s.metrics.IncCheckout(checkoutResultEmpty)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	totals := ComputeTotals(s.lines)
	userID := s.userID
	if userID == "" || s.orders == nil {
		s.mu.Unlock()
		s.metrics.IncCheckout(checkoutResultUnauthorized)
		return &CheckoutResult{Totals: totals}, ErrSessionRequired
	}
	snapshot := CloneLines(s.lines)
	gen := s.generation
	s.mu.Unlock()

	ctx = s.logg.WithUserID(ctx, userID)
	order := newOrderRecord(uuid.NewString(), userID, snapshot, s.now().UTC())

	id, err := s.orders.CreateOrder(ctx, cloneOrder(order))
	if err != nil {
		s.metrics.IncCheckout(checkoutResultFailed)
		s.logg.Error(s.logCtx(ctx, "checkout"), "order write failed; cart preserved", err)
		return nil, checkoutFailure("create_order", err)
	}
	if id != "" {
		order.ID = id
	}
	ctx = s.logg.WithField(ctx, "order_id", order.ID)

	if s.users != nil {
		if err := s.users.AppendUserOrder(ctx, userID, cloneOrder(order)); err != nil {
			logCtx := s.logg.WithField(s.logCtx(ctx, "append_order"), "error", err.Error())
			s.logg.Warn(logCtx, "order created but not appended to user history")
		}
	}

	s.mu.Lock()
	task := persistTask{
		op:       opCheckoutClear,
		userID:   userID,
		clear:    true,
		remote:   s.users != nil,
		attempts: s.clearAttempts,
	}
	// A session switch during the order write means the in-memory cart now
	// belongs to someone else; only the buyer's remote cart is cleared.
	if gen == s.generation {
		s.lines = nil
		task.local = s.loaded
	}
	if task.local || task.remote {
		s.enqueueLocked(ctx, task)
	}
	s.mu.Unlock()

	s.metrics.IncCheckout(checkoutResultCreated)
	s.logg.Info(s.logCtx(ctx, "checkout"), "order created")

	return &CheckoutResult{Order: &order, Totals: totals}, nil
}
