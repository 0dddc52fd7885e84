package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cropmarket-backend/api/middleware"
	"github.com/angelmondragon/cropmarket-backend/api/responses"
	"github.com/angelmondragon/cropmarket-backend/api/validators"
	cartsvc "github.com/angelmondragon/cropmarket-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
)

// StoreProvider hands out the cart store for a device, bound to the caller's
// identity. cart.Manager implements it.
type StoreProvider interface {
	Acquire(ctx context.Context, deviceID, userID string) (*cartsvc.Store, error)
}

func acquire(w http.ResponseWriter, r *http.Request, stores StoreProvider, logg *logger.Logger) (*cartsvc.Store, bool) {
	if stores == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return nil, false
	}
	store, err := stores.Acquire(r.Context(), middleware.DeviceIDFromContext(r.Context()), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart unavailable")
		}
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return store, true
}

// CartFetch returns the device's cart with derived totals.
func CartFetch(stores StoreProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := acquire(w, r, stores, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartAddItem merges the item into the cart; an existing id gains quantity.
func CartAddItem(stores StoreProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, ok := acquire(w, r, stores, logg)
		if !ok {
			return
		}
		if err := store.AddLine(r.Context(), payload.toInput()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

func CartRemoveItem(stores StoreProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := validators.SanitizeString(chi.URLParam(r, "itemId"), 0)
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id required"))
			return
		}

		store, ok := acquire(w, r, stores, logg)
		if !ok {
			return
		}
		if err := store.RemoveLine(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

func CartClear(stores StoreProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := acquire(w, r, stores, logg)
		if !ok {
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartCheckout records the order and empties the cart.
func CartCheckout(stores StoreProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := acquire(w, r, stores, logg)
		if !ok {
			return
		}
		res, err := store.Checkout(r.Context())
		if errors.Is(err, cartsvc.ErrSessionRequired) && res != nil {
			responses.WriteErrorWithDetails(r.Context(), logg, w, err, newTotalsView(res.Totals))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutView(res))
	}
}
