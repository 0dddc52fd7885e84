package orders

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	cartcontrollers "github.com/angelmondragon/cropmarket-backend/api/controllers/cart"
	"github.com/angelmondragon/cropmarket-backend/api/middleware"
	"github.com/angelmondragon/cropmarket-backend/api/responses"
	"github.com/angelmondragon/cropmarket-backend/api/validators"
	cartsvc "github.com/angelmondragon/cropmarket-backend/internal/cart"
	ordersrepo "github.com/angelmondragon/cropmarket-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
)

const (
	defaultOrdersLimit = 20
	maxOrdersLimit     = 100
)

type orderList struct {
	Orders []cartcontrollers.OrderView `json:"orders"`
	Total  int                         `json:"total"`
}

// OrdersList returns the caller's order history, newest first.
func OrdersList(users cartsvc.UserStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if users == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "order history unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultOrdersLimit, 1, maxOrdersLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		record, err := users.ReadUserRecord(r.Context(), userID)
		if errors.Is(err, cartsvc.ErrUserNotFound) {
			responses.WriteSuccess(w, orderList{Orders: []cartcontrollers.OrderView{}})
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order history"))
			return
		}

		out := orderList{Orders: make([]cartcontrollers.OrderView, 0, limit), Total: len(record.Orders)}
		for i := len(record.Orders) - 1; i >= 0 && len(out.Orders) < limit; i-- {
			out.Orders = append(out.Orders, cartcontrollers.NewOrderView(record.Orders[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// OrderFetch returns one order owned by the caller. Orders owned by someone
// else are reported as not found.
func OrderFetch(repo ordersrepo.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "orders unavailable"))
			return
		}
		orderID := validators.SanitizeString(chi.URLParam(r, "orderId"), 0)
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id required"))
			return
		}

		order, err := repo.FindByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.OwnerID != middleware.UserIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, cartcontrollers.NewOrderView(*order))
	}
}
