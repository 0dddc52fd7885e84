package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cropmarket-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/cropmarket-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/cropmarket-backend/api/controllers/orders"
	"github.com/angelmondragon/cropmarket-backend/api/middleware"
	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/cropmarket-backend/pkg/auth"
	"github.com/angelmondragon/cropmarket-backend/pkg/config"
	"github.com/angelmondragon/cropmarket-backend/pkg/db"
	"github.com/angelmondragon/cropmarket-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readyChecks map[string]db.Pinger,
	gatherer prometheus.Gatherer,
	verifier pkgAuth.Verifier,
	stores cartcontrollers.StoreProvider,
	users cart.UserStore,
	ordersRepo orders.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyChecks))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(verifier, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Device(logg))
			r.Get("/", cartcontrollers.CartFetch(stores, logg))
			r.Delete("/", cartcontrollers.CartClear(stores, logg))
			r.Post("/items", cartcontrollers.CartAddItem(stores, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(stores, logg))
			r.Post("/checkout", cartcontrollers.CartCheckout(stores, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Get("/", ordercontrollers.OrdersList(users, logg))
			r.Get("/{orderId}", ordercontrollers.OrderFetch(ordersRepo, logg))
		})
	})

	return r
}
