package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantmarket/cartsync/api/controllers"
	cartcontrollers "github.com/verdantmarket/cartsync/api/controllers/cart"
	"github.com/verdantmarket/cartsync/api/middleware"
	cartsvc "github.com/verdantmarket/cartsync/internal/cart"
	"github.com/verdantmarket/cartsync/internal/catalog"
	"github.com/verdantmarket/cartsync/pkg/config"
	"github.com/verdantmarket/cartsync/pkg/db"
	"github.com/verdantmarket/cartsync/pkg/logger"
	"github.com/verdantmarket/cartsync/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	manager *cartsvc.Manager,
	catalogSvc catalog.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))
		r.Get("/", cartcontrollers.CartFetch(manager, logg))
		r.Post("/lines", cartcontrollers.CartAddLine(manager, catalogSvc, logg))
		r.Post("/lines/batch", cartcontrollers.CartAddBatch(manager, catalogSvc, logg))
		r.Put("/lines/quantity", cartcontrollers.CartSetQuantity(manager, logg))
		r.Delete("/lines", cartcontrollers.CartRemoveLine(manager, logg))
		r.Delete("/", cartcontrollers.CartClear(manager, logg))
		r.Post("/merge", cartcontrollers.CartMerge(manager, logg))
	})

	return r
}
