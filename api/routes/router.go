package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iskomart/iskomart-backend/api/controllers"
	cartcontrollers "github.com/iskomart/iskomart-backend/api/controllers/cart"
	messagecontrollers "github.com/iskomart/iskomart-backend/api/controllers/messages"
	ordercontrollers "github.com/iskomart/iskomart-backend/api/controllers/orders"
	"github.com/iskomart/iskomart-backend/api/middleware"
	"github.com/iskomart/iskomart-backend/internal/cart"
	"github.com/iskomart/iskomart-backend/internal/checkout"
	"github.com/iskomart/iskomart-backend/internal/messages"
	"github.com/iskomart/iskomart-backend/internal/orders"
	"github.com/iskomart/iskomart-backend/pkg/config"
	"github.com/iskomart/iskomart-backend/pkg/logger"
	"github.com/iskomart/iskomart-backend/pkg/metrics"
	"github.com/iskomart/iskomart-backend/pkg/redis"
	"github.com/iskomart/iskomart-backend/pkg/telemetry"
)

// Dependencies are the services and backends the HTTP surface is built on.
// Redis and Gatherer may be nil.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       *redis.Client
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Messages messages.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"database": deps.DB, "redis": nil}
	var idempotencyStore redis.IdempotencyStore
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
		idempotencyStore = deps.Redis
	}

	r.Get("/health/live", controllers.HealthLive(cfg.App.Env))
	r.Get("/health/ready", controllers.HealthReady(cfg.App.Env, readiness, logg))
	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		idempotent := middleware.Idempotency(idempotencyStore, logg)

		r.Route("/orders", func(r chi.Router) {
			r.With(idempotent).Post("/place", ordercontrollers.Place(deps.Checkout, logg))
			r.With(idempotent).Post("/confirm", ordercontrollers.Confirm(deps.Checkout, logg))
			r.Get("/buyer/{user_id}", ordercontrollers.ListForBuyer(deps.Orders, logg))
			r.Get("/seller/{user_id}", ordercontrollers.ListForSeller(deps.Orders, logg))
			r.Get("/between/{user1_id}/{user2_id}", ordercontrollers.ListBetween(deps.Orders, logg))
			r.Put("/status/{user_id}", ordercontrollers.UpdateStatusForUser(deps.Orders, logg))
			r.Get("/{order_id}", ordercontrollers.Detail(deps.Orders, logg))
			r.Put("/{order_id}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", cartcontrollers.Add(deps.Cart, logg))
			r.Put("/update", cartcontrollers.Update(deps.Cart, logg))
			r.Delete("/remove", cartcontrollers.Remove(deps.Cart, logg))
			r.Delete("/clear/{user_id}", cartcontrollers.Clear(deps.Cart, logg))
			r.Get("/{user_id}", cartcontrollers.Fetch(deps.Cart, logg))
		})

		r.Route("/text/messages", func(r chi.Router) {
			r.Post("/", messagecontrollers.Send(deps.Messages, logg))
			r.Get("/between/{user1_id}/{user2_id}", messagecontrollers.ListBetween(deps.Messages, logg))
			r.Get("/user/{user_id}", messagecontrollers.User(deps.Messages, logg))
			r.Get("/{user_id}", messagecontrollers.ListForUser(deps.Messages, logg))
		})
	})

	return telemetry.WrapHandler(r, "iskomart-api")
}
