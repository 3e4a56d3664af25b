package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/armanehsani/zarledger-backend/api/controllers"
	"github.com/armanehsani/zarledger-backend/api/middleware"
	"github.com/armanehsani/zarledger-backend/internal/contracts"
	"github.com/armanehsani/zarledger-backend/internal/customers"
	"github.com/armanehsani/zarledger-backend/internal/goldprice"
	"github.com/armanehsani/zarledger-backend/internal/ledger"
	"github.com/armanehsani/zarledger-backend/internal/payments"
	"github.com/armanehsani/zarledger-backend/pkg/config"
	"github.com/armanehsani/zarledger-backend/pkg/logger"
	pkgredis "github.com/armanehsani/zarledger-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cacheP controllers.Pinger,
	idemStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	customerService customers.Service,
	contractService contracts.Service,
	ledgerService ledger.Service,
	paymentService payments.Service,
	priceService goldprice.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cacheP, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, cfg.Idempotency.TTL, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(customerService, logg))
			r.Get("/", controllers.CustomerList(customerService, logg))
			r.Get("/{customerID}", controllers.CustomerGet(customerService, logg))
		})

		r.Route("/contracts", func(r chi.Router) {
			r.Post("/", controllers.ContractCreate(contractService, logg))
			r.Get("/", controllers.ContractList(contractService, logg))
			r.Get("/{contractID}", controllers.ContractGet(contractService, logg))
			r.Get("/{contractID}/ledger", controllers.ContractLedger(contractService, ledgerService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdjustmentRole(logg))
				r.Post("/{contractID}/complete", controllers.ContractComplete(contractService, logg))
				r.Post("/{contractID}/default", controllers.ContractDefault(contractService, logg))
			})
		})

		r.Post("/payments", controllers.PaymentPost(paymentService, logg))
		r.Post("/adjustments", controllers.AdjustmentPost(paymentService, logg))

		r.Route("/prices", func(r chi.Router) {
			r.Get("/current", controllers.PriceCurrent(priceService, logg))
			r.Get("/history", controllers.PriceHistory(priceService, logg))
		})
	})

	return r
}
