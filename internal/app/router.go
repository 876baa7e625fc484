package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nimbus-retail/nimbus-retail/internal/accounting/groups"
	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/customers"
	"github.com/nimbus-retail/nimbus-retail/internal/masterdata/products"
	"github.com/nimbus-retail/nimbus-retail/internal/observability"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/orders"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/paylater"
	"github.com/nimbus-retail/nimbus-retail/internal/pos/payments"
	"github.com/nimbus-retail/nimbus-retail/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	GroupsHandler   *groups.Handler
	OrdersHandler   *orders.Handler
	PayLaterHandler *paylater.Handler
	ReceiptHandler  *payments.Handler
	ProductHandler  *products.Handler
	CustomerHandler *customers.Handler
	JobHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Nimbus defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.GroupsHandler != nil {
			api.Route("/accounting", func(sub chi.Router) {
				params.GroupsHandler.MountRoutes(sub)
			})
		}
		api.Route("/masterdata", func(sub chi.Router) {
			if params.ProductHandler != nil {
				params.ProductHandler.MountRoutes(sub)
			}
			if params.CustomerHandler != nil {
				params.CustomerHandler.MountRoutes(sub)
			}
		})
		api.Route("/pos", func(sub chi.Router) {
			if params.OrdersHandler != nil {
				params.OrdersHandler.MountRoutes(sub)
			}
			if params.PayLaterHandler != nil {
				params.PayLaterHandler.MountRoutes(sub)
			}
			if params.ReceiptHandler != nil {
				params.ReceiptHandler.MountRoutes(sub)
			}
		})
		if params.JobHandler != nil {
			api.Route("/jobs", func(sub chi.Router) {
				params.JobHandler.MountRoutes(sub)
			})
		}
	})

	return r
}
