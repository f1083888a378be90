package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerencsarMichal/citacka/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

// StoreMetrics counts the business events worth graphing.
type StoreMetrics struct {
	Checkouts  prometheus.Counter
	CopiesSold prometheus.Counter
}

func NewStoreMetrics(reg *prometheus.Registry) *StoreMetrics {
	m := &StoreMetrics{
		Checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookstore_checkouts_total",
			Help: "Completed checkouts",
		}),
		CopiesSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookstore_copies_sold_total",
			Help: "Book copies sold across all checkouts",
		}),
	}

	reg.MustRegister(m.Checkouts, m.CopiesSold)
	return m
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, s, deps)

	r.Mount("/", s.Routes())
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, s *Server, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	s.Metrics = NewStoreMetrics(deps.Registry)

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
