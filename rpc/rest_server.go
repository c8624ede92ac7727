package rpc

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	headerContentType = "Content-Type"
	applicationJson   = "application/json"
	textHtml          = "text/html; charset=utf-8"
)

// DefaultWriteTimeout of the REST server.
const DefaultWriteTimeout = 95 * time.Second

var allowedCORSHeaders = []string{"Accept", "Accept-Language", "Content-Language", "Origin", headerContentType}

type (
	// Registrar registers new HTTP handlers for given router.
	Registrar interface {
		Register(r *mux.Router)
	}

	// RegistrarFunc type is an adapter to allow the use of ordinary function as Registrar.
	RegistrarFunc func(r *mux.Router)

	Observability interface {
		Logger() *slog.Logger
		PrometheusRegisterer() prometheus.Registerer
	}
)

func NewRESTServer(addr string, maxBodySize int64, obs Observability, registrars ...Registrar) *http.Server {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)
	r.Use(handlers.CORS(handlers.AllowedHeaders(allowedCORSHeaders)), instrumentHTTP(obs.PrometheusRegisterer(), obs.Logger()))

	for _, registrar := range registrars {
		registrar.Register(r)
	}

	return &http.Server{
		Addr:              addr,
		ReadTimeout:       3 * time.Second,
		ReadHeaderTimeout: time.Second,
		// metadata, block and archive queries with the default 30s timeout
		// have to fit into the write timeout
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  30 * time.Second,
		Handler:      http.MaxBytesHandler(r, maxBodySize),
	}
}

func (f RegistrarFunc) Register(r *mux.Router) {
	f(r)
}

// MetricsEndpoints serves Prometheus metrics on the /metrics path.
func MetricsEndpoints(h http.Handler) RegistrarFunc {
	return func(r *mux.Router) {
		r.Handle("/metrics", h).Methods(http.MethodGet)
	}
}
