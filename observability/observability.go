package observability

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes the names of all metrics of the explorer.
const Namespace = "icrc3_explorer"

type Observability struct {
	log *slog.Logger
	reg *prometheus.Registry
}

/*
New returns Observability with a Prometheus registry which already has the Go
runtime and process collectors registered.
*/
func New(log *slog.Logger) *Observability {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Observability{log: log, reg: reg}
}

func (o *Observability) Logger() *slog.Logger {
	return o.log
}

func (o *Observability) PrometheusRegisterer() prometheus.Registerer {
	return o.reg
}

func (o *Observability) Gatherer() prometheus.Gatherer {
	return o.reg
}

// MetricsHandler serves the collected metrics in the Prometheus exposition format.
func (o *Observability) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(o.reg, promhttp.HandlerOpts{MaxRequestsInFlight: 1})
}

/*
Register registers the collector c. When equal collector has been registered
already the existing collector is returned instead.
*/
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

/*
ErrStatus returns "ok" if the param err is nil and "err" when it is not.
Meant to be used as value of the "status" label.
*/
func ErrStatus(err error) string {
	if err != nil {
		return "err"
	}
	return "ok"
}
