package rpc

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/peridotvault/icrc3-explorer/logger"
	"github.com/peridotvault/icrc3-explorer/observability"
)

/*
instrumentHTTP returns http middleware which instruments the incoming handler with two metrics:
  - number of calls: how many times the endpoint has been called;
  - request duration: how long it took to serve the request.
*/
func instrumentHTTP(reg prometheus.Registerer, log *slog.Logger) func(next http.Handler) http.Handler {
	callCnt, err := observability.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: observability.Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "How many times the endpoint has been called",
	}, []string{"route", "code"}))
	if err != nil {
		log.Error("creating calls counter", logger.Error(err))
		return passthroughMW
	}
	callDur, err := observability.Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: observability.Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "How long it took to serve the request",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route", "code"}))
	if err != nil {
		log.Error("creating duration histogram", logger.Error(err))
		return passthroughMW
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			path := ""
			if route := mux.CurrentRoute(req); route != nil {
				var err error
				if path, err = route.GetPathTemplate(); err != nil {
					log.WarnContext(req.Context(), "reading route path", logger.Error(err))
				}
			}

			start := time.Now()
			rsp := newstatusResponseWriter(w)
			next.ServeHTTP(rsp, req)

			code := strconv.Itoa(rsp.statusCode)
			callCnt.WithLabelValues(path, code).Inc()
			callDur.WithLabelValues(path, code).Observe(time.Since(start).Seconds())
		})
	}
}

/*
passthroughMW is NOP middleware.
*/
func passthroughMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req)
	})
}

/*
statusResponseWriter is a http.ResponseWriter wrapper which allows to capture
status code of the response.
*/
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newstatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	return mw.ResponseWriter.Write(b)
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}
