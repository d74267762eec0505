package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts responses of next by endpoint and status code.
func Middleware(next http.Handler, endpointPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		EndpointResponses.WithLabelValues(endpointPath, strconv.Itoa(rec.status)).Inc()
	})
}

// Handler serves the default registry at endpointPath.
func Handler(endpointPath string) http.Handler {
	return Middleware(promhttp.Handler(), endpointPath)
}
