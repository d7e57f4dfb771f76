package remote

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	labelNames = []string{"method", "operation", "status"}

	requestDurations = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: "rint",
			Name:      "requests_duration_nanoseconds",
			Help:      "Amounts of time spent answering remote storage requests in nanoseconds.",
		},
		labelNames,
	)
	requestBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rint",
			Name:      "request_bytes_total",
			Help:      "Total volume of request payloads received in bytes.",
		},
		labelNames,
	)
	responseBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rint",
			Name:      "response_bytes_total",
			Help:      "Total volume of response payloads emitted in bytes.",
		},
		labelNames,
	)
)

func instrument(op string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			start = time.Now()
			rd    = &readerDelegator{ReadCloser: r.Body}
			rc    = &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		)

		r.Body = rd

		next.ServeHTTP(rc, r)

		labels := prometheus.Labels{
			"method":    strings.ToLower(r.Method),
			"operation": op,
			"status":    strconv.Itoa(rc.status),
		}
		requestDurations.With(labels).Observe(float64(time.Since(start)))
		requestBytes.With(labels).Add(float64(rd.bytesRead))
		responseBytes.With(labels).Add(float64(rc.size))
	})
}

type readerDelegator struct {
	io.ReadCloser
	bytesRead int
}

func (r *readerDelegator) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.bytesRead += n
	return n, err
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
