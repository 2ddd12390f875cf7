/*
Package metrics exposes gallery counters to Prometheus. A nil
GalleryMetrics is never handed out; callers that do not care about
metrics get NewNoopMetrics.
*/
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type GalleryMetrics interface {
	ObserveOperation(operation string, err error, duration time.Duration)
	PhotosSaved(count int)
	LoginAttempt(result string)
}

type prometheusMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	photosSaved       prometheus.Counter
	loginAttempts     *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) GalleryMetrics {
	return &prometheusMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_operations_total",
				Help: "Total number of gallery operations by outcome",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gallery_operation_duration_seconds",
				Help:    "Duration of gallery operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		photosSaved: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "gallery_photos_saved_total",
				Help: "Total number of photos written by uploads",
			},
		),
		loginAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_login_attempts_total",
				Help: "Admin login attempts by result",
			},
			[]string{"result"},
		),
	}
}

func (m *prometheusMetrics) ObserveOperation(operation string, err error, duration time.Duration) {
	status := "success"

	if err != nil {
		status = "error"
	}

	m.operations.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *prometheusMetrics) PhotosSaved(count int) {
	m.photosSaved.Add(float64(count))
}

func (m *prometheusMetrics) LoginAttempt(result string) {
	m.loginAttempts.WithLabelValues(result).Inc()
}

/*
Handler serves everything registered on gatherer in the Prometheus text
format.
*/
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type noopMetrics struct{}

func NewNoopMetrics() GalleryMetrics {
	return noopMetrics{}
}

func (noopMetrics) ObserveOperation(string, error, time.Duration) {}
func (noopMetrics) PhotosSaved(int)                               {}
func (noopMetrics) LoginAttempt(string)                           {}
