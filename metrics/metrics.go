// Package metrics exposes Prometheus counters for admissions, lifecycle
// transitions and payment collection.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ceremonify"

var (
	once sync.Once

	bookingAdmission = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_admission_total",
			Help:      "Booking requests by admission result.",
		},
		[]string{"result"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transition_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"status"},
	)

	collectionOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_collection_total",
			Help:      "Gateway collection attempts by result.",
		},
		[]string{"result"},
	)

	paymentCallback = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callback_total",
			Help:      "Gateway callbacks by how they were applied.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingAdmission, bookingTransition, collectionOpened, paymentCallback)
	})
}

// IncAdmission counts one admission decision: "admitted" or the rejection kind.
func IncAdmission(result string) {
	bookingAdmission.WithLabelValues(result).Inc()
}

func IncTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

// IncCollection counts one gateway call: "opened" or "failed".
func IncCollection(result string) {
	collectionOpened.WithLabelValues(result).Inc()
}

// IncCallback counts one callback: "completed", "duplicate", "failed" or "rejected".
func IncCallback(result string) {
	paymentCallback.WithLabelValues(result).Inc()
}
