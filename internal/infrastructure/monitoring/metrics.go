package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultExhausted = "exhausted"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

type RegistryMetrics struct {
	RegistrationsTotal      *prometheus.CounterVec
	AccountNumberCollisions prometheus.Counter
	CustomersByStatus       *prometheus.GaugeVec
	AccountPoolUtilization  prometheus.Gauge
	NotificationsDelivered  *prometheus.CounterVec
}

var Registry = RegistryMetrics{
	RegistrationsTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_registry_registrations_total",
			Help: "Total number of registration attempts by result.",
		},
		[]string{"result"},
	),
	AccountNumberCollisions: promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "customer_registry_account_number_collisions_total",
			Help: "Total number of generated account numbers that were already assigned.",
		},
	),
	CustomersByStatus: promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "customer_registry_customers",
			Help: "Number of registered customers by status.",
		},
		[]string{"status"},
	),
	AccountPoolUtilization: promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "customer_registry_account_pool_utilization_ratio",
			Help: "Share of the account number range already assigned.",
		},
	),
	NotificationsDelivered: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_registry_notifications_total",
			Help: "Total number of customer notifications delivered by kind.",
		},
		[]string{"kind"},
	),
}

func RecordRegistration(result string) {
	Registry.RegistrationsTotal.WithLabelValues(result).Inc()
}

func RecordAccountNumberCollision() {
	Registry.AccountNumberCollisions.Inc()
}

func RecordNotification(kind string) {
	Registry.NotificationsDelivered.WithLabelValues(kind).Inc()
}
