package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the console's Prometheus instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
	bulkSlots   *prometheus.CounterVec
	logins      *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payroll_console",
			Name:      "api_requests_total",
			Help:      "Requests sent to the payroll backend, by method and status code (0 for transport failures).",
		}, []string{"method", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payroll_console",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of requests sent to the payroll backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		bulkSlots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payroll_console",
			Name:      "bulk_load_slots_total",
			Help:      "Outcomes of the employee bulk-load slots.",
		}, []string{"slot", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payroll_console",
			Name:      "logins_total",
			Help:      "Login attempts by result and role.",
		}, []string{"result", "role"}),
	}
	reg.MustRegister(m.apiRequests, m.apiDuration, m.bulkSlots, m.logins)
	return m
}

func (m *Metrics) ObserveAPI(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.apiDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Slot outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
)

func (m *Metrics) ObserveSlot(slot, outcome string) {
	if m == nil {
		return
	}
	m.bulkSlots.WithLabelValues(slot, outcome).Inc()
}

func (m *Metrics) ObserveLogin(ok bool, role string) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.logins.WithLabelValues(result, role).Inc()
}
