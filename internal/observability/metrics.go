package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	errors            *prometheus.CounterVec
	ticketsCreated    *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	slaOutcomes       *prometheus.CounterVec
	surveysRedeemed   *prometheus.CounterVec
	eventsDropped     *prometheus.CounterVec
	realtimeClients   prometheus.Gauge
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_desk_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "support_desk_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_desk_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		ticketsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_desk_tickets_created_total",
			Help: "Tickets created by priority and SLA tracking.",
		}, []string{"priority", "sla_tracked"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_desk_ticket_status_transitions_total",
			Help: "Committed ticket status transitions.",
		}, []string{"from", "to"}),
		slaOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_desk_sla_outcomes_total",
			Help: "SLA results recorded when a deadline is settled.",
		}, []string{"deadline", "outcome"}),
		surveysRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_desk_surveys_redeemed_total",
			Help: "Redeemed satisfaction surveys by rating.",
		}, []string{"rating"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "support_desk_events_dropped_total",
			Help: "Notification events that could not be delivered.",
		}, []string{"sink"}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "support_desk_realtime_clients",
			Help: "Currently connected realtime subscribers.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.errors,
		m.ticketsCreated,
		m.statusTransitions,
		m.slaOutcomes,
		m.surveysRedeemed,
		m.eventsDropped,
		m.realtimeClients,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// TicketCreated counts a committed ticket creation.
func (m *Metrics) TicketCreated(priority string, slaTracked bool) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(priority, strconv.FormatBool(slaTracked)).Inc()
}

// StatusTransition counts a committed status change.
func (m *Metrics) StatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// SLAOutcome counts a settled deadline ("first_response" or "resolution").
func (m *Metrics) SLAOutcome(deadline, outcome string) {
	if m == nil {
		return
	}
	m.slaOutcomes.WithLabelValues(deadline, outcome).Inc()
}

// SurveyRedeemed counts a redeemed survey.
func (m *Metrics) SurveyRedeemed(rating int) {
	if m == nil {
		return
	}
	m.surveysRedeemed.WithLabelValues(strconv.Itoa(rating)).Inc()
}

// EventDropped counts an event a sink failed to accept.
func (m *Metrics) EventDropped(sink string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(sink).Inc()
}

// RealtimeClients tracks connected subscribers.
func (m *Metrics) RealtimeClients(delta float64) {
	if m == nil {
		return
	}
	m.realtimeClients.Add(delta)
}
