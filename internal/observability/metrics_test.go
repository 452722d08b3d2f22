package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsNilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/tickets", "GET", 200, time.Millisecond)
		m.RecordError("/tickets", "GET", "NOT_FOUND")
		m.TicketCreated("Alta", true)
		m.StatusTransition("OPEN", "RESOLVED")
		m.SLAOutcome("resolution", "met")
		m.SurveyRedeemed(5)
		m.EventDropped("stream")
		m.RealtimeClients(1)
	})
	assert.Nil(t, m.Registry())
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.TicketCreated("Alta", true)
	m.TicketCreated("Alta", true)
	m.StatusTransition("AWAITING_CLIENT", "RESOLVED")
	m.SurveyRedeemed(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticketsCreated.WithLabelValues("Alta", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusTransitions.WithLabelValues("AWAITING_CLIENT", "RESOLVED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.surveysRedeemed.WithLabelValues("4")))
}
