package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("GET /bookings/{id}", 200)
		IncCache("hit")
		IncBookingCreated()
	})

	before := counterValue(t, "APPROVED")
	IncBookingDecision("APPROVED")
	assert.Equal(t, before+1, counterValue(t, "APPROVED"))
}

func counterValue(t *testing.T, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, bookingDecisions.WithLabelValues(status).Write(&m))
	return m.GetCounter().GetValue()
}
