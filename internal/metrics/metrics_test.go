package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/v1/items", 200, 15*time.Millisecond)
		ObserveHTTP("", 404, time.Millisecond)
		IncNotification("completed")
	})
}

func TestIncBooking(t *testing.T) {
	before := testutil.ToFloat64(bookingTransitions.WithLabelValues("approve", "conflict"))
	IncBooking("approve", "conflict")
	IncBooking("approve", "conflict")
	assert.Equal(t, before+2, testutil.ToFloat64(bookingTransitions.WithLabelValues("approve", "conflict")))
}
