package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector_Calls(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewMetricsCollector(reg)

	status := http.StatusOK
	client := NewClient(WithMetricsCollector(mc), WithTransport(TransportFunc(func(context.Context, string, TransportOptions) (*RawResponse, error) {
		return NewRawResponse(status, nil, ""), nil
	})))

	_, _ = client.Call(context.Background(), "https://api.x/", RequestConfig{})
	status = http.StatusBadGateway
	_, _ = client.Call(context.Background(), "https://api.x/", RequestConfig{})

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.requestsTotal.WithLabelValues("GET", "502")))
	assert.Equal(t, 0.0, testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET")))
	assert.Equal(t, 1, testutil.CollectAndCount(mc.requestDuration))
}

func TestMetricsCollector_Timeouts(t *testing.T) {
	reg := prometheus.NewRegistry()
	client := NewClient(WithMetrics(reg), WithTransport(TransportFunc(blockingTransport)))

	_, err := client.Call(context.Background(), "https://api.x/", RequestConfig{Timeout: 10 * time.Millisecond})
	assert.True(t, IsTimeout(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.timeoutsTotal.WithLabelValues("GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.errorsTotal.WithLabelValues("transport", "GET")))
}

func TestMetricsCollector_Nil(t *testing.T) {
	var mc *MetricsCollector
	mc.RecordStart("GET")
	mc.RecordEnd("GET", time.Second)
	mc.RecordResponse("GET", 200)
	mc.RecordError("GET", ErrorTypeTransport, true)
}
