package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusProvider_Counters(t *testing.T) {
	p := New(true).(*PrometheusProvider)

	p.ObserveOperation("create", nil)
	p.ObserveOperation("create", errors.New("x"))
	p.RemoteOp("upsert", "failed")
	p.SetPointCounts(3, 1)
	p.ObserveSave(time.Millisecond, errors.New("disk full"))
	p.ObserveRequest("/api/points", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.operations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.operations.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.remoteOps.WithLabelValues("upsert", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.points.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.saveFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requestsTotal.WithLabelValues("/api/points", "4xx")))
}

func TestPrometheusProvider_Handler(t *testing.T) {
	p := New(true)
	p.ObserveOperation("resolve", nil)

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sitepins_operations_total{op="resolve",result="ok"} 1`)
}

func TestNew_DisabledIsNoop(t *testing.T) {
	p := New(false)
	assert.IsType(t, Noop{}, p)

	p.ObserveOperation("create", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPStatusBucket(t *testing.T) {
	assert.Equal(t, "2xx", httpStatusBucket(201))
	assert.Equal(t, "5xx", httpStatusBucket(503))
	assert.Equal(t, "1xx", httpStatusBucket(101))
}
