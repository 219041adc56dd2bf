package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-fefo/internal/infrastructure/metrics"
)

func TestRegistry_Contadores(t *testing.T) {
	r := metrics.NewRegistry()
	r.MoveCommitted("sale")
	r.MoveCommitted("sale")
	r.MoveCommitted("purchase_receipt")
	r.OperationRejected("insufficient_stock")
	r.ConsistencyViolation()
	r.PublishFailed()
	r.ObserveTx("deduct", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.MovesCommitted.WithLabelValues("sale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MovesCommitted.WithLabelValues("purchase_receipt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.OperationsRejected.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConsistencyViolations))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PublishFailures))
}

func TestRegistry_Handler(t *testing.T) {
	r := metrics.NewRegistry()
	r.MoveCommitted("adjustment")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `inventory_moves_committed_total{move_type="adjustment"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
