// Package metrics expone las métricas Prometheus del motor de inventario.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
)

var _ inventory.Metrics = (*Registry)(nil)

// Registry registro propio (no el global) con los colectores del motor.
type Registry struct {
	reg                   *prometheus.Registry
	MovesCommitted        *prometheus.CounterVec
	OperationsRejected    *prometheus.CounterVec
	ConsistencyViolations prometheus.Counter
	TxLatencySec          *prometheus.HistogramVec
	PublishFailures       prometheus.Counter
}

// NewRegistry crea el registro con métricas de proceso y runtime de Go.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	moves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_moves_committed_total",
		Help: "Movimientos confirmados en el libro, por tipo.",
	}, []string{"move_type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operations_rejected_total",
		Help: "Operaciones rechazadas sin efectos, por motivo.",
	}, []string{"reason"})
	violations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_consistency_violations_total",
		Help: "Violaciones de consistencia detectadas; requieren intervención.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_tx_latency_seconds",
		Help:    "Duración de las transacciones del motor.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	publish := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_publish_failures_total",
		Help: "Movimientos confirmados que no se pudieron publicar.",
	})

	r.MustRegister(
		moves, rejected, violations, latency, publish,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:                   r,
		MovesCommitted:        moves,
		OperationsRejected:    rejected,
		ConsistencyViolations: violations,
		TxLatencySec:          latency,
		PublishFailures:       publish,
	}
}

func (r *Registry) MoveCommitted(moveType string) { r.MovesCommitted.WithLabelValues(moveType).Inc() }

func (r *Registry) OperationRejected(reason string) {
	r.OperationsRejected.WithLabelValues(reason).Inc()
}

func (r *Registry) ConsistencyViolation() { r.ConsistencyViolations.Inc() }

func (r *Registry) ObserveTx(operation string, d time.Duration) {
	r.TxLatencySec.WithLabelValues(operation).Observe(d.Seconds())
}

func (r *Registry) PublishFailed() { r.PublishFailures.Inc() }

// Handler handler HTTP para /metrics.
func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
