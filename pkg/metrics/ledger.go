package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics métricas del motor de ventas e inventario.
// Todos los métodos aceptan receptor nil (métricas deshabilitadas).
type LedgerMetrics struct {
	movements   *prometheus.CounterVec
	pieces      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lowStock    prometheus.Counter
}

// NewLedgerMetrics registra las métricas en reg. Con reg nil devuelve métricas inertes.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_stock_movements_total",
			Help: "Movimientos de stock escritos en el libro.",
		}, []string{"type", "reference_type"}),
		pieces: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_stock_pieces_total",
			Help: "Piezas movidas por dirección.",
		}, []string{"type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_sale_transitions_total",
			Help: "Operaciones sobre ventas por resultado.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_sale_operation_duration_seconds",
			Help:    "Duración de las operaciones sobre ventas.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		lowStock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_low_stock_signals_total",
			Help: "Señales de stock bajo emitidas.",
		}),
	}
	reg.MustRegister(m.movements, m.pieces, m.transitions, m.duration, m.lowStock)
	return m
}

// ObserveMovement cuenta un movimiento escrito.
func (m *LedgerMetrics) ObserveMovement(movementType, referenceType string, pieces int64) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(movementType, referenceType).Inc()
	m.pieces.WithLabelValues(movementType).Add(float64(pieces))
}

// ObserveOperation registra resultado y duración de una operación (create, complete, undo, edit).
func (m *LedgerMetrics) ObserveOperation(op string, err error, took time.Duration) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(op, ResultLabel(err)).Inc()
	m.duration.WithLabelValues(op).Observe(took.Seconds())
}

// IncLowStock cuenta una señal de stock bajo.
func (m *LedgerMetrics) IncLowStock() {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Inc()
}
