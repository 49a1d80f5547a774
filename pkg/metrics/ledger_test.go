package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
)

func TestLedgerMetrics_NilSafe(t *testing.T) {
	var m *LedgerMetrics
	m.ObserveMovement("out", "sale", 10)
	m.ObserveOperation("complete", nil, time.Millisecond)
	m.IncLowStock()

	inert := NewLedgerMetrics(nil)
	inert.ObserveMovement("in", "manual", 1)
	inert.IncLowStock()
}

func TestLedgerMetrics_Registra(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveMovement("out", "sale", 100)
	m.ObserveMovement("out", "sale", 50)
	m.ObserveOperation("complete", domain.ErrConflict, 2*time.Millisecond)
	m.IncLowStock()

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]*dto.MetricFamily{}
	for _, f := range families {
		byName[f.GetName()] = f
	}

	require.Contains(t, byName, "ledger_stock_pieces_total")
	assert.Equal(t, 150.0, byName["ledger_stock_pieces_total"].Metric[0].GetCounter().GetValue())

	require.Contains(t, byName, "ledger_sale_transitions_total")
	labels := byName["ledger_sale_transitions_total"].Metric[0].GetLabel()
	got := map[string]string{}
	for _, l := range labels {
		got[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, "conflict", got["result"])
	assert.Equal(t, 1.0, byName["ledger_low_stock_signals_total"].Metric[0].GetCounter().GetValue())
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", ResultLabel(nil))
	assert.Equal(t, "insufficient_stock", ResultLabel(&domain.InsufficientStockError{}))
	assert.Equal(t, "not_found", ResultLabel(domain.NotFound("venta", "x")))
	assert.Equal(t, "invalid", ResultLabel(domain.ErrInvalidInput))
	assert.Equal(t, "error", ResultLabel(errors.New("boom")))
}
