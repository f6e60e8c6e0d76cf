package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("add_policy", time.Now(), nil)
	m.ObserveOperation("add_policy", time.Now(), nil)
	m.ObserveOperation("add_policy", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("add_policy", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("add_policy", ResultError)))
}

func TestObserveTransactionAndRows(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransaction(TxCommit)
	m.ObserveTransaction(TxRollback)
	m.ObserveTransaction(TxRollback)
	m.AddRows("insert", 3)
	m.AddRows("insert", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues(TxCommit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues(TxRollback)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rows.WithLabelValues("insert")))
}

func TestRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveTransaction(TxCommit)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "casbinsql_transactions_total")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("load_policy", time.Now(), nil)
		m.ObserveTransaction(TxCommit)
		m.AddRows("delete", 1)
	})
}

func TestUnregistered(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil).ObserveTransaction(TxCommit)
	})
}
