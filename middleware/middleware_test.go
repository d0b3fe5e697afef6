package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-watch/pharos/entry"
)

// tag appends a marker to a shared trace to record wrap order.
type tag struct {
	name  string
	trace *[]string
}

func (t tag) Wrap(next Handler) Handler {
	return func(e entry.Entry) *entry.Entry {
		*t.trace = append(*t.trace, t.name)
		return next(e)
	}
}

func TestChainOrder(t *testing.T) {
	var trace []string
	handler := Chain(func(e entry.Entry) *entry.Entry {
		trace = append(trace, "handler")
		return &e
	}, tag{"outer", &trace}, tag{"inner", &trace})

	out := handler(entry.Entry{})
	require.NotNil(t, out)
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestChainEmpty(t *testing.T) {
	called := false
	handler := Chain(func(e entry.Entry) *entry.Entry {
		called = true
		return &e
	})
	handler(entry.Entry{})
	assert.True(t, called)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimit(50 * time.Millisecond)
	var delivered int
	handler := Chain(func(e entry.Entry) *entry.Entry {
		delivered++
		return &e
	}, rl)

	assert.NotNil(t, handler(entry.Entry{}))
	assert.Nil(t, handler(entry.Entry{}), "second entry inside the interval must be dropped")
	assert.Equal(t, 1, delivered)

	time.Sleep(60 * time.Millisecond)
	assert.NotNil(t, handler(entry.Entry{}))
	assert.Equal(t, 2, delivered)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(nil)
	handler := Chain(func(e entry.Entry) *entry.Entry {
		if e.LogIndex == 0 {
			return nil
		}
		return &e
	}, m)

	handler(entry.Entry{LogIndex: 1})
	handler(entry.Entry{LogIndex: 2})
	handler(entry.Entry{LogIndex: 0})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.processed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dropped))
}

func TestMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.GetName()
	}
	assert.Contains(t, names, "pharos_entries_processed_total")
	assert.Contains(t, names, "pharos_entries_dropped_total")
}

func TestLoggerPassesThrough(t *testing.T) {
	lg := NewLogger(zerolog.Nop())
	handler := Chain(func(e entry.Entry) *entry.Entry {
		return &e
	}, lg)

	e := entry.Entry{BlockNumber: 7}
	out := handler(e)
	require.NotNil(t, out)
	assert.Equal(t, uint64(7), out.BlockNumber)
}
