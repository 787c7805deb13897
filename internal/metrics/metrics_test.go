package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ResolveTotal.WithLabelValues("venue").Inc()
	m.RemoteRequests.WithLabelValues("hit").Add(2)
	m.CacheLookups.WithLabelValues("miss").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolveTotal.WithLabelValues("venue")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RemoteRequests.WithLabelValues("hit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "venue_resolve_total")
	assert.Contains(t, names, "venue_cache_lookups_total")
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNewNop_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop()
		NewNop()
	})
}
