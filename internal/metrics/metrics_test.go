package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_ObserveReport(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.ObserveReport("geology", OutcomeOK, 120*time.Millisecond)
	p.ObserveReport("geology", OutcomeOK, 80*time.Millisecond)
	p.ObserveReport("met", OutcomeEmpty, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.generated.WithLabelValues("geology", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.generated.WithLabelValues("met", OutcomeEmpty)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "assaylab_report_duration_seconds")
}

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}
	assert.NotPanics(t, func() { r.ObserveReport("x", OutcomeFailure, time.Second) })
}
