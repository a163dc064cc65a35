package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arcflow/internal/trace"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(prometheus.NewRegistry())
}

func TestMetrics_OnStep(t *testing.T) {
	m := newTestMetrics(t)

	m.OnStep(trace.Step{Seq: 1, Prop: "a", Changed: true, Outcome: trace.OutcomeOK})
	m.OnStep(trace.Step{Seq: 2, Prop: "a", Outcome: trace.OutcomeOK})
	m.OnStep(trace.Step{Seq: 3, Prop: "b", Changed: true, Outcome: trace.OutcomeOK})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("a", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("b", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChangesTotal.WithLabelValues("a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LastSeq))
	assert.Equal(t, 0, testutil.CollectAndCount(m.ContradictionsTotal))
}

func TestMetrics_OnContradiction(t *testing.T) {
	m := newTestMetrics(t)

	m.OnContradiction(trace.Step{Seq: 1, Prop: "deg", Outcome: trace.OutcomeContradiction})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContradictionsTotal.WithLabelValues("deg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepsTotal.WithLabelValues("deg", "contradiction")))
}

func TestMetrics_WriteText(t *testing.T) {
	m := newTestMetrics(t)
	m.OnStep(trace.Step{Seq: 7, Prop: "a", Outcome: trace.OutcomeOK})

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, `arcflow_engine_steps_total{outcome="ok",prop="a"} 1`)
	assert.Contains(t, out, "arcflow_engine_last_seq 7")

	expected := `
# HELP arcflow_engine_last_seq Logical clock value of the last execution
# TYPE arcflow_engine_last_seq gauge
arcflow_engine_last_seq 7
`
	require.NoError(t, testutil.CollectAndCompare(m.LastSeq, strings.NewReader(expected)))
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	// two instances must not collide on registration
	a := newTestMetrics(t)
	b := newTestMetrics(t)
	a.OnStep(trace.Step{Seq: 1, Prop: "a", Outcome: trace.OutcomeOK})
	assert.Equal(t, 0, testutil.CollectAndCount(b.StepsTotal))
}
