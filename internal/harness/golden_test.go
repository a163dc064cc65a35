package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"triangle_initial", "kernel_contradiction"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			require.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshot_Canonical(t *testing.T) {
	snap := TraceSnapshot{ScenarioName: "empty", Outcome: OutcomeFixpoint}
	data, err := snap.Canonical()
	require.NoError(t, err)
	require.Equal(t, `{"outcome":"fixpoint","scenario_name":"empty","trace":[]}`, string(data))
}
