package audit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTool(t *testing.T) {
	tool, err := ParseTool("meta-tags")
	require.NoError(t, err)
	require.Equal(t, ToolMetaTags, tool)

	_, err = ParseTool("spellcheck")
	require.Error(t, err)
	require.Contains(t, err.Error(), "spellcheck")
}

func TestToolForSessionType(t *testing.T) {
	tool, ok := ToolForSessionType("visual")
	require.True(t, ok)
	require.Equal(t, ToolVisual, tool)

	tool, ok = ToolForSessionType("meta-tags")
	require.True(t, ok)
	require.Equal(t, ToolMetaTags, tool)

	// url comparisons are synchronous, they never become sessions
	_, ok = ToolForSessionType("")
	require.False(t, ok)

	_, ok = ToolForSessionType("unified")
	require.False(t, ok)
}

func TestSpecPaths(t *testing.T) {
	spec := ToolMetaTags.Spec()
	require.Equal(t, "/progress/meta-tags/sess_1", spec.ProgressPath("sess_1"))
	require.Equal(t, "/api/results/meta-tags/sess_1", spec.ResultsPath("sess_1"))

	spec = ToolPhone.Spec()
	require.Equal(t, "/phone-results/sess_2", spec.ResultsPath("sess_2"))

	// visual, performance and accessibility share one results route
	require.Equal(t, ToolVisual.Spec().ResultsRoute, ToolPerformance.Spec().ResultsRoute)
	require.Equal(t, ToolVisual.Spec().ResultsRoute, ToolAccessibility.Spec().ResultsRoute)
}

func TestToolsCoverSpecs(t *testing.T) {
	listed := Tools()
	require.Len(t, listed, len(specs))
	for _, tool := range listed {
		require.True(t, tool.Valid(), string(tool))
	}
}
