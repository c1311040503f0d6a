package metricskey_test

import (
	"sort"
	"testing"

	"github.com/effective-security/agentcore/pkg/metricskey"
	"github.com/effective-security/metrics"
	"github.com/stretchr/testify/assert"
)

func Test_Metrics(t *testing.T) {
	list := metricskey.Metrics

	for _, m := range list {
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.Help)
		assert.NotEmpty(t, m.RequiredTags, m.Name)
	}

	assert.True(t, sort.SliceIsSorted(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	}), "keep sorted by name")

	seen := make(map[string]bool)
	for _, m := range list {
		assert.False(t, seen[m.Name], "duplicate: %s", m.Name)
		seen[m.Name] = true
	}

	t.Run("tags", func(t *testing.T) {
		tc := map[string][]*metrics.Describe{
			"kind":  {&metricskey.StatsResourcesCreated, &metricskey.StatsResourcesFailed},
			"agent": {&metricskey.StatsAgentCallsSucceeded, &metricskey.StatsAgentCallsFailed, &metricskey.PerfAgentCall, &metricskey.StatsLLMInputTokens},
			"tool":  {&metricskey.StatsToolCallsSucceeded, &metricskey.StatsToolCallsFailed, &metricskey.StatsToolCallsNotFound, &metricskey.PerfToolCall},
		}
		for tag, ms := range tc {
			for _, m := range ms {
				assert.Contains(t, m.RequiredTags, tag, m.Name)
			}
		}
	})
}
