// ABOUTME: Tests for pipeline graphs and dashboard statistics
// ABOUTME: Builds a small linked registry in memory
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipedrive/objects"
)

func sampleRegistry(t *testing.T) *objects.Registry {
	t.Helper()
	reg := objects.NewRegistry()
	construct := func(kind objects.Kind, data map[string]any) {
		_, err := reg.RefreshOrConstruct(kind, data)
		require.NoError(t, err)
	}
	construct(objects.KindPipeline, map[string]any{"id": 1, "name": "Sales"})
	construct(objects.KindStage, map[string]any{"id": 11, "name": "Lead", "pipeline_id": 1, "order_nr": 1})
	construct(objects.KindStage, map[string]any{"id": 12, "name": "Proposal", "pipeline_id": 1, "order_nr": 2})
	construct(objects.KindDeal, map[string]any{
		"id": 100, "title": "Widgets", "value": 5000, "currency": "USD", "status": "open",
		"pipeline_id": 1, "stage_id": 11, "org_id": 7, "org_name": "Acme",
		"rotten_time": "2024-04-20 10:00:00",
	})
	construct(objects.KindDeal, map[string]any{
		"id": 101, "title": "Gadgets", "value": 250, "status": "won",
		"pipeline_id": 1, "stage_id": 12, "org_id": 7, "org_name": "Acme",
	})
	construct(objects.KindPerson, map[string]any{"id": 5, "name": "Ada", "org_id": 7, "last_activity_date": "2024-01-01"})
	construct(objects.KindPerson, map[string]any{"id": 6, "name": "Grace", "last_activity_date": "2024-04-28"})
	return reg
}

func TestGeneratePipelineGraph(t *testing.T) {
	reg := sampleRegistry(t)
	gen := NewGraphGenerator(reg)

	dot, err := gen.GeneratePipelineGraph(context.Background(), 1)
	require.NoError(t, err)
	for _, want := range []string{"stage_11", "stage_12", "deal_100", "deal_101", "org_7", "Widgets"} {
		assert.Contains(t, dot, want)
	}

	_, err = gen.GeneratePipelineGraph(context.Background(), 99)
	assert.ErrorIs(t, err, objects.ErrNotFound)
}

func TestGenerateOrgGraph(t *testing.T) {
	gen := NewGraphGenerator(sampleRegistry(t))

	dot, err := gen.GenerateOrgGraph(context.Background(), 7)
	require.NoError(t, err)
	assert.Contains(t, dot, "person_5")
	assert.Contains(t, dot, "deal_100")
	assert.NotContains(t, dot, "person_6")
}

func TestDashboardStats(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stats := GenerateDashboardStats(sampleRegistry(t), now)

	assert.Equal(t, 2, stats.TotalPersons)
	assert.Equal(t, 1, stats.TotalOrgs)
	assert.Equal(t, 2, stats.TotalDeals)
	// the org is only known from deal payloads
	assert.Equal(t, 1, stats.Stubs)

	require.Len(t, stats.Pipelines, 1)
	require.Len(t, stats.Pipelines[0].Stages, 2)
	assert.Equal(t, StageStats{Stage: "Lead", Count: 1, Value: 5000}, stats.Pipelines[0].Stages[0])
	assert.Equal(t, "Proposal", stats.Pipelines[0].Stages[1].Stage)

	require.Len(t, stats.RottingDeals, 1)
	assert.Equal(t, "Widgets", stats.RottingDeals[0].Title)
	assert.Equal(t, 11, stats.RottingDeals[0].RottingDays)

	require.Len(t, stats.StalePersons, 1)
	assert.Equal(t, "Ada", stats.StalePersons[0].Name)

	out := RenderDashboard(stats)
	assert.True(t, strings.HasPrefix(out, "━"))
	assert.Contains(t, out, "SALES")
	assert.Contains(t, out, "5K")
	assert.Contains(t, out, "1 deals - rotting")
}
