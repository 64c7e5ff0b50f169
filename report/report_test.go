// ABOUTME: Tests for the pipeline and person reports
// ABOUTME: Checks stage ordering, next-stage lookup and stub counts
package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipedrive/objects"
)

func construct(t *testing.T, reg *objects.Registry, kind objects.Kind, data map[string]any) *objects.Record {
	t.Helper()
	rec, err := reg.RefreshOrConstruct(kind, data)
	require.NoError(t, err)
	return rec
}

func TestPipelineReport(t *testing.T) {
	reg := objects.NewRegistry()
	sales := construct(t, reg, objects.KindPipeline, map[string]any{"id": 1, "name": "Sales"})
	empty := construct(t, reg, objects.KindPipeline, map[string]any{"id": 2, "name": "Hiring"})
	// stages arrive out of order
	construct(t, reg, objects.KindStage, map[string]any{"id": 12, "name": "Proposal", "pipeline_id": 1, "order_nr": 2})
	construct(t, reg, objects.KindStage, map[string]any{"id": 11, "name": "Lead", "pipeline_id": 1, "order_nr": 1})
	construct(t, reg, objects.KindDeal, map[string]any{
		"id": 100, "title": "Widgets", "status": "open", "pipeline_id": 1, "stage_id": 11,
		"org_id": 7, "org_name": "Acme", "person_id": 5, "person_name": "Ada",
	})

	var buf bytes.Buffer
	require.NoError(t, PipelineReport(&buf, []*objects.Record{sales, empty}))
	out := buf.String()

	assert.Contains(t, out, "Processing Pipeline(1,Sales)")
	assert.Contains(t, out, "No deals for Stage(12,Proposal)")
	assert.Contains(t, out, "No deals for Hiring")

	var row string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "100 ") {
			row = line
		}
	}
	require.NotEmpty(t, row)
	assert.Equal(t, []string{"100", "Acme", "Ada", "Proposal", "-", "open"}, strings.Fields(row))
	assert.Less(t, strings.Index(out, "Lead"), strings.Index(out, "No deals for Stage(12"))
}

func TestPersonsReport(t *testing.T) {
	reg := objects.NewRegistry()
	ada := construct(t, reg, objects.KindPerson, map[string]any{
		"id": 5, "name": "Ada", "org_id": map[string]any{"value": 7, "name": "Acme"},
		"email": []any{map[string]any{"value": "ada@example.com"}},
	})
	grace := construct(t, reg, objects.KindPerson, map[string]any{"id": 6, "name": "Grace"})

	stats := CountPersons([]*objects.Record{ada, grace})
	assert.Equal(t, PersonStats{Total: 2, WithOrg: 1, OrgStubs: 1}, stats)

	construct(t, reg, objects.KindOrganization, map[string]any{"id": 7, "name": "Acme Corp"})
	stats = CountPersons([]*objects.Record{ada, grace})
	assert.Equal(t, 0, stats.OrgStubs)

	var buf bytes.Buffer
	require.NoError(t, PersonsReport(&buf, []*objects.Record{ada, grace}, 1))
	out := buf.String()
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "Acme Corp")
	assert.NotContains(t, out, "Grace")
	assert.Contains(t, out, "2 person(s), 1 with an organization, 0 of those organizations are stubs")
}
