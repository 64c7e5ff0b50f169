// ABOUTME: Tests for the relationship linker across persons, deals, stages and notes
// ABOUTME: Verifies stub creation, shared references and back-reference maintenance
package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonLinksOrgAndOwner(t *testing.T) {
	reg := NewRegistry()

	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{
		"id":       float64(1),
		"name":     "Ada",
		"org_id":   map[string]any{"value": float64(5), "name": "Acme"},
		"owner_id": map[string]any{"id": float64(9), "name": "Sales Rep", "email": "rep@example.com"},
	})
	require.NoError(t, err)

	org := person.Org()
	require.NotNil(t, org)
	assert.Equal(t, int64(5), org.ID())
	assert.True(t, org.IsStub())
	assert.Equal(t, "Acme", person.OrgName())
	assert.Equal(t, []*Record{person}, org.Persons())

	owner := person.Owner()
	require.NotNil(t, owner)
	assert.False(t, owner.IsStub())
	assert.Equal(t, "rep@example.com", owner.EmailAddress())
}

func TestPersonBareOwnerIsFullUser(t *testing.T) {
	reg := NewRegistry()

	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(2), "name": "Ada", "owner_id": float64(9), "owner_name": "Rep"})
	require.NoError(t, err)
	require.NotNil(t, person.Owner())
	assert.Equal(t, int64(9), person.Owner().ID())
	assert.False(t, person.Owner().IsStub())
}

func TestPersonWithoutOrg(t *testing.T) {
	reg := NewRegistry()

	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(1), "name": "Solo", "org_id": nil})
	require.NoError(t, err)
	assert.Nil(t, person.Org())
	assert.Equal(t, "", person.OrgName())
	assert.Equal(t, 0, reg.Store(KindOrganization).Len())
}

func pipelineDealPayload(id, stage float64) map[string]any {
	return map[string]any{
		"id":              id,
		"title":           "Deal",
		"pipeline_id":     float64(1),
		"stage_id":        stage,
		"org_id":          float64(5),
		"org_name":        "Acme",
		"user_id":         float64(9),
		"owner_name":      "Rep",
		"creator_user_id": float64(9),
		"person_id":       float64(7),
		"person_name":     "Ada",
	}
}

func TestDealLinksBareReferences(t *testing.T) {
	reg := NewRegistry()

	deal, err := reg.RefreshOrConstruct(KindDeal, pipelineDealPayload(100, 3))
	require.NoError(t, err)

	pipeline := deal.Pipeline()
	require.NotNil(t, pipeline)
	assert.Equal(t, "Unknown (from deal)", pipeline.Name())
	assert.True(t, pipeline.IsStub())

	stage := deal.Stage()
	require.NotNil(t, stage)
	assert.Same(t, pipeline, stage.Pipeline())
	assert.Equal(t, []*Record{stage}, pipeline.Stages())

	assert.Equal(t, "Acme", deal.OrgName())
	assert.Equal(t, "Ada", deal.PersonName())
	assert.Equal(t, "Rep", deal.Owner().Name())
	assert.Same(t, deal.Owner(), deal.Creator())

	// the person stub is seeded with the deal's org
	assert.Same(t, deal.Org(), deal.Person().Org())

	for _, rec := range []*Record{pipeline, stage, deal.Org(), deal.Person()} {
		assert.Equal(t, []*Record{deal}, rec.Deals(), "back-reference on %s", rec)
	}
}

func TestDealLinksNestedReferences(t *testing.T) {
	reg := NewRegistry()

	deal, err := reg.RefreshOrConstruct(KindDeal, map[string]any{
		"id":              float64(100),
		"title":           "Nested",
		"org_id":          map[string]any{"value": float64(5), "name": "Acme"},
		"user_id":         map[string]any{"id": float64(9), "name": "Rep"},
		"creator_user_id": map[string]any{"id": float64(10), "name": "Boss"},
		"person_id":       map[string]any{"value": float64(7), "name": "Ada"},
	})
	require.NoError(t, err)

	assert.Nil(t, deal.Pipeline())
	assert.Nil(t, deal.Stage())
	assert.True(t, deal.Owner().IsStub())
	assert.False(t, deal.Creator().IsStub())
	assert.True(t, deal.Person().IsStub())
	assert.Equal(t, "Ada", deal.PersonName())
}

func TestSharedStubAcrossDeals(t *testing.T) {
	reg := NewRegistry()

	first, err := reg.RefreshOrConstruct(KindDeal, pipelineDealPayload(100, 3))
	require.NoError(t, err)
	second, err := reg.RefreshOrConstruct(KindDeal, pipelineDealPayload(101, 3))
	require.NoError(t, err)

	assert.Same(t, first.Org(), second.Org())
	assert.Same(t, first.Stage(), second.Stage())
	assert.Equal(t, []*Record{first, second}, first.Org().Deals())
	assert.Equal(t, 1, reg.Store(KindOrganization).Len())
}

func TestRefreshPropagatesToHolders(t *testing.T) {
	reg := NewRegistry()

	deal, err := reg.RefreshOrConstruct(KindDeal, pipelineDealPayload(100, 3))
	require.NoError(t, err)
	org := deal.Org()
	require.True(t, org.IsStub())

	refreshed, err := reg.RefreshOrConstruct(KindOrganization, map[string]any{"id": float64(5), "name": "Acme Corporation", "address": "1 Main St"})
	require.NoError(t, err)

	assert.Same(t, org, refreshed)
	assert.Same(t, org, deal.Org())
	assert.False(t, deal.Org().IsStub())
	assert.Equal(t, "Acme Corporation", deal.OrgName())
}

func TestRefreshRelinksWithoutDuplicates(t *testing.T) {
	reg := NewRegistry()

	deal, err := reg.RefreshOrConstruct(KindDeal, pipelineDealPayload(100, 3))
	require.NoError(t, err)
	oldStage := deal.Stage()

	_, err = reg.RefreshOrConstruct(KindDeal, pipelineDealPayload(100, 3))
	require.NoError(t, err)
	assert.Len(t, oldStage.Deals(), 1)

	// moving the deal re-resolves the forward reference; back-references are not pruned
	_, err = reg.RefreshOrConstruct(KindDeal, pipelineDealPayload(100, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(4), deal.Stage().ID())
	assert.Len(t, deal.Stage().Deals(), 1)
	assert.Len(t, oldStage.Deals(), 1)
}

func TestStageLinksPipeline(t *testing.T) {
	reg := NewRegistry()

	named, err := reg.RefreshOrConstruct(KindStage, map[string]any{"id": float64(1), "name": "Lead", "pipeline_id": float64(2), "pipeline_name": "Sales"})
	require.NoError(t, err)
	assert.Equal(t, "Sales", named.Pipeline().Name())

	unnamed, err := reg.RefreshOrConstruct(KindStage, map[string]any{"id": float64(3), "name": "Lead", "pipeline_id": float64(4)})
	require.NoError(t, err)
	assert.Equal(t, "Unknown (from stage)", unnamed.Pipeline().Name())
}

func TestPipelineStageNavigation(t *testing.T) {
	reg := NewRegistry()

	var stages []*Record
	for i, order := range []float64{3, 1, 2} {
		stage, err := reg.RefreshOrConstruct(KindStage, map[string]any{
			"id":          float64(i + 1),
			"name":        "Stage",
			"order_nr":    order,
			"pipeline_id": float64(1),
		})
		require.NoError(t, err)
		stages = append(stages, stage)
	}
	pipeline := stages[0].Pipeline()

	assert.Same(t, stages[1], pipeline.NextStage(stages[0]))
	assert.Nil(t, pipeline.NextStage(stages[2]))
	assert.Nil(t, pipeline.PrevStage(stages[0]))

	pipeline.SortStages()
	assert.Equal(t, []*Record{stages[1], stages[2], stages[0]}, pipeline.Stages())
	assert.Same(t, stages[2], pipeline.NextStage(stages[1]))
	assert.Same(t, stages[2], pipeline.PrevStage(stages[0]))
	assert.Nil(t, pipeline.NextStage(stages[0]))

	other, err := reg.RefreshOrConstruct(KindStage, map[string]any{"id": float64(99), "pipeline_id": float64(2)})
	require.NoError(t, err)
	assert.Nil(t, pipeline.NextStage(other))
}

func TestNoteLinks(t *testing.T) {
	reg := NewRegistry()

	note, err := reg.RefreshOrConstruct(KindNote, map[string]any{
		"id":           float64(50),
		"content":      "Met at the conference",
		"user_id":      float64(9),
		"user":         map[string]any{"name": "Rep", "email": "rep@example.com"},
		"org_id":       float64(5),
		"organization": map[string]any{"name": "Acme"},
		"deal_id":      float64(100),
		"deal":         map[string]any{"title": "Renewal"},
		"person_id":    float64(7),
		"person":       map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)

	user := note.User()
	require.NotNil(t, user)
	assert.False(t, user.IsStub())
	assert.Equal(t, int64(9), user.ID())
	assert.Equal(t, "rep@example.com", user.EmailAddress())

	assert.Equal(t, "Acme", note.OrgName())
	assert.Equal(t, "Renewal", note.Deal().Name())
	assert.Equal(t, "Ada", note.PersonName())
	assert.Same(t, note.Org(), note.Person().Org())

	assert.Equal(t, []*Record{note}, note.Org().Notes())
	assert.Equal(t, []*Record{note}, note.Person().Notes())
	assert.Equal(t, []*Record{note}, note.Deal().Notes())
}

func TestNoteWithoutAttachments(t *testing.T) {
	reg := NewRegistry()

	note, err := reg.RefreshOrConstruct(KindNote, map[string]any{
		"id":           float64(51),
		"content":      "Loose note",
		"user_id":      float64(9),
		"user":         map[string]any{"name": "Rep"},
		"organization": nil,
		"deal":         nil,
		"person":       nil,
	})
	require.NoError(t, err)

	assert.NotNil(t, note.User())
	assert.Nil(t, note.Org())
	assert.Nil(t, note.Deal())
	assert.Nil(t, note.Person())
}

func TestActivityLinks(t *testing.T) {
	reg := NewRegistry()

	activity, err := reg.RefreshOrConstruct(KindActivity, map[string]any{
		"id":          float64(60),
		"subject":     "Call",
		"org_id":      float64(5),
		"org_name":    "Acme",
		"person_id":   float64(7),
		"person_name": "Ada",
		"user_id":     float64(9),
		"owner_name":  "Rep",
		"deal_id":     float64(100),
		"deal_title":  "Renewal",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", activity.OrgName())
	assert.Equal(t, "Ada", activity.PersonName())
	assert.Equal(t, "Rep", activity.Owner().Name())
	assert.Equal(t, "Renewal", activity.Deal().Name())
	assert.Same(t, activity.Org(), activity.Person().Org())
}

func TestParseRef(t *testing.T) {
	assert.Nil(t, ParseRef(nil, "x"))
	assert.Nil(t, ParseRef(float64(0), "x"))
	assert.Nil(t, ParseRef(false, "x"))
	assert.Nil(t, ParseRef(map[string]any{}, "x"))

	nested := ParseRef(map[string]any{"value": float64(3), "name": "N"}, "ignored")
	require.IsType(t, RefNested{}, nested)
	assert.Equal(t, "N", nested.Payload()["name"])

	bare := ParseRef(float64(3), "Named")
	require.IsType(t, RefIDName{}, bare)
	assert.Equal(t, map[string]any{"id": int64(3), "name": "Named"}, bare.Payload())
}
