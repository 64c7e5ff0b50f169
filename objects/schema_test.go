// ABOUTME: Tests for custom field schema construction and lookups
// ABOUTME: Checks hex key detection, attribute naming and option mapping
package objects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrName(t *testing.T) {
	tests := map[string]string{
		"Lead Source":        "lead_source",
		"Deal -- Status!":    "deal_status_",
		"NPS (2024)":         "nps_2024_",
		"already_snake_case": "already_snake_case",
	}
	for in, want := range tests {
		assert.Equal(t, want, AttrName(in), in)
	}
}

func TestBuildSchema(t *testing.T) {
	raw := `[
		{"key": "title", "name": "Title"},
		{"key": "9dc80c50d78a15643bfc4ca79d76156a73a1a2fe", "name": "Lead Source"},
		{"key": "abc123", "name": "Status", "options": [{"id": 1, "label": "Open"}, {"id": 2, "label": "Won"}]}
	]`
	var defs []FieldDefinition
	require.NoError(t, json.Unmarshal([]byte(raw), &defs))

	schema := BuildSchema(defs)
	require.Len(t, schema, 2)

	lead, ok := schema.Lookup("lead_source")
	require.True(t, ok)
	assert.Equal(t, "9dc80c50d78a15643bfc4ca79d76156a73a1a2fe", lead.Key)
	assert.Nil(t, lead.Options)

	status, ok := schema.Lookup("status")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"": "", "1": "Open", "2": "Won"}, status.Options)
	assert.Equal(t, []string{"Open", "Won"}, status.Labels())

	_, ok = schema.Lookup("title")
	assert.False(t, ok)
}

func TestSchemaNameForKey(t *testing.T) {
	schema := Schema{"status": {Key: "abc123"}}

	name, err := schema.NameForKey("abc123")
	require.NoError(t, err)
	assert.Equal(t, "status", name)

	name, err = schema.NameForKey("title")
	require.NoError(t, err)
	assert.Equal(t, "title", name)
}

func TestCustomFieldValueFor(t *testing.T) {
	cf := CustomField{Key: "k", Options: map[string]string{"": "", "3": "Dup", "2": "Dup"}}

	id, ok := cf.ValueFor("Dup")
	require.True(t, ok)
	assert.Equal(t, "2", id)

	id, ok = cf.ValueFor("")
	require.True(t, ok)
	assert.Equal(t, "", id)

	_, ok = cf.ValueFor("Missing")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"person":        KindPerson,
		"persons":       KindPerson,
		"orgs":          KindOrganization,
		"organizations": KindOrganization,
		"activities":    KindActivity,
		"Deals":         KindDeal,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("leads")
	assert.ErrorIs(t, err, ErrUnknownKind)

	assert.Equal(t, "activities", KindActivity.Endpoint())
	assert.Equal(t, "dealFields", KindDeal.FieldsEndpoint())
	assert.True(t, KindOrganization.HasCustomFields())
	assert.False(t, KindStage.HasCustomFields())
}
