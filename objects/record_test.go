// ABOUTME: Tests for record field access, custom fields and mutation tracking
// ABOUTME: Uses a small deal schema with one enumerated and one free-form field
package objects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealSchema() Schema {
	return Schema{
		"status_custom": {Key: "abc123", Options: map[string]string{"": "", "1": "Open", "2": "Won"}},
		"lead_source":   {Key: "def456"},
	}
}

func newDeal(t *testing.T, fields map[string]any) *Record {
	t.Helper()
	reg := NewRegistry()
	reg.Store(KindDeal).SetSchema(dealSchema())
	rec, err := reg.RefreshOrConstruct(KindDeal, fields)
	require.NoError(t, err)
	return rec
}

func TestEnumeratedCustomFieldMapping(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": float64(1), "title": "Big deal", "abc123": "1"})

	v, err := deal.Get("status_custom")
	require.NoError(t, err)
	assert.Equal(t, "Open", v)

	require.NoError(t, deal.Set("status_custom", "Won"))
	raw, _ := deal.Raw("abc123")
	assert.Equal(t, "2", raw)
	assert.Equal(t, []string{"abc123"}, deal.ModifiedFields())

	err = deal.Set("status_custom", "Lost")
	require.ErrorIs(t, err, ErrInvalidOption)
	assert.Contains(t, err.Error(), "Open, Won")
	raw, _ = deal.Raw("abc123")
	assert.Equal(t, "2", raw)
	assert.Equal(t, []string{"abc123"}, deal.ModifiedFields())
}

func TestEnumeratedCustomFieldNumericStorage(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": float64(1), "abc123": float64(2)})

	v, err := deal.Get("status_custom")
	require.NoError(t, err)
	assert.Equal(t, "Won", v)
}

func TestEnumeratedCustomFieldClear(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": float64(1), "abc123": "2"})

	require.NoError(t, deal.Set("status_custom", ""))
	raw, ok := deal.Raw("abc123")
	require.True(t, ok)
	assert.Nil(t, raw)

	v, err := deal.Get("status_custom")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEnumeratedCustomFieldUnknownStoredValue(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": float64(1), "abc123": "99"})

	_, err := deal.Get("status_custom")
	assert.ErrorIs(t, err, ErrNoSuchOption)
}

func TestCustomFieldAbsentFromPayload(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": float64(1)})

	_, err := deal.Get("lead_source")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFreeFormCustomField(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": float64(1), "def456": "Conference"})

	v, err := deal.Get("lead_source")
	require.NoError(t, err)
	assert.Equal(t, "Conference", v)

	require.NoError(t, deal.Set("lead_source", "Referral"))
	raw, _ := deal.Raw("def456")
	assert.Equal(t, "Referral", raw)
	assert.Equal(t, []string{"def456"}, deal.ModifiedFields())
}

func TestMutationTrackingRoundTrip(t *testing.T) {
	reg := NewRegistry()
	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(4), "name": "Alan", "phone": "1"})
	require.NoError(t, err)

	require.NoError(t, person.Set("name", "Alan Turing"))
	require.NoError(t, person.Set("phone", "2"))
	require.NoError(t, person.Set("name", "A. Turing"))
	assert.Equal(t, []string{"name", "phone", "name"}, person.ModifiedFields())

	v, err := person.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "A. Turing", v)

	_, err = reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(4), "name": "A. Turing", "phone": "2"})
	require.NoError(t, err)
	assert.Empty(t, person.ModifiedFields())
}

func TestLocalAttributesAreUntracked(t *testing.T) {
	reg := NewRegistry()
	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(4), "name": "Alan"})
	require.NoError(t, err)

	require.NoError(t, person.Set("scratch", 12))
	v, err := person.Get("scratch")
	require.NoError(t, err)
	assert.Equal(t, 12, v)
	assert.Empty(t, person.ModifiedFields())
	_, ok := person.Raw("scratch")
	assert.False(t, ok)
}

func TestRefreshDropsShadowingLocal(t *testing.T) {
	reg := NewRegistry()
	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(4), "name": "Alan"})
	require.NoError(t, err)
	require.NoError(t, person.Set("phone", "local"))

	_, err = reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(4), "name": "Alan", "phone": "555"})
	require.NoError(t, err)
	v, err := person.Get("phone")
	require.NoError(t, err)
	assert.Equal(t, "555", v)

	require.NoError(t, person.Set("phone", "556"))
	v, err = person.Get("phone")
	require.NoError(t, err)
	assert.Equal(t, "556", v)
	assert.Equal(t, []string{"phone"}, person.ModifiedFields())
}

func TestSetIDIsRejected(t *testing.T) {
	reg := NewRegistry()
	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(4)})
	require.NoError(t, err)

	assert.ErrorIs(t, person.Set("id", 5), ErrReadOnlyField)
	assert.Equal(t, int64(4), person.ID())
}

func TestGetUnknownField(t *testing.T) {
	reg := NewRegistry()
	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(4)})
	require.NoError(t, err)

	_, err = person.Get("shoe_size")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFieldNamesUseCustomNames(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": float64(1), "title": "T", "abc123": "1", "def456": nil})

	names, err := deal.FieldNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "lead_source", "status_custom", "title"}, names)

	dump, err := deal.Dump()
	require.NoError(t, err)
	assert.Contains(t, dump, "status_custom: 1\n")
	assert.Contains(t, dump, "title: T\n")
}

func TestFieldNamesAmbiguous(t *testing.T) {
	reg := NewRegistry()
	reg.Store(KindDeal).SetSchema(Schema{
		"one": {Key: "abc"},
		"two": {Key: "abc"},
	})
	deal, err := reg.RefreshOrConstruct(KindDeal, map[string]any{"id": float64(1), "abc": "x"})
	require.NoError(t, err)

	_, err = deal.FieldNames()
	assert.ErrorIs(t, err, ErrAmbiguousField)
}

func TestStringSummaries(t *testing.T) {
	reg := NewRegistry()

	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(12), "name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Person(12,Ada)", person.String())

	deal, err := reg.RefreshOrConstruct(KindDeal, map[string]any{"id": float64(2), "title": "Renewal"})
	require.NoError(t, err)
	assert.Equal(t, "Deal(2,Renewal)", deal.String())

	note, err := reg.RefreshOrConstruct(KindNote, map[string]any{"id": float64(3), "content": strings.Repeat("x", 50)})
	require.NoError(t, err)
	assert.Equal(t, "Note(3,"+strings.Repeat("x", 30)+")", note.String())

	activity, err := reg.RefreshOrConstruct(KindActivity, map[string]any{"id": float64(4), "subject": "Call back"})
	require.NoError(t, err)
	assert.Equal(t, "Activity(4,Call back)", activity.String())
}

func TestEmailAddress(t *testing.T) {
	reg := NewRegistry()

	person, err := reg.RefreshOrConstruct(KindPerson, map[string]any{
		"id":    float64(1),
		"email": []any{map[string]any{"value": "ada@example.com", "primary": true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", person.EmailAddress())

	user, err := reg.RefreshOrConstruct(KindUser, map[string]any{"id": float64(1), "email": "owner@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.EmailAddress())

	bare, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(2), "email": []any{}})
	require.NoError(t, err)
	assert.Equal(t, "", bare.EmailAddress())
}

func TestText(t *testing.T) {
	deal := newDeal(t, map[string]any{"id": 1, "title": "Big deal", "value": 1200.5, "lost_reason": nil})

	assert.Equal(t, "Big deal", deal.Text("title"))
	assert.Equal(t, "1200.5", deal.Text("value"))
	assert.Equal(t, "", deal.Text("lost_reason"))
	assert.Equal(t, "", deal.Text("missing"))
}
