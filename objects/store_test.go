// ABOUTME: Tests for the per-kind identity cache and the stub resolution protocol
// ABOUTME: Covers identity uniqueness, stub upgrades and refresh-in-place semantics
package objects

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrConstructIdentity(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.GetOrConstruct(KindOrganization, map[string]any{"id": float64(5), "name": "Acme"}, true)
	require.NoError(t, err)
	b, err := reg.GetOrConstruct(KindOrganization, map[string]any{"value": float64(5), "name": "Other"}, true)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, reg.Store(KindOrganization).Len())
	assert.Equal(t, "Acme", b.Name())
}

func TestGetOrConstructDoesNotClobber(t *testing.T) {
	reg := NewRegistry()

	full, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(7), "name": "Ada Lovelace", "phone": "555"})
	require.NoError(t, err)

	stub, err := reg.GetOrConstruct(KindPerson, map[string]any{"id": float64(7), "name": "A. L."}, true)
	require.NoError(t, err)

	assert.Same(t, full, stub)
	assert.False(t, stub.IsStub())
	assert.Equal(t, "Ada Lovelace", stub.Name())
	phone, err := stub.Get("phone")
	require.NoError(t, err)
	assert.Equal(t, "555", phone)
}

func TestRefreshUpgradesStubInPlace(t *testing.T) {
	reg := NewRegistry()

	stub, err := reg.GetOrConstruct(KindPerson, map[string]any{"id": float64(3), "name": "Grace"}, true)
	require.NoError(t, err)
	require.True(t, stub.IsStub())

	require.NoError(t, stub.Set("name", "Grace H."))
	require.NotEmpty(t, stub.ModifiedFields())

	full, err := reg.RefreshOrConstruct(KindPerson, map[string]any{"id": float64(3), "name": "Grace Hopper", "email": "grace@navy.mil"})
	require.NoError(t, err)

	assert.Same(t, stub, full)
	assert.False(t, stub.IsStub())
	assert.Empty(t, stub.ModifiedFields())
	assert.Equal(t, "Grace Hopper", stub.Name())
	assert.Equal(t, "grace@navy.mil", stub.EmailAddress())
}

func TestStubNeverReverts(t *testing.T) {
	reg := NewRegistry()

	rec, err := reg.RefreshOrConstruct(KindUser, map[string]any{"id": float64(1), "name": "Owner"})
	require.NoError(t, err)
	_, err = reg.GetOrConstruct(KindUser, map[string]any{"id": float64(1)}, true)
	require.NoError(t, err)

	assert.False(t, rec.IsStub())
}

func TestGetOrConstructDoesNotMutateCallerData(t *testing.T) {
	reg := NewRegistry()
	data := map[string]any{"value": float64(9), "name": "Nested"}

	rec, err := reg.GetOrConstruct(KindOrganization, data, true)
	require.NoError(t, err)

	_, hasID := data["id"]
	assert.False(t, hasID)
	raw, ok := rec.Raw("id")
	require.True(t, ok)
	assert.Equal(t, int64(9), raw)
	_, hasValue := rec.Raw("value")
	assert.False(t, hasValue)
}

func TestConstructMissingID(t *testing.T) {
	reg := NewRegistry()

	tests := []map[string]any{
		{"name": "no id"},
		{"id": nil},
		{"id": float64(0)},
		{"id": "abc"},
		{"value": float64(-1)},
	}
	for _, data := range tests {
		_, err := reg.GetOrConstruct(KindDeal, data, true)
		assert.ErrorIs(t, err, ErrMissingID, "data %v", data)
		_, err = reg.RefreshOrConstruct(KindDeal, data)
		assert.ErrorIs(t, err, ErrMissingID, "data %v", data)
	}
	assert.Equal(t, 0, reg.Store(KindDeal).Len())
}

func TestStoreGetNotFound(t *testing.T) {
	reg := NewRegistry()
	store := reg.Store(KindPerson)

	_, err := store.Get(42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	assert.False(t, store.Exists(42))
	assert.Equal(t, 0, store.Len())
}

func TestUnknownKind(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.GetOrConstruct(Kind("lead"), map[string]any{"id": float64(1)}, true)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Nil(t, reg.Store(Kind("lead")))
}

func TestStoreAllAndFindByName(t *testing.T) {
	reg := NewRegistry()
	for _, data := range []map[string]any{
		{"id": float64(30), "name": "Zed"},
		{"id": float64(10), "name": "Acme"},
		{"id": float64(20), "name": "Acme"},
	} {
		_, err := reg.RefreshOrConstruct(KindOrganization, data)
		require.NoError(t, err)
	}
	store := reg.Store(KindOrganization)

	var ids []int64
	for _, rec := range store.All() {
		ids = append(ids, rec.ID())
	}
	assert.Equal(t, []int64{10, 20, 30}, ids)

	found := store.FindByName("Acme")
	require.Len(t, found, 2)
	assert.Equal(t, int64(10), found[0].ID())
	assert.Equal(t, int64(20), found[1].ID())
	assert.Empty(t, store.FindByName("Nobody"))
}

func TestRegistriesAreIsolated(t *testing.T) {
	one := NewRegistry()
	two := NewRegistry()

	_, err := one.GetOrConstruct(KindProduct, map[string]any{"id": float64(1), "name": "Widget"}, false)
	require.NoError(t, err)

	assert.True(t, one.Store(KindProduct).Exists(1))
	assert.False(t, two.Store(KindProduct).Exists(1))
}

func TestStringIDsAccepted(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.GetOrConstruct(KindStage, map[string]any{"id": "12", "name": "Qualified"}, true)
	require.NoError(t, err)
	b, err := reg.GetOrConstruct(KindStage, map[string]any{"id": float64(12)}, true)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, int64(12), a.ID())
}
