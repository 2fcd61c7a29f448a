package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/refill/internal/batch"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Lookup("users", "u1")
	assert.False(t, ok)

	stored := reg.Register("users", "u1", batch.Int(5))
	assert.Equal(t, batch.Int(5), stored)

	id, ok := reg.Lookup("users", "u1")
	require.True(t, ok)
	assert.Equal(t, batch.Int(5), id)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_WriteOnce(t *testing.T) {
	reg := NewRegistry()
	reg.Register("users", "u1", batch.Int(5))

	stored := reg.Register("users", "u1", batch.Int(99))
	assert.Equal(t, batch.Int(5), stored, "first registration is immutable")

	id, _ := reg.Lookup("users", "u1")
	assert.Equal(t, batch.Int(5), id)
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("users", "u1", batch.Int(5))

	snap := reg.Snapshot()
	snap["users"]["u1"] = batch.Int(42)
	snap["other"] = map[string]batch.Value{"x": batch.Int(1)}

	id, ok := reg.Lookup("users", "u1")
	require.True(t, ok)
	assert.Equal(t, batch.Int(5), id)
	_, ok = reg.Lookup("other", "x")
	assert.False(t, ok)
}

func TestRegistry_CompositeIdentifier(t *testing.T) {
	reg := NewRegistry()
	composite := batch.Object{
		{Column: "user_id", Value: batch.Int(1)},
		{Column: "org_id", Value: batch.Int(2)},
	}
	reg.Register("memberships", "m1", composite)

	id, ok := reg.Lookup("memberships", "m1")
	require.True(t, ok)
	assert.Equal(t, composite, id)
}
