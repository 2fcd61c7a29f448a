package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	obj := Object{
		{Column: "zeta", Value: Int(1)},
		{Column: "alpha", Value: Int(2)},
	}

	b, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"zeta":1}`, string(b))
}

func TestMarshalCanonical_SameValueSameBytes(t *testing.T) {
	a := Object{
		{Column: "b", Value: Int(2)},
		{Column: "a", Value: Int(1)},
	}
	b := Object{
		{Column: "a", Value: Int(1)},
		{Column: "b", Value: Int(2)},
	}

	ba, err := MarshalCanonical(a)
	require.NoError(t, err)
	bb, err := MarshalCanonical(b)
	require.NoError(t, err)
	assert.Equal(t, string(ba), string(bb))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (e + U+0301) must serialize
	// identically.
	composed, err := MarshalCanonical(String("café"))
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(String("café"))
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	b, err := MarshalCanonical(String("a<b>&c"))
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(b))
}

func TestMarshalCanonical_RejectsReferences(t *testing.T) {
	_, err := MarshalCanonical(LocalRef{Table: "t", ID: "x"})
	assert.Error(t, err)

	_, err = MarshalCanonical(DBRef{Table: "t"})
	assert.Error(t, err)

	_, err = MarshalCanonical(Array{Int(1), LocalRef{Table: "t", ID: "x"}})
	assert.Error(t, err, "references nested in containers must be rejected too")
}

func TestMarshalCanonical_DuplicateColumnsRejected(t *testing.T) {
	obj := Object{
		{Column: "a", Value: Int(1)},
		{Column: "a", Value: Int(2)},
	}
	_, err := MarshalCanonical(obj)
	assert.Error(t, err)
}

func TestMarshalCanonical_NestedContainers(t *testing.T) {
	obj := Object{
		{Column: "items", Value: Array{
			Object{{Column: "qty", Value: Int(2)}, {Column: "name", Value: String("x")}},
		}},
		{Column: "active", Value: Bool(true)},
	}

	b, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"active":true,"items":[{"name":"x","qty":2}]}`, string(b))
}
