package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_GetSetColumns(t *testing.T) {
	obj := Object{
		{Column: "name", Value: String("Bob")},
		{Column: "age", Value: Int(40)},
	}

	v, ok := obj.Get("name")
	require.True(t, ok)
	assert.Equal(t, String("Bob"), v)

	_, ok = obj.Get("missing")
	assert.False(t, ok)

	obj = obj.Set("age", Int(41))
	v, _ = obj.Get("age")
	assert.Equal(t, Int(41), v)
	assert.Len(t, obj, 2, "Set on existing column must not append")

	obj = obj.Set("email", String("bob@example.com"))
	assert.Len(t, obj, 3)
	assert.Equal(t, []string{"name", "age", "email"}, obj.Columns())
}

func TestObject_MarshalJSONPreservesOrder(t *testing.T) {
	obj := Object{
		{Column: "zeta", Value: Int(1)},
		{Column: "alpha", Value: Int(2)},
	}

	b, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":2}`, string(b))
}

func TestMarshalValue_Scalars(t *testing.T) {
	testCases := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null{}, "null"},
		{"string", String("x"), `"x"`},
		{"int", Int(-7), "-7"},
		{"float", Float(1.5), "1.5"},
		{"bool", Bool(true), "true"},
		{"array", Array{Int(1), String("a")}, `[1,"a"]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := MarshalValue(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(b))
		})
	}
}

func TestMarshalValue_LocalRef(t *testing.T) {
	b, err := MarshalValue(LocalRef{Table: "users", ID: "u1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ref":{"table":"users","id":"u1"}}`, string(b))
}

func TestMarshalValue_NilValueRejected(t *testing.T) {
	_, err := MarshalValue(nil)
	assert.Error(t, err)
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{"n": int64(3)})
	require.NoError(t, err)
	obj, ok := v.(Object)
	require.True(t, ok)
	got, ok := obj.Get("n")
	require.True(t, ok)
	assert.Equal(t, Int(3), got)

	v, err = FromGo([]any{nil, true, "s", 1.25})
	require.NoError(t, err)
	assert.Equal(t, Array{Null{}, Bool(true), String("s"), Float(1.25)}, v)

	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}
