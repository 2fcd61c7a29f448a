package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/refill/internal/batch"
)

const sampleBatch = `
tables:
  - table: contexts
    options:
      match: [name]
      idColumns: [id]
      mode: update
    records:
      - id: dev
        values:
          zeta: 1
          alpha: two
  - table: users
    records:
      - id: u1
        values:
          name: Bob
          active: true
          score: 1.5
          note: null
          context_id: {ref: {table: contexts, id: dev}}
          company_id:
            lookup:
              table: companies
              match:
                name: Acme
                country_id:
                  lookup:
                    table: countries
                    match: {code: GB}
              idColumns: [id]
          tags: [a, 2]
          profile:
            theme: dark
`

func TestParseBatch(t *testing.T) {
	cb, err := ParseBatch([]byte(sampleBatch))
	require.NoError(t, err)
	require.Len(t, cb.Tables, 2)

	contexts := cb.Tables[0]
	assert.Equal(t, "contexts", contexts.Table)
	assert.Equal(t, []string{"name"}, contexts.Options.MatchColumns)
	assert.Equal(t, []string{"id"}, contexts.Options.IDColumns)
	assert.Equal(t, batch.ModeUpdate, contexts.Options.Mode)
	require.Len(t, contexts.Records, 1)
	assert.Equal(t, "dev", contexts.Records[0].LocalID)
	assert.Equal(t, []string{"zeta", "alpha"}, contexts.Records[0].Params.Columns(),
		"field declaration order must survive parsing")

	users := cb.Tables[1]
	require.Len(t, users.Records, 1)
	params := users.Records[0].Params

	name, _ := params.Get("name")
	assert.Equal(t, batch.String("Bob"), name)
	active, _ := params.Get("active")
	assert.Equal(t, batch.Bool(true), active)
	score, _ := params.Get("score")
	assert.Equal(t, batch.Float(1.5), score)
	note, _ := params.Get("note")
	assert.Equal(t, batch.Null{}, note)

	ctxRef, _ := params.Get("context_id")
	assert.Equal(t, batch.LocalRef{Table: "contexts", ID: "dev"}, ctxRef)

	companyRef, _ := params.Get("company_id")
	dbRef, ok := companyRef.(batch.DBRef)
	require.True(t, ok)
	assert.Equal(t, "companies", dbRef.Table)
	assert.Equal(t, []string{"name", "country_id"}, dbRef.MatchColumns)
	assert.Equal(t, []string{"id"}, dbRef.IDColumns)
	assert.Equal(t, batch.String("Acme"), dbRef.MatchValues[0])
	nested, ok := dbRef.MatchValues[1].(batch.DBRef)
	require.True(t, ok, "lookups nest inside lookup match values")
	assert.Equal(t, "countries", nested.Table)
	assert.Equal(t, []string{"code"}, nested.MatchColumns)

	tags, _ := params.Get("tags")
	assert.Equal(t, batch.Array{batch.String("a"), batch.Int(2)}, tags)

	profile, _ := params.Get("profile")
	assert.Equal(t, batch.Object{{Column: "theme", Value: batch.String("dark")}}, profile)
}

func TestParseBatch_Errors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"no tables", `{}`},
		{"missing table name", "tables:\n  - records: []\n"},
		{"bad mode", "tables:\n  - table: t\n    options: {mode: upsert}\n    records: []\n"},
		{"missing record id", "tables:\n  - table: t\n    records:\n      - values: {a: 1}\n"},
		{"ref missing id", "tables:\n  - table: t\n    records:\n      - id: r\n        values:\n          x: {ref: {table: other}}\n"},
		{"lookup missing table", "tables:\n  - table: t\n    records:\n      - id: r\n        values:\n          x: {lookup: {match: {a: 1}}}\n"},
		{"lookup missing match", "tables:\n  - table: t\n    records:\n      - id: r\n        values:\n          x: {lookup: {table: other}}\n"},
		{"lookup unknown field", "tables:\n  - table: t\n    records:\n      - id: r\n        values:\n          x: {lookup: {table: other, match: {a: 1}, limit: 3}}\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBatch([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseBatch_EmptyValues(t *testing.T) {
	cb, err := ParseBatch([]byte("tables:\n  - table: t\n    records:\n      - id: r\n"))
	require.NoError(t, err)
	assert.Empty(t, cb.Tables[0].Records[0].Params)
}
