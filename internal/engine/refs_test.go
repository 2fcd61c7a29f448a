package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/refill/internal/batch"
)

func TestRefGetter_BuildsReusableReferences(t *testing.T) {
	eng := New(&fakeRunner{}, WithLogger(quietLogger()))

	companyRef := eng.RefGetter("companies", []string{"name"}, []string{"id"})

	ref := companyRef(batch.String("Acme"))
	assert.Equal(t, batch.DBRef{
		Table:        "companies",
		MatchColumns: []string{"name"},
		MatchValues:  []batch.Value{batch.String("Acme")},
		IDColumns:    []string{"id"},
	}, ref)

	other := companyRef(batch.String("Globex"))
	assert.Equal(t, []batch.Value{batch.String("Globex")}, other.MatchValues)
}

func TestRefDeleter(t *testing.T) {
	runner := &fakeRunner{}
	eng := New(runner, WithLogger(quietLogger()))

	deleteSessions := eng.RefDeleter("sessions", []string{"user_id"})
	require.NoError(t, deleteSessions(context.Background(), batch.Int(7)))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "DELETE FROM sessions WHERE user_id = ?", runner.calls[0].Stmt)
	assert.Equal(t, []any{int64(7)}, runner.calls[0].Args)
}

func TestRefDeleter_WriteError(t *testing.T) {
	boom := errors.New("locked")
	runner := &fakeRunner{handler: func(stmt string, args []any) (*Result, error) {
		return nil, boom
	}}
	eng := New(runner, WithLogger(quietLogger()))

	err := eng.RefDeleter("sessions", []string{"user_id"})(context.Background(), batch.Int(7))
	require.Error(t, err)
	assert.True(t, IsWriteFailed(err))
}

func TestResolveRefs_ResolvesIndependentReferences(t *testing.T) {
	runner := &fakeRunner{handler: func(stmt string, args []any) (*Result, error) {
		switch {
		case strings.Contains(stmt, "FROM companies"):
			return &Result{Rows: []Row{{"id": int64(1)}}}, nil
		case strings.Contains(stmt, "FROM countries"):
			return &Result{Rows: []Row{{"id": int64(2)}}}, nil
		default:
			return &Result{Rows: []Row{}}, nil
		}
	}}
	eng := New(runner, WithLogger(quietLogger()))

	got, err := eng.ResolveRefs(context.Background(), map[string]batch.DBRef{
		"acme": {Table: "companies", MatchColumns: []string{"name"}, MatchValues: []batch.Value{batch.String("Acme")}},
		"gb":   {Table: "countries", MatchColumns: []string{"code"}, MatchValues: []batch.Value{batch.String("GB")}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]batch.Value{
		"acme": batch.Int(1),
		"gb":   batch.Int(2),
	}, got)
}

func TestResolveRefs_FirstFailureWins(t *testing.T) {
	runner := &fakeRunner{handler: func(stmt string, args []any) (*Result, error) {
		if strings.Contains(stmt, "FROM countries") {
			return &Result{Rows: []Row{}}, nil
		}
		return &Result{Rows: []Row{{"id": int64(1)}}}, nil
	}}
	eng := New(runner, WithLogger(quietLogger()))

	_, err := eng.ResolveRefs(context.Background(), map[string]batch.DBRef{
		"acme": {Table: "companies", MatchColumns: []string{"name"}, MatchValues: []batch.Value{batch.String("Acme")}},
		"xx":   {Table: "countries", MatchColumns: []string{"code"}, MatchValues: []batch.Value{batch.String("XX")}},
	})
	require.Error(t, err)
	assert.True(t, IsRefNotFound(err))
}
