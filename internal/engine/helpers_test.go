package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// queryCall records one statement issued to the fake runner.
type queryCall struct {
	Stmt string
	Args []any
}

// fakeRunner scripts Runner behavior for tests and records every call.
//
// Default behavior (nil handler): SELECT statements return zero rows; write
// statements succeed with sequential LastInsertID values starting at
// firstID (or 1).
type fakeRunner struct {
	mu      sync.Mutex
	calls   []queryCall
	handler func(stmt string, args []any) (*Result, error)
	firstID int64
	nextID  int64
}

func (f *fakeRunner) Query(ctx context.Context, stmt string, args ...any) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, queryCall{Stmt: stmt, Args: args})
	f.mu.Unlock()

	if f.handler != nil {
		return f.handler(stmt, args)
	}
	if strings.HasPrefix(stmt, "SELECT") {
		return &Result{Rows: []Row{}}, nil
	}
	f.mu.Lock()
	if f.nextID == 0 {
		f.nextID = f.firstID
		if f.nextID == 0 {
			f.nextID = 1
		}
	} else {
		f.nextID++
	}
	id := f.nextID
	f.mu.Unlock()
	return &Result{LastInsertID: id, RowsAffected: 1}, nil
}

// stmts returns the statements issued so far.
func (f *fakeRunner) stmts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Stmt
	}
	return out
}

// trace renders every call as "stmt -- args" for golden comparison.
func (f *fakeRunner) trace() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sb strings.Builder
	for _, c := range f.calls {
		fmt.Fprintf(&sb, "%s -- %v\n", c.Stmt, c.Args)
	}
	return sb.String()
}
