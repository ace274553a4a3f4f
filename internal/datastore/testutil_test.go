package datastore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeBackend is a scripted backendConn. Responses are keyed by statement
// name (or raw SQL); the zero behaviour is success with one row affected.
type fakeBackend struct {
	prepareErrs map[string]error
	prepared    []string

	execTags map[string]pgconn.CommandTag
	execErrs map[string]error
	execs    []backendCall

	queryRows map[string][][]any
	queryErrs map[string]error
	queries   []backendCall
	valuesErr error
	rowsErr   error

	closed   bool
	closeErr error
}

type backendCall struct {
	sql  string
	args []any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		prepareErrs: map[string]error{},
		execTags:    map[string]pgconn.CommandTag{},
		execErrs:    map[string]error{},
		queryRows:   map[string][][]any{},
		queryErrs:   map[string]error{},
	}
}

func (f *fakeBackend) Prepare(_ context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	if err := f.prepareErrs[name]; err != nil {
		return nil, err
	}
	f.prepared = append(f.prepared, name)
	return &pgconn.StatementDescription{Name: name, SQL: sql}, nil
}

func (f *fakeBackend) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, backendCall{sql: sql, args: args})
	if err := f.execErrs[sql]; err != nil {
		return pgconn.CommandTag{}, err
	}
	if tag, ok := f.execTags[sql]; ok {
		return tag, nil
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeBackend) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, backendCall{sql: sql, args: args})
	if err := f.queryErrs[sql]; err != nil {
		return nil, err
	}
	return &fakeRows{rows: f.queryRows[sql], valuesErr: f.valuesErr, err: f.rowsErr}, nil
}

func (f *fakeBackend) Close(_ context.Context) error {
	f.closed = true
	return f.closeErr
}

func (f *fakeBackend) IsClosed() bool {
	return f.closed
}

// fakeRows satisfies pgx.Rows over an in-memory row list.
type fakeRows struct {
	rows      [][]any
	idx       int
	valuesErr error
	err       error
	closed    bool
}

func (r *fakeRows) Next() bool {
	if r.idx < len(r.rows) {
		r.idx++
		return true
	}
	return false
}

func (r *fakeRows) Values() ([]any, error) {
	if r.valuesErr != nil {
		return nil, r.valuesErr
	}
	return r.rows[r.idx-1], nil
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Scan(...any) error                            { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

// fakeControl records service control calls.
type fakeControl struct {
	started bool
	stopped bool
}

func (f *fakeControl) Start(context.Context) error  { f.started = true; return nil }
func (f *fakeControl) Stop(context.Context) error   { f.stopped = true; return nil }
func (f *fakeControl) Status(context.Context) error { return nil }

func newTestConn(b backendConn) *Conn {
	return &Conn{
		backend:     b,
		params:      newParamBuffer(),
		trx:         newTransactionContext(),
		paramCounts: make(map[string]int),
		stores:      newStoreTable(),
	}
}

func testJobRow(id string, state int) []any {
	return []any{
		id, int64(state), int64(42), "workq", int64(100), int64(1), int64(0),
		time.Unix(1700000000, 0), time.Unix(1600000000, 0), nil,
	}
}

func testNodeRow(name string, index int) []any {
	return []any{
		name, int64(index), name + ".example.com", int64(0), int64(0), "",
		time.Unix(1700000000, 0), time.Unix(1600000000, 0), nil,
	}
}
