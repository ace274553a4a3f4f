package datastore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// resultSet is a materialized query result. Results are requested in
// binary row format and decoded by the driver as they are collected; the
// set is owned by exactly one cursor or load call and released exactly
// once, whatever exit path that call takes.
type resultSet struct {
	rows     [][]any
	released bool
}

func (rs *resultSet) release() {
	rs.rows = nil
	rs.released = true
}

func (rs *resultSet) count() int {
	return len(rs.rows)
}

// row returns the decoded column values of row i.
func (rs *resultSet) row(i int) []any {
	return rs.rows[i]
}

// prepare registers a named statement on the session. Registration happens
// once per connection during connect; re-preparing a name is undefined.
// paramCount declares the number of positional parameters in sql and is
// checked against the bound parameter buffer at execution time.
func (c *Conn) prepare(ctx context.Context, name, sql string, paramCount int) error {
	if _, err := c.backend.Prepare(ctx, name, sql); err != nil {
		c.setError("prepare of statement", name, err)
		return errors.Wrapf(err, "prepare of statement %s", name)
	}
	c.paramCounts[name] = paramCount
	return nil
}

// checkParams verifies the parameter buffer matches the statement's
// declared parameter count before execution.
func (c *Conn) checkParams(stmt string) bool {
	if n, ok := c.paramCounts[stmt]; ok && n != c.params.len() {
		c.setError("execution of prepared statement", stmt,
			errors.Errorf("bound %d parameters, statement declares %d", c.params.len(), n))
		return false
	}
	return true
}

// execCommand runs a prepared insert/update/delete with the current
// parameter buffer contents, draining the buffer.
func (c *Conn) execCommand(ctx context.Context, stmt string) OpResult {
	if !c.checkParams(stmt) {
		c.params.take()
		return OpError
	}
	ct, err := c.backend.Exec(ctx, stmt, c.params.take()...)
	if err != nil {
		c.setError("execution of prepared statement", stmt, err)
		return OpError
	}
	if ct.RowsAffected() <= 0 {
		return OpNoRows
	}
	return OpOK
}

// execQuery runs a prepared select with the current parameter buffer
// contents. On OpNoRows the (empty) backend result is already released; on
// OpOK the caller owns the returned set.
func (c *Conn) execQuery(ctx context.Context, stmt string) (*resultSet, OpResult) {
	if !c.checkParams(stmt) {
		c.params.take()
		return nil, OpError
	}
	args := append([]any{pgx.QueryResultFormats{pgx.BinaryFormatCode}}, c.params.take()...)
	return c.collectRows(ctx, "execution of prepared statement", stmt, stmt, args)
}

// execRaw executes an ad hoc, unprepared statement; used for schema and
// maintenance SQL. The outcome is judged by rows affected or rows
// returned, whichever is non-trivial.
func (c *Conn) execRaw(ctx context.Context, sql string) OpResult {
	ct, err := c.backend.Exec(ctx, sql)
	if err != nil {
		c.setError("execution of string statement", sql, err)
		return OpError
	}
	if ct.RowsAffected() <= 0 {
		return OpNoRows
	}
	return OpOK
}

// queryRaw is the query form of execRaw, for maintenance selects whose
// result values are needed (e.g. the stored schema version).
func (c *Conn) queryRaw(ctx context.Context, sql string) (*resultSet, OpResult) {
	return c.collectRows(ctx, "execution of string statement", sql, sql, nil)
}

func (c *Conn) collectRows(ctx context.Context, what, subject, sql string, args []any) (*resultSet, OpResult) {
	rows, err := c.backend.Query(ctx, sql, args...)
	if err != nil {
		c.setError(what, subject, err)
		return nil, OpError
	}
	defer rows.Close()

	collected := make([][]any, 0, 8)
	for rows.Next() {
		vals, verr := rows.Values()
		if verr != nil {
			c.setError(what, subject, verr)
			return nil, OpError
		}
		collected = append(collected, vals)
	}
	if rerr := rows.Err(); rerr != nil {
		c.setError(what, subject, rerr)
		return nil, OpError
	}
	if len(collected) == 0 {
		return nil, OpNoRows
	}
	return &resultSet{rows: collected}, OpOK
}
