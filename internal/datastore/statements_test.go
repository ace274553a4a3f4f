package datastore

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecCommandOutcomes(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)

	c.params.bind("job.1")
	assert.Equal(t, OpOK, c.execCommand(ctx, "delete_job"))

	b.execTags["delete_job"] = pgconn.NewCommandTag("DELETE 0")
	c.params.bind("job.2")
	assert.Equal(t, OpNoRows, c.execCommand(ctx, "delete_job"))

	b.execErrs["delete_job"] = errors.New("boom")
	c.params.bind("job.3")
	assert.Equal(t, OpError, c.execCommand(ctx, "delete_job"))
	require.NotNil(t, c.LastError())
	assert.Equal(t, "execution of prepared statement delete_job failed: boom", c.LastError().Detail)
}

func TestExecCommandParamCountMismatch(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)
	require.NoError(t, c.prepare(ctx, "quick_update_job", "UPDATE job ...", 4))

	c.params.bind("job.1", 2)
	assert.Equal(t, OpError, c.execCommand(ctx, "quick_update_job"))
	// The statement never reaches the backend and the buffer is drained.
	assert.Empty(t, b.execs)
	assert.Equal(t, 0, c.params.len())
	require.NotNil(t, c.LastError())
	assert.Contains(t, c.LastError().Detail, "bound 2 parameters, statement declares 4")
}

func TestSetErrorAppendsDiagCode(t *testing.T) {
	c := newTestConn(newFakeBackend())

	pgErr := &pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: "relation \"job\" does not exist"}
	c.setError("execution of prepared statement", "load_job", errors.Wrap(pgErr, "exec"))

	require.NotNil(t, c.LastError())
	assert.Equal(t, FailBackend, c.LastError().Code)
	assert.True(t, strings.HasPrefix(c.LastError().Detail, "execution of prepared statement load_job failed: "))
	assert.True(t, strings.HasSuffix(c.LastError().Detail, " 42P01"))
}

func TestSetErrorTrimsTrailingNewlines(t *testing.T) {
	c := newTestConn(newFakeBackend())
	c.setError("execution of string statement", "SELECT 1", errors.New("server said no\n\r\n"))
	assert.Equal(t, "execution of string statement SELECT 1 failed: server said no", c.LastError().Detail)
}

func TestExecQueryBinaryFormatAndRows(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows["load_job"] = [][]any{testJobRow("1.svr", 4)}
	c := newTestConn(b)

	c.params.bind("1.svr")
	res, ret := c.execQuery(ctx, "load_job")
	require.Equal(t, OpOK, ret)
	assert.Equal(t, 1, res.count())
	assert.Equal(t, "1.svr", res.row(0)[0])

	// Results are requested in binary row format; the format spec rides
	// ahead of the bound parameters.
	require.Len(t, b.queries, 1)
	require.NotEmpty(t, b.queries[0].args)
	assert.Equal(t, pgx.QueryResultFormats{pgx.BinaryFormatCode}, b.queries[0].args[0])
	assert.Equal(t, "1.svr", b.queries[0].args[1])
}

func TestExecQueryNoRows(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)

	c.params.bind("unknown")
	res, ret := c.execQuery(ctx, "load_job")
	assert.Equal(t, OpNoRows, ret)
	assert.Nil(t, res)
}

func TestCollectRowsMidIterationError(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows["find_job"] = [][]any{testJobRow("1.svr", 4)}
	b.rowsErr = errors.New("connection reset")
	c := newTestConn(b)

	res, ret := c.execQuery(ctx, "find_job")
	assert.Equal(t, OpError, ret)
	assert.Nil(t, res)
	require.NotNil(t, c.LastError())
	assert.Contains(t, c.LastError().Detail, "connection reset")
}

func TestExecRawOutcomes(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)

	assert.Equal(t, OpOK, c.execRaw(ctx, "UPDATE queue SET qu_type = 1"))

	b.execTags["CREATE TABLE x ()"] = pgconn.NewCommandTag("CREATE TABLE")
	assert.Equal(t, OpNoRows, c.execRaw(ctx, "CREATE TABLE x ()"))

	b.execErrs["DROP TABLE x"] = errors.New("nope")
	assert.Equal(t, OpError, c.execRaw(ctx, "DROP TABLE x"))
}

func TestResultSetReleasedExactlyOnce(t *testing.T) {
	rs := &resultSet{rows: [][]any{{1}}}
	assert.False(t, rs.released)
	rs.release()
	assert.True(t, rs.released)
	assert.Equal(t, 0, rs.count())
}
