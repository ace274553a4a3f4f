package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreTableCoversEveryKind(t *testing.T) {
	table := newStoreTable()
	for kind := EntityKind(0); kind < numEntityKinds; kind++ {
		assert.NotNil(t, table[kind], "no store for kind %s", kind)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		run  func(c *Conn) OpResult
		want string
	}{
		"server delete": {
			run: func(c *Conn) OpResult {
				return c.DeleteObject(ctx, &ObjectHandle{Kind: KindServer, ID: "server"})
			},
			want: "operation delete not supported for object type server",
		},
		"node history find": {
			run: func(c *Conn) OpResult {
				h := &ObjectHandle{Kind: KindNodeHistoryTimestamp, Payload: &NodeHistoryTimestamp{}}
				if c.Search(ctx, h, nil, func(*ObjectHandle) bool { return true }) == -1 {
					return OpError
				}
				return OpOK
			},
			want: "operation find not supported for object type node_history_timestamp",
		},
		"job script delete attrs": {
			run: func(c *Conn) OpResult {
				h := &ObjectHandle{Kind: KindJobScript, ID: "1.svr"}
				return c.DeleteObjectAttrs(ctx, h, []Attribute{{Name: "x"}})
			},
			want: "operation delete attributes not supported for object type job_script",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestConn(newFakeBackend())
			assert.Equal(t, OpError, tc.run(c))
			require.NotNil(t, c.LastError())
			assert.Equal(t, tc.want, c.LastError().Detail)
		})
	}
}

func TestSaveObjectPayloadMismatch(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)

	h := &ObjectHandle{Kind: KindJob, ID: "1.svr", Payload: &NodeInfo{}}
	assert.Equal(t, OpError, c.SaveObject(ctx, h, SaveFull))
	assert.Empty(t, b.execs)
	require.NotNil(t, c.LastError())
	assert.Contains(t, c.LastError().Detail, "payload is *datastore.NodeInfo")
}

func TestSaveObjectQuickVersusFull(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)

	job := &JobInfo{JobID: "1.svr", State: 4, Substate: 42, Queue: "workq"}
	h := &ObjectHandle{Kind: KindJob, ID: job.JobID, Payload: job}

	require.Equal(t, OpOK, c.SaveObject(ctx, h, SaveQuick))
	require.Len(t, b.execs, 1)
	assert.Equal(t, stmtUpdateJob, b.execs[0].sql)
	assert.Equal(t, []any{"1.svr", 4, 42, 0}, b.execs[0].args)

	require.Equal(t, OpOK, c.SaveObject(ctx, h, SaveFull))
	require.Len(t, b.execs, 2)
	assert.Equal(t, stmtInsertJob, b.execs[1].sql)
	assert.Len(t, b.execs[1].args, 8)
}

func TestFullNodeSaveClearsDirty(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(newFakeBackend())

	node := &NodeInfo{Name: "n1", Dirty: true}
	h := &ObjectHandle{Kind: KindNode, ID: node.Name, Payload: node}
	require.Equal(t, OpOK, c.SaveObject(ctx, h, SaveFull))
	assert.False(t, node.Dirty)

	// A quick save does not touch the flag.
	node.Dirty = true
	require.Equal(t, OpOK, c.SaveObject(ctx, h, SaveQuick))
	assert.True(t, node.Dirty)
}

func TestLoadObjectReplacesPayload(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[stmtLoadJob] = [][]any{testJobRow("1.svr", 4)}
	c := newTestConn(b)

	job := &JobInfo{JobID: "stale", State: 99, RunCount: 7}
	h := &ObjectHandle{Kind: KindJob, ID: "1.svr", Payload: job}
	require.Equal(t, OpOK, c.LoadObject(ctx, h))

	assert.Equal(t, "1.svr", job.JobID)
	assert.Equal(t, 4, job.State)
	assert.Equal(t, 42, job.Substate)
	assert.Equal(t, "workq", job.Queue)
	assert.Equal(t, int64(1), job.RunCount)
}

func TestLoadObjectMissingRow(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(newFakeBackend())

	h := &ObjectHandle{Kind: KindJob, ID: "ghost", Payload: &JobInfo{}}
	assert.Equal(t, OpNoRows, c.LoadObject(ctx, h))
}

func TestDeleteObjectAttrsBindsNames(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)

	h := &ObjectHandle{Kind: KindQueue, ID: "workq"}
	attrs := []Attribute{{Name: "resources_max", Resource: "ncpus"}, {Name: "enabled"}}
	require.Equal(t, OpOK, c.DeleteObjectAttrs(ctx, h, attrs))

	require.Len(t, b.execs, 1)
	assert.Equal(t, stmtDeleteQueueAttrs, b.execs[0].sql)
	assert.Equal(t, []any{"workq", []string{"resources_max", "enabled"}}, b.execs[0].args)
}
