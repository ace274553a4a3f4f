package datastore

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeHistSaveUpdatesExistingRow(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	c := newTestConn(b)

	h := &ObjectHandle{Kind: KindNodeHistoryTimestamp, Payload: &NodeHistoryTimestamp{Time: 1700000000, Generation: 3}}
	require.Equal(t, OpOK, c.SaveObject(ctx, h, SaveFull))

	require.Len(t, b.execs, 1)
	assert.Equal(t, stmtUpdateMomTime, b.execs[0].sql)
	assert.Equal(t, []any{int64(1700000000), 3}, b.execs[0].args)
}

func TestNodeHistSaveFallsBackToInsert(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.execTags[stmtUpdateMomTime] = pgconn.NewCommandTag("UPDATE 0")
	c := newTestConn(b)

	h := &ObjectHandle{Kind: KindNodeHistoryTimestamp, Payload: &NodeHistoryTimestamp{Time: 1700000000, Generation: 1}}
	require.Equal(t, OpOK, c.SaveObject(ctx, h, SaveFull))

	// No row to update yet, so the first save inserts.
	require.Len(t, b.execs, 2)
	assert.Equal(t, stmtUpdateMomTime, b.execs[0].sql)
	assert.Equal(t, stmtInsertMomTime, b.execs[1].sql)
	assert.Equal(t, []any{int64(1700000000), 1}, b.execs[1].args)
}

func TestNodeHistLoad(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[stmtLoadMomTime] = [][]any{{int64(1700000000), int64(5)}}
	c := newTestConn(b)

	mt := &NodeHistoryTimestamp{}
	h := &ObjectHandle{Kind: KindNodeHistoryTimestamp, Payload: mt}
	require.Equal(t, OpOK, c.LoadObject(ctx, h))
	assert.Equal(t, int64(1700000000), mt.Time)
	assert.Equal(t, 5, mt.Generation)
}

func TestJobScriptSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[stmtLoadJobScript] = [][]any{{"1.svr", []byte("#!/bin/sh\nsleep 60\n")}}
	c := newTestConn(b)

	scr := &JobScript{JobID: "1.svr", Script: []byte("#!/bin/sh\nsleep 60\n")}
	h := &ObjectHandle{Kind: KindJobScript, ID: scr.JobID, Payload: scr}
	require.Equal(t, OpOK, c.SaveObject(ctx, h, SaveFull))
	require.Len(t, b.execs, 1)
	assert.Equal(t, stmtInsertJobScript, b.execs[0].sql)

	loaded := &JobScript{}
	lh := &ObjectHandle{Kind: KindJobScript, ID: "1.svr", Payload: loaded}
	require.Equal(t, OpOK, c.LoadObject(ctx, lh))
	assert.Equal(t, "1.svr", loaded.JobID)
	assert.Equal(t, []byte("#!/bin/sh\nsleep 60\n"), loaded.Script)
}
