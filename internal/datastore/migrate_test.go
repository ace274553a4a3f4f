package datastore

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const versionQuery = `SELECT major, minor FROM schema_version`

type fakeBootstrap struct {
	recoverErr error
	recovered  bool
	nodes      []*NodeInfo
}

func (f *fakeBootstrap) RecoverAll(context.Context) error {
	f.recovered = true
	return f.recoverErr
}

func (f *fakeBootstrap) Nodes() []*NodeInfo { return f.nodes }

func TestSchemaVersionStored(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[versionQuery] = [][]any{{int64(3), int64(0)}}
	c := newTestConn(b)

	ver, err := c.SchemaVersionStored(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion{Major: 3, Minor: 0}, ver)
}

func TestSchemaVersionStoredMissingMarker(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(newFakeBackend())

	_, err := c.SchemaVersionStored(ctx)
	require.Error(t, err)
}

func TestMigrateCurrentVersionIsNoop(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[versionQuery] = [][]any{{int64(3), int64(0)}}
	boot := &fakeBootstrap{}
	m := &MigrationController{Conn: newTestConn(b), Bootstrap: boot}

	require.NoError(t, m.Migrate(ctx))
	assert.False(t, boot.recovered)
	assert.Empty(t, b.execs)
}

func TestMigrateFromV1ResavesNodes(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[versionQuery] = [][]any{{int64(1), int64(0)}}
	boot := &fakeBootstrap{nodes: []*NodeInfo{{Name: "n1"}, {Name: "n2"}}}
	m := &MigrationController{Conn: newTestConn(b), Bootstrap: boot}

	require.NoError(t, m.Migrate(ctx))
	assert.True(t, boot.recovered)

	// Every recovered node is rewritten in full through the node store.
	require.Len(t, b.execs, 2)
	assert.Equal(t, stmtInsertNode, b.execs[0].sql)
	assert.Equal(t, "n1", b.execs[0].args[0])
	assert.Equal(t, stmtInsertNode, b.execs[1].sql)
	assert.Equal(t, "n2", b.execs[1].args[0])

	// The full save clears the dirty mark set for the upgrade.
	assert.False(t, boot.nodes[0].Dirty)
	assert.False(t, boot.nodes[1].Dirty)
}

func TestMigrateFromV1RecoveryFailure(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[versionQuery] = [][]any{{int64(1), int64(0)}}
	boot := &fakeBootstrap{recoverErr: errors.New("recovery exploded")}
	m := &MigrationController{Conn: newTestConn(b), Bootstrap: boot}

	err := m.Migrate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warm recovery failed")
	assert.Empty(t, b.execs)
}

func TestMigrateFromV1NodeSaveFailure(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[versionQuery] = [][]any{{int64(1), int64(0)}}
	b.execErrs[stmtInsertNode] = errors.New("disk full")
	boot := &fakeBootstrap{nodes: []*NodeInfo{{Name: "n1"}}}
	m := &MigrationController{Conn: newTestConn(b), Bootstrap: boot}

	err := m.Migrate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node save failed during upgrade")
}

func TestMigrateUnknownVersionRefuses(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	b.queryRows[versionQuery] = [][]any{{int64(2), int64(7)}}
	m := &MigrationController{Conn: newTestConn(b), Bootstrap: &fakeBootstrap{}}

	err := m.Migrate(ctx)
	require.Error(t, err)
	assert.Equal(t, "cannot upgrade from datastore version 2.7", err.Error())
	assert.Empty(t, b.execs)
}
