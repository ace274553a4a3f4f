package datastore

import (
	"context"
)

const (
	stmtUpdateMomTime = "update_mominfo_tm"
	stmtInsertMomTime = "insert_mominfo_tm"
	stmtLoadMomTime   = "load_mominfo_tm"
)

// nodeHistStore persists the single node-history timestamp row. There is
// at most one row; save updates it and falls back to insert the first
// time. Only load/save are meaningful for this kind.
type nodeHistStore struct {
	unsupportedDelete
	unsupportedFind
	unsupportedDeleteAttrs
}

func newNodeHistStore() *nodeHistStore {
	return &nodeHistStore{unsupportedDeleteAttrs: unsupportedDeleteAttrs{kind: KindNodeHistoryTimestamp}}
}

func (s *nodeHistStore) prepareStatements(ctx context.Context, c *Conn) error {
	stmts := []struct {
		name       string
		sql        string
		paramCount int
	}{
		{stmtUpdateMomTime, `UPDATE mominfo_time SET mit_time = $1, mit_gen = $2`, 2},
		{stmtInsertMomTime, `INSERT INTO mominfo_time (mit_time, mit_gen) VALUES ($1, $2)`, 2},
		{stmtLoadMomTime, `SELECT mit_time, mit_gen FROM mominfo_time`, 0},
	}
	for _, st := range stmts {
		if err := c.prepare(ctx, st.name, st.sql, st.paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (s *nodeHistStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	mt, ok := payloadAs[NodeHistoryTimestamp](c, h, "save of node history timestamp")
	if !ok {
		return OpError
	}
	c.params.bind(mt.Time, mt.Generation)
	ret := c.execCommand(ctx, stmtUpdateMomTime)
	if ret != OpNoRows {
		return ret
	}
	c.params.bind(mt.Time, mt.Generation)
	return c.execCommand(ctx, stmtInsertMomTime)
}

func (s *nodeHistStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	mt, ok := payloadAs[NodeHistoryTimestamp](c, h, "load of node history timestamp")
	if !ok {
		return OpError
	}
	res, ret := c.execQuery(ctx, stmtLoadMomTime)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	vals := res.row(0)
	var err error
	*mt = NodeHistoryTimestamp{}
	if mt.Time, err = decodeInt64(vals[0]); err == nil {
		mt.Generation, err = decodeInt(vals[1])
	}
	if err != nil {
		c.setError("load of node history timestamp", h.ID, err)
		return OpError
	}
	return OpOK
}
