package datastore

import (
	"context"
)

const (
	stmtInsertQueue      = "insert_que"
	stmtUpdateQueue      = "quick_update_que"
	stmtDeleteQueue      = "delete_que"
	stmtLoadQueue        = "load_que"
	stmtFindQueue        = "find_que"
	stmtFindQueueSince   = "find_que_since"
	stmtDeleteQueueAttrs = "delete_que_attrs"
)

const queueColumns = "qu_name, qu_type, qu_savetm, qu_creattm, attributes"

type queueStore struct{}

func (s *queueStore) prepareStatements(ctx context.Context, c *Conn) error {
	stmts := []struct {
		name       string
		sql        string
		paramCount int
	}{
		{stmtInsertQueue, `INSERT INTO queue (qu_name, qu_type, attributes) VALUES ($1, $2, $3)
			ON CONFLICT (qu_name) DO UPDATE SET
			qu_type = excluded.qu_type, qu_savetm = now(), attributes = excluded.attributes`, 3},
		{stmtUpdateQueue, `UPDATE queue SET qu_type = $2, qu_savetm = now() WHERE qu_name = $1`, 2},
		{stmtDeleteQueue, `DELETE FROM queue WHERE qu_name = $1`, 1},
		{stmtLoadQueue, `SELECT ` + queueColumns + ` FROM queue WHERE qu_name = $1`, 1},
		{stmtFindQueue, `SELECT ` + queueColumns + ` FROM queue ORDER BY qu_creattm`, 0},
		{stmtFindQueueSince, `SELECT ` + queueColumns + ` FROM queue WHERE qu_savetm > $1 ORDER BY qu_creattm`, 1},
		{stmtDeleteQueueAttrs, `UPDATE queue SET attributes = COALESCE(
			(SELECT jsonb_agg(a) FROM jsonb_array_elements(attributes) a WHERE NOT (a->>'name' = ANY ($2))),
			'[]'::jsonb), qu_savetm = now()
			WHERE qu_name = $1`, 2},
	}
	for _, st := range stmts {
		if err := c.prepare(ctx, st.name, st.sql, st.paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (s *queueStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	que, ok := payloadAs[QueueInfo](c, h, "save of queue")
	if !ok {
		return OpError
	}
	if mode == SaveQuick {
		c.params.bind(que.Name, que.Type)
		return c.execCommand(ctx, stmtUpdateQueue)
	}
	c.params.bind(que.Name, que.Type, que.Attributes)
	return c.execCommand(ctx, stmtInsertQueue)
}

func (s *queueStore) delete(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	c.params.bind(h.ID)
	return c.execCommand(ctx, stmtDeleteQueue)
}

func (s *queueStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	que, ok := payloadAs[QueueInfo](c, h, "load of queue")
	if !ok {
		return OpError
	}
	c.params.bind(h.ID)
	res, ret := c.execQuery(ctx, stmtLoadQueue)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	if err := decodeQueueRow(res.row(0), que); err != nil {
		c.setError("load of queue", h.ID, err)
		return OpError
	}
	return OpOK
}

func (s *queueStore) find(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle, opts *QueryOptions) OpResult {
	var (
		res *resultSet
		ret OpResult
	)
	if opts != nil && !opts.Since.IsZero() {
		c.params.bind(opts.Since)
		res, ret = c.execQuery(ctx, stmtFindQueueSince)
	} else {
		res, ret = c.execQuery(ctx, stmtFindQueue)
	}
	if ret != OpOK {
		return ret
	}
	cu.bind(res)
	return OpOK
}

func (s *queueStore) next(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle) OpResult {
	que, ok := payloadAs[QueueInfo](c, h, "fetch of queue")
	if !ok {
		return OpError
	}
	if err := decodeQueueRow(cu.res.row(cu.row), que); err != nil {
		c.setError("fetch of queue", h.ID, err)
		return OpError
	}
	h.ID = que.Name
	return OpOK
}

func (s *queueStore) deleteAttrs(ctx context.Context, c *Conn, id string, attrs []Attribute) OpResult {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	c.params.bind(id, names)
	return c.execCommand(ctx, stmtDeleteQueueAttrs)
}

func decodeQueueRow(vals []any, que *QueueInfo) error {
	var err error
	*que = QueueInfo{}
	if que.Name, err = decodeString(vals[0]); err != nil {
		return err
	}
	if que.Type, err = decodeInt(vals[1]); err != nil {
		return err
	}
	if que.SaveTime, err = decodeTime(vals[2]); err != nil {
		return err
	}
	if que.CreateTime, err = decodeTime(vals[3]); err != nil {
		return err
	}
	if que.Attributes, err = decodeAttributes(vals[4]); err != nil {
		return err
	}
	return nil
}
