package datastore

import (
	"context"
)

const (
	stmtInsertSched      = "insert_sched"
	stmtUpdateSched      = "quick_update_sched"
	stmtDeleteSched      = "delete_sched"
	stmtLoadSched        = "load_sched"
	stmtFindSched        = "find_sched"
	stmtDeleteSchedAttrs = "delete_sched_attrs"
)

const schedColumns = "sched_name, sched_savetm, sched_creattm, attributes"

type schedStore struct{}

func (s *schedStore) prepareStatements(ctx context.Context, c *Conn) error {
	stmts := []struct {
		name       string
		sql        string
		paramCount int
	}{
		{stmtInsertSched, `INSERT INTO scheduler (sched_name, attributes) VALUES ($1, $2)
			ON CONFLICT (sched_name) DO UPDATE SET
			sched_savetm = now(), attributes = excluded.attributes`, 2},
		{stmtUpdateSched, `UPDATE scheduler SET sched_savetm = now() WHERE sched_name = $1`, 1},
		{stmtDeleteSched, `DELETE FROM scheduler WHERE sched_name = $1`, 1},
		{stmtLoadSched, `SELECT ` + schedColumns + ` FROM scheduler WHERE sched_name = $1`, 1},
		{stmtFindSched, `SELECT ` + schedColumns + ` FROM scheduler ORDER BY sched_creattm`, 0},
		{stmtDeleteSchedAttrs, `UPDATE scheduler SET attributes = COALESCE(
			(SELECT jsonb_agg(a) FROM jsonb_array_elements(attributes) a WHERE NOT (a->>'name' = ANY ($2))),
			'[]'::jsonb), sched_savetm = now()
			WHERE sched_name = $1`, 2},
	}
	for _, st := range stmts {
		if err := c.prepare(ctx, st.name, st.sql, st.paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (s *schedStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	sched, ok := payloadAs[SchedulerInfo](c, h, "save of scheduler")
	if !ok {
		return OpError
	}
	if mode == SaveQuick {
		c.params.bind(sched.Name)
		return c.execCommand(ctx, stmtUpdateSched)
	}
	c.params.bind(sched.Name, sched.Attributes)
	return c.execCommand(ctx, stmtInsertSched)
}

func (s *schedStore) delete(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	c.params.bind(h.ID)
	return c.execCommand(ctx, stmtDeleteSched)
}

func (s *schedStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	sched, ok := payloadAs[SchedulerInfo](c, h, "load of scheduler")
	if !ok {
		return OpError
	}
	c.params.bind(h.ID)
	res, ret := c.execQuery(ctx, stmtLoadSched)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	if err := decodeSchedRow(res.row(0), sched); err != nil {
		c.setError("load of scheduler", h.ID, err)
		return OpError
	}
	return OpOK
}

func (s *schedStore) find(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle, opts *QueryOptions) OpResult {
	res, ret := c.execQuery(ctx, stmtFindSched)
	if ret != OpOK {
		return ret
	}
	cu.bind(res)
	return OpOK
}

func (s *schedStore) next(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle) OpResult {
	sched, ok := payloadAs[SchedulerInfo](c, h, "fetch of scheduler")
	if !ok {
		return OpError
	}
	if err := decodeSchedRow(cu.res.row(cu.row), sched); err != nil {
		c.setError("fetch of scheduler", h.ID, err)
		return OpError
	}
	h.ID = sched.Name
	return OpOK
}

func (s *schedStore) deleteAttrs(ctx context.Context, c *Conn, id string, attrs []Attribute) OpResult {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	c.params.bind(id, names)
	return c.execCommand(ctx, stmtDeleteSchedAttrs)
}

func decodeSchedRow(vals []any, sched *SchedulerInfo) error {
	var err error
	*sched = SchedulerInfo{}
	if sched.Name, err = decodeString(vals[0]); err != nil {
		return err
	}
	if sched.SaveTime, err = decodeTime(vals[1]); err != nil {
		return err
	}
	if sched.CreateTime, err = decodeTime(vals[2]); err != nil {
		return err
	}
	if sched.Attributes, err = decodeAttributes(vals[3]); err != nil {
		return err
	}
	return nil
}
