package datastore

import (
	"context"
)

const (
	stmtInsertResv      = "insert_resv"
	stmtUpdateResv      = "quick_update_resv"
	stmtDeleteResv      = "delete_resv"
	stmtLoadResv        = "load_resv"
	stmtFindResv        = "find_resv"
	stmtFindResvSince   = "find_resv_since"
	stmtDeleteResvAttrs = "delete_resv_attrs"
)

const resvColumns = "ri_resvid, ri_queue, ri_state, ri_substate, ri_stime, ri_etime, ri_savetm, ri_creattm, attributes"

type resvStore struct{}

func (s *resvStore) prepareStatements(ctx context.Context, c *Conn) error {
	stmts := []struct {
		name       string
		sql        string
		paramCount int
	}{
		{stmtInsertResv, `INSERT INTO resv
			(ri_resvid, ri_queue, ri_state, ri_substate, ri_stime, ri_etime, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ri_resvid) DO UPDATE SET
			ri_queue = excluded.ri_queue, ri_state = excluded.ri_state,
			ri_substate = excluded.ri_substate, ri_stime = excluded.ri_stime,
			ri_etime = excluded.ri_etime, ri_savetm = now(), attributes = excluded.attributes`, 7},
		{stmtUpdateResv, `UPDATE resv SET ri_state = $2, ri_substate = $3, ri_savetm = now()
			WHERE ri_resvid = $1`, 3},
		{stmtDeleteResv, `DELETE FROM resv WHERE ri_resvid = $1`, 1},
		{stmtLoadResv, `SELECT ` + resvColumns + ` FROM resv WHERE ri_resvid = $1`, 1},
		{stmtFindResv, `SELECT ` + resvColumns + ` FROM resv ORDER BY ri_creattm`, 0},
		{stmtFindResvSince, `SELECT ` + resvColumns + ` FROM resv WHERE ri_savetm > $1 ORDER BY ri_creattm`, 1},
		{stmtDeleteResvAttrs, `UPDATE resv SET attributes = COALESCE(
			(SELECT jsonb_agg(a) FROM jsonb_array_elements(attributes) a WHERE NOT (a->>'name' = ANY ($2))),
			'[]'::jsonb), ri_savetm = now()
			WHERE ri_resvid = $1`, 2},
	}
	for _, st := range stmts {
		if err := c.prepare(ctx, st.name, st.sql, st.paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (s *resvStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	resv, ok := payloadAs[ReservationInfo](c, h, "save of reservation")
	if !ok {
		return OpError
	}
	if mode == SaveQuick {
		c.params.bind(resv.ResvID, resv.State, resv.Substate)
		return c.execCommand(ctx, stmtUpdateResv)
	}
	c.params.bind(resv.ResvID, resv.Queue, resv.State, resv.Substate, resv.StartTime, resv.EndTime, resv.Attributes)
	return c.execCommand(ctx, stmtInsertResv)
}

func (s *resvStore) delete(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	c.params.bind(h.ID)
	return c.execCommand(ctx, stmtDeleteResv)
}

func (s *resvStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	resv, ok := payloadAs[ReservationInfo](c, h, "load of reservation")
	if !ok {
		return OpError
	}
	c.params.bind(h.ID)
	res, ret := c.execQuery(ctx, stmtLoadResv)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	if err := decodeResvRow(res.row(0), resv); err != nil {
		c.setError("load of reservation", h.ID, err)
		return OpError
	}
	return OpOK
}

func (s *resvStore) find(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle, opts *QueryOptions) OpResult {
	var (
		res *resultSet
		ret OpResult
	)
	if opts != nil && !opts.Since.IsZero() {
		c.params.bind(opts.Since)
		res, ret = c.execQuery(ctx, stmtFindResvSince)
	} else {
		res, ret = c.execQuery(ctx, stmtFindResv)
	}
	if ret != OpOK {
		return ret
	}
	cu.bind(res)
	return OpOK
}

func (s *resvStore) next(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle) OpResult {
	resv, ok := payloadAs[ReservationInfo](c, h, "fetch of reservation")
	if !ok {
		return OpError
	}
	if err := decodeResvRow(cu.res.row(cu.row), resv); err != nil {
		c.setError("fetch of reservation", h.ID, err)
		return OpError
	}
	h.ID = resv.ResvID
	return OpOK
}

func (s *resvStore) deleteAttrs(ctx context.Context, c *Conn, id string, attrs []Attribute) OpResult {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	c.params.bind(id, names)
	return c.execCommand(ctx, stmtDeleteResvAttrs)
}

func decodeResvRow(vals []any, resv *ReservationInfo) error {
	var err error
	*resv = ReservationInfo{}
	if resv.ResvID, err = decodeString(vals[0]); err != nil {
		return err
	}
	if resv.Queue, err = decodeString(vals[1]); err != nil {
		return err
	}
	if resv.State, err = decodeInt(vals[2]); err != nil {
		return err
	}
	if resv.Substate, err = decodeInt(vals[3]); err != nil {
		return err
	}
	if resv.StartTime, err = decodeTime(vals[4]); err != nil {
		return err
	}
	if resv.EndTime, err = decodeTime(vals[5]); err != nil {
		return err
	}
	if resv.SaveTime, err = decodeTime(vals[6]); err != nil {
		return err
	}
	if resv.CreateTime, err = decodeTime(vals[7]); err != nil {
		return err
	}
	if resv.Attributes, err = decodeAttributes(vals[8]); err != nil {
		return err
	}
	return nil
}
