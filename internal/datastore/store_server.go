package datastore

import (
	"context"
)

const (
	stmtInsertServer      = "insert_svr"
	stmtUpdateServer      = "quick_update_svr"
	stmtLoadServer        = "load_svr"
	stmtDeleteServerAttrs = "delete_svr_attrs"
)

const serverColumns = "sv_name, sv_jobidnumber, sv_savetm, sv_creattm, attributes"

// serverStore persists the single server row. There is exactly one server
// object per installation, so delete and find/next have no meaning for
// this kind.
type serverStore struct {
	unsupportedDelete
	unsupportedFind
}

func (s *serverStore) prepareStatements(ctx context.Context, c *Conn) error {
	stmts := []struct {
		name       string
		sql        string
		paramCount int
	}{
		{stmtInsertServer, `INSERT INTO server (sv_name, sv_jobidnumber, attributes) VALUES ($1, $2, $3)
			ON CONFLICT (sv_name) DO UPDATE SET
			sv_jobidnumber = excluded.sv_jobidnumber, sv_savetm = now(),
			attributes = excluded.attributes`, 3},
		{stmtUpdateServer, `UPDATE server SET sv_jobidnumber = $2, sv_savetm = now() WHERE sv_name = $1`, 2},
		{stmtLoadServer, `SELECT ` + serverColumns + ` FROM server WHERE sv_name = $1`, 1},
		{stmtDeleteServerAttrs, `UPDATE server SET attributes = COALESCE(
			(SELECT jsonb_agg(a) FROM jsonb_array_elements(attributes) a WHERE NOT (a->>'name' = ANY ($2))),
			'[]'::jsonb), sv_savetm = now()
			WHERE sv_name = $1`, 2},
	}
	for _, st := range stmts {
		if err := c.prepare(ctx, st.name, st.sql, st.paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (s *serverStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	svr, ok := payloadAs[ServerInfo](c, h, "save of server")
	if !ok {
		return OpError
	}
	if mode == SaveQuick {
		c.params.bind(svr.Name, svr.JobIDNumber)
		return c.execCommand(ctx, stmtUpdateServer)
	}
	c.params.bind(svr.Name, svr.JobIDNumber, svr.Attributes)
	return c.execCommand(ctx, stmtInsertServer)
}

func (s *serverStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	svr, ok := payloadAs[ServerInfo](c, h, "load of server")
	if !ok {
		return OpError
	}
	c.params.bind(h.ID)
	res, ret := c.execQuery(ctx, stmtLoadServer)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	if err := decodeServerRow(res.row(0), svr); err != nil {
		c.setError("load of server", h.ID, err)
		return OpError
	}
	return OpOK
}

func (s *serverStore) deleteAttrs(ctx context.Context, c *Conn, id string, attrs []Attribute) OpResult {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	c.params.bind(id, names)
	return c.execCommand(ctx, stmtDeleteServerAttrs)
}

func decodeServerRow(vals []any, svr *ServerInfo) error {
	var err error
	*svr = ServerInfo{}
	if svr.Name, err = decodeString(vals[0]); err != nil {
		return err
	}
	if svr.JobIDNumber, err = decodeInt64(vals[1]); err != nil {
		return err
	}
	if svr.SaveTime, err = decodeTime(vals[2]); err != nil {
		return err
	}
	if svr.CreateTime, err = decodeTime(vals[3]); err != nil {
		return err
	}
	if svr.Attributes, err = decodeAttributes(vals[4]); err != nil {
		return err
	}
	return nil
}
