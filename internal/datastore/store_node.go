package datastore

import (
	"context"
)

const (
	stmtInsertNode      = "insert_node"
	stmtUpdateNode      = "quick_update_node"
	stmtDeleteNode      = "delete_node"
	stmtLoadNode        = "load_node"
	stmtFindNode        = "find_node"
	stmtFindNodeSince   = "find_node_since"
	stmtDeleteNodeAttrs = "delete_node_attrs"
)

const nodeColumns = "nd_name, nd_index, nd_hostname, nd_state, nd_ntype, nd_pque, nd_savetm, nd_creattm, attributes"

type nodeStore struct{}

func (s *nodeStore) prepareStatements(ctx context.Context, c *Conn) error {
	stmts := []struct {
		name       string
		sql        string
		paramCount int
	}{
		{stmtInsertNode, `INSERT INTO node
			(nd_name, nd_index, nd_hostname, nd_state, nd_ntype, nd_pque, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (nd_name) DO UPDATE SET
			nd_index = excluded.nd_index, nd_hostname = excluded.nd_hostname,
			nd_state = excluded.nd_state, nd_ntype = excluded.nd_ntype,
			nd_pque = excluded.nd_pque, nd_savetm = now(), attributes = excluded.attributes`, 7},
		{stmtUpdateNode, `UPDATE node SET nd_state = $2, nd_savetm = now() WHERE nd_name = $1`, 2},
		{stmtDeleteNode, `DELETE FROM node WHERE nd_name = $1`, 1},
		{stmtLoadNode, `SELECT ` + nodeColumns + ` FROM node WHERE nd_name = $1`, 1},
		// Scan order follows the fixed node index so vnodes come back in
		// the order the server created them.
		{stmtFindNode, `SELECT ` + nodeColumns + ` FROM node ORDER BY nd_index`, 0},
		{stmtFindNodeSince, `SELECT ` + nodeColumns + ` FROM node WHERE nd_savetm > $1 ORDER BY nd_index`, 1},
		{stmtDeleteNodeAttrs, `UPDATE node SET attributes = COALESCE(
			(SELECT jsonb_agg(a) FROM jsonb_array_elements(attributes) a WHERE NOT (a->>'name' = ANY ($2))),
			'[]'::jsonb), nd_savetm = now()
			WHERE nd_name = $1`, 2},
	}
	for _, st := range stmts {
		if err := c.prepare(ctx, st.name, st.sql, st.paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (s *nodeStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	node, ok := payloadAs[NodeInfo](c, h, "save of node")
	if !ok {
		return OpError
	}
	if mode == SaveQuick {
		c.params.bind(node.Name, node.State)
		return c.execCommand(ctx, stmtUpdateNode)
	}
	c.params.bind(node.Name, node.Index, node.Hostname, node.State, node.Type, node.Queue, node.Attributes)
	ret := c.execCommand(ctx, stmtInsertNode)
	if ret == OpOK {
		node.Dirty = false
	}
	return ret
}

func (s *nodeStore) delete(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	c.params.bind(h.ID)
	return c.execCommand(ctx, stmtDeleteNode)
}

func (s *nodeStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	node, ok := payloadAs[NodeInfo](c, h, "load of node")
	if !ok {
		return OpError
	}
	c.params.bind(h.ID)
	res, ret := c.execQuery(ctx, stmtLoadNode)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	if err := decodeNodeRow(res.row(0), node); err != nil {
		c.setError("load of node", h.ID, err)
		return OpError
	}
	return OpOK
}

func (s *nodeStore) find(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle, opts *QueryOptions) OpResult {
	var (
		res *resultSet
		ret OpResult
	)
	if opts != nil && !opts.Since.IsZero() {
		c.params.bind(opts.Since)
		res, ret = c.execQuery(ctx, stmtFindNodeSince)
	} else {
		res, ret = c.execQuery(ctx, stmtFindNode)
	}
	if ret != OpOK {
		return ret
	}
	cu.bind(res)
	return OpOK
}

func (s *nodeStore) next(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle) OpResult {
	node, ok := payloadAs[NodeInfo](c, h, "fetch of node")
	if !ok {
		return OpError
	}
	if err := decodeNodeRow(cu.res.row(cu.row), node); err != nil {
		c.setError("fetch of node", h.ID, err)
		return OpError
	}
	h.ID = node.Name
	return OpOK
}

func (s *nodeStore) deleteAttrs(ctx context.Context, c *Conn, id string, attrs []Attribute) OpResult {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	c.params.bind(id, names)
	return c.execCommand(ctx, stmtDeleteNodeAttrs)
}

func decodeNodeRow(vals []any, node *NodeInfo) error {
	var err error
	*node = NodeInfo{}
	if node.Name, err = decodeString(vals[0]); err != nil {
		return err
	}
	if node.Index, err = decodeInt(vals[1]); err != nil {
		return err
	}
	if node.Hostname, err = decodeString(vals[2]); err != nil {
		return err
	}
	if node.State, err = decodeInt(vals[3]); err != nil {
		return err
	}
	if node.Type, err = decodeInt(vals[4]); err != nil {
		return err
	}
	if node.Queue, err = decodeString(vals[5]); err != nil {
		return err
	}
	if node.SaveTime, err = decodeTime(vals[6]); err != nil {
		return err
	}
	if node.CreateTime, err = decodeTime(vals[7]); err != nil {
		return err
	}
	if node.Attributes, err = decodeAttributes(vals[8]); err != nil {
		return err
	}
	return nil
}
