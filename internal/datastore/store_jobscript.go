package datastore

import (
	"context"
)

const (
	stmtInsertJobScript = "insert_jobscr"
	stmtLoadJobScript   = "load_jobscr"
)

// jobScriptStore persists submitted script bodies. A script is written
// once at submission and read back at recovery; it is removed with its
// job row by the schema's referential action, so delete, find/next and
// attribute deletion have no meaning for this kind.
type jobScriptStore struct {
	unsupportedDelete
	unsupportedFind
	unsupportedDeleteAttrs
}

func newJobScriptStore() *jobScriptStore {
	return &jobScriptStore{unsupportedDeleteAttrs: unsupportedDeleteAttrs{kind: KindJobScript}}
}

func (s *jobScriptStore) prepareStatements(ctx context.Context, c *Conn) error {
	if err := c.prepare(ctx, stmtInsertJobScript,
		`INSERT INTO job_scr (ji_jobid, script) VALUES ($1, $2)
			ON CONFLICT (ji_jobid) DO UPDATE SET script = excluded.script`, 2); err != nil {
		return err
	}
	return c.prepare(ctx, stmtLoadJobScript,
		`SELECT ji_jobid, script FROM job_scr WHERE ji_jobid = $1`, 1)
}

func (s *jobScriptStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	scr, ok := payloadAs[JobScript](c, h, "save of job script")
	if !ok {
		return OpError
	}
	c.params.bind(scr.JobID, scr.Script)
	return c.execCommand(ctx, stmtInsertJobScript)
}

func (s *jobScriptStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	scr, ok := payloadAs[JobScript](c, h, "load of job script")
	if !ok {
		return OpError
	}
	c.params.bind(h.ID)
	res, ret := c.execQuery(ctx, stmtLoadJobScript)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	vals := res.row(0)
	var err error
	*scr = JobScript{}
	if scr.JobID, err = decodeString(vals[0]); err == nil {
		scr.Script, err = decodeBytes(vals[1])
	}
	if err != nil {
		c.setError("load of job script", h.ID, err)
		return OpError
	}
	return OpOK
}
