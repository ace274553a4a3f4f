package datastore

import (
	"context"
)

const (
	stmtInsertJob      = "insert_job"
	stmtUpdateJob      = "quick_update_job"
	stmtDeleteJob      = "delete_job"
	stmtLoadJob        = "load_job"
	stmtFindJob        = "find_job"
	stmtFindJobSince   = "find_job_since"
	stmtDeleteJobAttrs = "delete_job_attrs"
)

const jobColumns = "ji_jobid, ji_state, ji_substate, ji_queue, ji_priority, ji_runcount, ji_exitstat, ji_savetm, ji_creattm, attributes"

type jobStore struct{}

func (s *jobStore) prepareStatements(ctx context.Context, c *Conn) error {
	stmts := []struct {
		name       string
		sql        string
		paramCount int
	}{
		{stmtInsertJob, `INSERT INTO job
			(ji_jobid, ji_state, ji_substate, ji_queue, ji_priority, ji_runcount, ji_exitstat, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (ji_jobid) DO UPDATE SET
			ji_state = excluded.ji_state, ji_substate = excluded.ji_substate,
			ji_queue = excluded.ji_queue, ji_priority = excluded.ji_priority,
			ji_runcount = excluded.ji_runcount, ji_exitstat = excluded.ji_exitstat,
			ji_savetm = now(), attributes = excluded.attributes`, 8},
		{stmtUpdateJob, `UPDATE job SET ji_state = $2, ji_substate = $3, ji_exitstat = $4, ji_savetm = now()
			WHERE ji_jobid = $1`, 4},
		{stmtDeleteJob, `DELETE FROM job WHERE ji_jobid = $1`, 1},
		{stmtLoadJob, `SELECT ` + jobColumns + ` FROM job WHERE ji_jobid = $1`, 1},
		{stmtFindJob, `SELECT ` + jobColumns + ` FROM job ORDER BY ji_creattm`, 0},
		{stmtFindJobSince, `SELECT ` + jobColumns + ` FROM job WHERE ji_savetm > $1 ORDER BY ji_creattm`, 1},
		{stmtDeleteJobAttrs, `UPDATE job SET attributes = COALESCE(
			(SELECT jsonb_agg(a) FROM jsonb_array_elements(attributes) a WHERE NOT (a->>'name' = ANY ($2))),
			'[]'::jsonb), ji_savetm = now()
			WHERE ji_jobid = $1`, 2},
	}
	for _, st := range stmts {
		if err := c.prepare(ctx, st.name, st.sql, st.paramCount); err != nil {
			return err
		}
	}
	return nil
}

func (s *jobStore) save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult {
	job, ok := payloadAs[JobInfo](c, h, "save of job")
	if !ok {
		return OpError
	}
	if mode == SaveQuick {
		c.params.bind(job.JobID, job.State, job.Substate, job.ExitStatus)
		return c.execCommand(ctx, stmtUpdateJob)
	}
	c.params.bind(job.JobID, job.State, job.Substate, job.Queue, job.Priority, job.RunCount, job.ExitStatus, job.Attributes)
	return c.execCommand(ctx, stmtInsertJob)
}

func (s *jobStore) delete(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	c.params.bind(h.ID)
	return c.execCommand(ctx, stmtDeleteJob)
}

func (s *jobStore) load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult {
	job, ok := payloadAs[JobInfo](c, h, "load of job")
	if !ok {
		return OpError
	}
	c.params.bind(h.ID)
	res, ret := c.execQuery(ctx, stmtLoadJob)
	if ret != OpOK {
		return ret
	}
	defer res.release()
	if err := decodeJobRow(res.row(0), job); err != nil {
		c.setError("load of job", h.ID, err)
		return OpError
	}
	return OpOK
}

func (s *jobStore) find(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle, opts *QueryOptions) OpResult {
	var (
		res *resultSet
		ret OpResult
	)
	if opts != nil && !opts.Since.IsZero() {
		c.params.bind(opts.Since)
		res, ret = c.execQuery(ctx, stmtFindJobSince)
	} else {
		res, ret = c.execQuery(ctx, stmtFindJob)
	}
	if ret != OpOK {
		return ret
	}
	cu.bind(res)
	return OpOK
}

func (s *jobStore) next(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle) OpResult {
	job, ok := payloadAs[JobInfo](c, h, "fetch of job")
	if !ok {
		return OpError
	}
	if err := decodeJobRow(cu.res.row(cu.row), job); err != nil {
		c.setError("fetch of job", h.ID, err)
		return OpError
	}
	h.ID = job.JobID
	return OpOK
}

func (s *jobStore) deleteAttrs(ctx context.Context, c *Conn, id string, attrs []Attribute) OpResult {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	c.params.bind(id, names)
	return c.execCommand(ctx, stmtDeleteJobAttrs)
}

func decodeJobRow(vals []any, job *JobInfo) error {
	var err error
	*job = JobInfo{}
	if job.JobID, err = decodeString(vals[0]); err != nil {
		return err
	}
	if job.State, err = decodeInt(vals[1]); err != nil {
		return err
	}
	if job.Substate, err = decodeInt(vals[2]); err != nil {
		return err
	}
	if job.Queue, err = decodeString(vals[3]); err != nil {
		return err
	}
	if job.Priority, err = decodeInt(vals[4]); err != nil {
		return err
	}
	if job.RunCount, err = decodeInt64(vals[5]); err != nil {
		return err
	}
	if job.ExitStatus, err = decodeInt(vals[6]); err != nil {
		return err
	}
	if job.SaveTime, err = decodeTime(vals[7]); err != nil {
		return err
	}
	if job.CreateTime, err = decodeTime(vals[8]); err != nil {
		return err
	}
	if job.Attributes, err = decodeAttributes(vals[9]); err != nil {
		return err
	}
	return nil
}
