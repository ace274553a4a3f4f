package datastore

import (
	"context"

	"github.com/pkg/errors"
)

// currentSchema is the structural generation this package's statements are
// written against.
var currentSchema = SchemaVersion{Major: 3, Minor: 0}

// schemaDDL creates the current-generation tables. Normally the installer
// lays the schema down before the server ever starts; EnsureSchema exists
// for bootstrap and test environments.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS server (
		sv_name TEXT PRIMARY KEY,
		sv_jobidnumber BIGINT NOT NULL DEFAULT 0,
		sv_savetm TIMESTAMPTZ NOT NULL DEFAULT now(),
		sv_creattm TIMESTAMPTZ NOT NULL DEFAULT now(),
		attributes JSONB
	);`,
	`CREATE TABLE IF NOT EXISTS scheduler (
		sched_name TEXT PRIMARY KEY,
		sched_savetm TIMESTAMPTZ NOT NULL DEFAULT now(),
		sched_creattm TIMESTAMPTZ NOT NULL DEFAULT now(),
		attributes JSONB
	);`,
	`CREATE TABLE IF NOT EXISTS queue (
		qu_name TEXT PRIMARY KEY,
		qu_type INT NOT NULL DEFAULT 0,
		qu_savetm TIMESTAMPTZ NOT NULL DEFAULT now(),
		qu_creattm TIMESTAMPTZ NOT NULL DEFAULT now(),
		attributes JSONB
	);`,
	`CREATE TABLE IF NOT EXISTS node (
		nd_name TEXT PRIMARY KEY,
		nd_index INT NOT NULL DEFAULT 0,
		nd_hostname TEXT NOT NULL DEFAULT '',
		nd_state INT NOT NULL DEFAULT 0,
		nd_ntype INT NOT NULL DEFAULT 0,
		nd_pque TEXT NOT NULL DEFAULT '',
		nd_savetm TIMESTAMPTZ NOT NULL DEFAULT now(),
		nd_creattm TIMESTAMPTZ NOT NULL DEFAULT now(),
		attributes JSONB
	);`,
	`CREATE TABLE IF NOT EXISTS mominfo_time (
		mit_time BIGINT NOT NULL,
		mit_gen INT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS job (
		ji_jobid TEXT PRIMARY KEY,
		ji_state INT NOT NULL DEFAULT 0,
		ji_substate INT NOT NULL DEFAULT 0,
		ji_queue TEXT NOT NULL DEFAULT '',
		ji_priority INT NOT NULL DEFAULT 0,
		ji_runcount BIGINT NOT NULL DEFAULT 0,
		ji_exitstat INT NOT NULL DEFAULT 0,
		ji_savetm TIMESTAMPTZ NOT NULL DEFAULT now(),
		ji_creattm TIMESTAMPTZ NOT NULL DEFAULT now(),
		attributes JSONB
	);`,
	`CREATE TABLE IF NOT EXISTS job_scr (
		ji_jobid TEXT PRIMARY KEY REFERENCES job (ji_jobid) ON DELETE CASCADE,
		script BYTEA
	);`,
	`CREATE TABLE IF NOT EXISTS resv (
		ri_resvid TEXT PRIMARY KEY,
		ri_queue TEXT NOT NULL DEFAULT '',
		ri_state INT NOT NULL DEFAULT 0,
		ri_substate INT NOT NULL DEFAULT 0,
		ri_stime TIMESTAMPTZ,
		ri_etime TIMESTAMPTZ,
		ri_savetm TIMESTAMPTZ NOT NULL DEFAULT now(),
		ri_creattm TIMESTAMPTZ NOT NULL DEFAULT now(),
		attributes JSONB
	);`,
	`CREATE TABLE IF NOT EXISTS schema_version (
		major INT NOT NULL,
		minor INT NOT NULL
	);`,
	`INSERT INTO schema_version (major, minor)
		SELECT 3, 0 WHERE NOT EXISTS (SELECT 1 FROM schema_version);`,
}

// EnsureSchema lays down the current-generation schema if it is not
// already present. Must run before Connect prepares statements, so it
// takes its own connector rather than a *Conn.
func EnsureSchema(ctx context.Context, cn *Connector) error {
	// Connect would pre-register statements against the very tables being
	// created here, so take a raw session instead.
	c, err := cn.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Disconnect(ctx) }()
	for _, ddl := range schemaDDL {
		if ret := c.execRaw(ctx, ddl); ret == OpError {
			return errors.Errorf("schema bootstrap failed: %s", c.TranslateError(FailBackend))
		}
	}
	return nil
}
