// Package datastore is the persistence layer of the OpenBatch server.
//
// It maps the in-memory scheduling entities (server, scheduler, queues,
// nodes, jobs, job scripts, reservations, node-history records) onto a
// postgres backend and gates structural upgrades of that backend across
// software versions. The rest of the server never talks to the database
// driver directly; it obtains a *Conn and goes through the object
// save/load/delete/search operations defined here.
package datastore

import (
	"time"
)

// EntityKind identifies one of the fixed object families persisted by the
// datastore. The set is closed and known at compile time; it drives the
// per-kind store selection.
type EntityKind int

const (
	KindServer EntityKind = iota
	KindScheduler
	KindQueue
	KindNode
	KindNodeHistoryTimestamp
	KindJob
	KindJobScript
	KindReservation

	numEntityKinds
)

func (k EntityKind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindScheduler:
		return "scheduler"
	case KindQueue:
		return "queue"
	case KindNode:
		return "node"
	case KindNodeHistoryTimestamp:
		return "node_history_timestamp"
	case KindJob:
		return "job"
	case KindJobScript:
		return "job_script"
	case KindReservation:
		return "reservation"
	}
	return "unknown"
}

// SaveMode selects how much of an entity a save writes back.
type SaveMode int

const (
	// SaveQuick updates only the volatile columns of an existing row.
	SaveQuick SaveMode = iota
	// SaveFull upserts the whole row including the attribute set.
	SaveFull
)

// OpResult is the uniform three-way outcome of every object operation.
// It is preserved exactly across the whole datastore, including the
// migration path.
type OpResult int

const (
	// OpError indicates the backend rejected the operation. The detail is
	// cached on the connection and readable until the next statement runs.
	OpError OpResult = -1
	// OpOK indicates success with at least one row affected or returned.
	OpOK OpResult = 0
	// OpNoRows indicates the statement succeeded but touched no rows.
	OpNoRows OpResult = 1
)

// ObjectHandle carries one entity through a datastore call. The caller
// creates it before each call; load and fetch operations replace the
// payload contents entirely, save operations read them. A handle never
// outlives the call it was created for.
type ObjectHandle struct {
	Kind EntityKind
	// ID is the object identity (job id, queue name, node name, ...).
	ID string
	// Payload points at the in-memory representation for Kind, e.g.
	// *JobInfo for KindJob. Mutated in place on load/fetch.
	Payload any
}

// QueryOptions narrows a find operation. The zero value means an
// unrestricted scan.
type QueryOptions struct {
	// Since limits the scan to rows saved after the given instant.
	Since time.Time
	// Flags is reserved for per-kind scan modifiers.
	Flags uint32
}

// RowCallback receives the handle populated with one fetched row and
// reports whether the row was accepted. Only accepted rows count toward
// the total returned by Search.
type RowCallback func(h *ObjectHandle) bool

// Attribute is one name/resource/value tuple of an entity's attribute set.
type Attribute struct {
	Name     string `json:"name"`
	Resource string `json:"resource,omitempty"`
	Value    string `json:"value"`
	Flags    int    `json:"flags"`
}

// SchemaVersion is the (major, minor) structural generation marker stored
// in the backend. It is read once at startup and drives the migration
// branch.
type SchemaVersion struct {
	Major int
	Minor int
}
