package datastore

import "time"

// The structs below are the payload representations the datastore reads
// and writes through ObjectHandle.Payload. Row data replaces prior payload
// contents entirely on load and fetch.

// ServerInfo is the single server row.
type ServerInfo struct {
	Name        string
	JobIDNumber int64
	SaveTime    time.Time
	CreateTime  time.Time
	Attributes  []Attribute
}

// SchedulerInfo is one scheduler row.
type SchedulerInfo struct {
	Name       string
	SaveTime   time.Time
	CreateTime time.Time
	Attributes []Attribute
}

// QueueInfo is one execution or routing queue row.
type QueueInfo struct {
	Name       string
	Type       int
	SaveTime   time.Time
	CreateTime time.Time
	Attributes []Attribute
}

// NodeInfo is one execution node row.
type NodeInfo struct {
	Name       string
	Index      int
	Hostname   string
	State      int
	Type       int
	Queue      string
	SaveTime   time.Time
	CreateTime time.Time
	Attributes []Attribute
	// Dirty marks the node for re-persistence; set by the migration
	// controller when upgrading from a pre-3.0 schema.
	Dirty bool
}

// NodeHistoryTimestamp records the last time node state was captured.
// It has load/save semantics only.
type NodeHistoryTimestamp struct {
	Time       int64
	Generation int
}

// JobInfo is one job row.
type JobInfo struct {
	JobID      string
	State      int
	Substate   int
	Queue      string
	Priority   int
	RunCount   int64
	ExitStatus int
	SaveTime   time.Time
	CreateTime time.Time
	Attributes []Attribute
}

// JobScript is the submitted script body of one job. It has load/save
// semantics only; scripts are removed with their job row by the backend
// schema's referential action.
type JobScript struct {
	JobID  string
	Script []byte
}

// ReservationInfo is one advance/standing reservation row.
type ReservationInfo struct {
	ResvID     string
	Queue      string
	State      int
	Substate   int
	StartTime  time.Time
	EndTime    time.Time
	SaveTime   time.Time
	CreateTime time.Time
	Attributes []Attribute
}
