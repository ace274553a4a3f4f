package datastore

import (
	"context"
	"fmt"
)

// objectStore is the per-kind persistence contract. Every kind implements
// save and load; delete, find/next and deleteAttrs exist where the kind
// has those semantics and are explicit unsupported markers otherwise.
type objectStore interface {
	prepareStatements(ctx context.Context, c *Conn) error
	save(ctx context.Context, c *Conn, h *ObjectHandle, mode SaveMode) OpResult
	delete(ctx context.Context, c *Conn, h *ObjectHandle) OpResult
	load(ctx context.Context, c *Conn, h *ObjectHandle) OpResult
	find(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle, opts *QueryOptions) OpResult
	next(ctx context.Context, c *Conn, cu *cursor, h *ObjectHandle) OpResult
	deleteAttrs(ctx context.Context, c *Conn, id string, attrs []Attribute) OpResult
}

// newStoreTable builds the fixed dispatch table, one row per entity kind.
func newStoreTable() [numEntityKinds]objectStore {
	var t [numEntityKinds]objectStore
	t[KindServer] = &serverStore{}
	t[KindScheduler] = &schedStore{}
	t[KindQueue] = &queueStore{}
	t[KindNode] = &nodeStore{}
	t[KindNodeHistoryTimestamp] = newNodeHistStore()
	t[KindJob] = &jobStore{}
	t[KindJobScript] = newJobScriptStore()
	t[KindReservation] = &resvStore{}
	return t
}

func (c *Conn) setUnsupported(op string, kind EntityKind) {
	c.lastErr = &ConnectionError{
		Code:   FailBackend,
		Detail: fmt.Sprintf("operation %s not supported for object type %s", op, kind),
	}
}

// The unsupported* types are embedded by stores whose kind lacks the
// corresponding operation. Invoking one is a contract violation by the
// caller; it reports an error outcome rather than panicking.

type unsupportedDelete struct{}

func (unsupportedDelete) delete(_ context.Context, c *Conn, h *ObjectHandle) OpResult {
	c.setUnsupported("delete", h.Kind)
	return OpError
}

type unsupportedFind struct{}

func (unsupportedFind) find(_ context.Context, c *Conn, _ *cursor, h *ObjectHandle, _ *QueryOptions) OpResult {
	c.setUnsupported("find", h.Kind)
	return OpError
}

func (unsupportedFind) next(_ context.Context, c *Conn, _ *cursor, h *ObjectHandle) OpResult {
	c.setUnsupported("next", h.Kind)
	return OpError
}

type unsupportedDeleteAttrs struct {
	kind EntityKind
}

func (u unsupportedDeleteAttrs) deleteAttrs(_ context.Context, c *Conn, _ string, _ []Attribute) OpResult {
	c.setUnsupported("delete attributes", u.kind)
	return OpError
}

// SaveObject persists the entity carried by h. SaveQuick updates volatile
// columns only; SaveFull writes the whole row including attributes.
func (c *Conn) SaveObject(ctx context.Context, h *ObjectHandle, mode SaveMode) OpResult {
	ret := c.stores[h.Kind].save(ctx, c, h, mode)
	recordOp(h.Kind, "save", ret)
	return ret
}

// DeleteObject removes the entity row identified by h.
func (c *Conn) DeleteObject(ctx context.Context, h *ObjectHandle) OpResult {
	ret := c.stores[h.Kind].delete(ctx, c, h)
	recordOp(h.Kind, "delete", ret)
	return ret
}

// LoadObject loads the row identified by h into its payload, replacing the
// prior payload contents entirely.
func (c *Conn) LoadObject(ctx context.Context, h *ObjectHandle) OpResult {
	ret := c.stores[h.Kind].load(ctx, c, h)
	recordOp(h.Kind, "load", ret)
	return ret
}

// DeleteObjectAttrs removes the named attributes from the entity
// identified by h without touching the rest of the row.
func (c *Conn) DeleteObjectAttrs(ctx context.Context, h *ObjectHandle, attrs []Attribute) OpResult {
	ret := c.stores[h.Kind].deleteAttrs(ctx, c, h.ID, attrs)
	recordOp(h.Kind, "delete_attrs", ret)
	return ret
}
