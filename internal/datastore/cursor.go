package datastore

import (
	"context"
)

// cursor is a single-pass iterator over one find result set. It starts
// unpositioned (row -1, count -1); a successful find binds the result set
// and positions it at row 0. The backend result is owned exclusively by
// the Search call that created the cursor and is released exactly once,
// whichever state iteration ended in.
type cursor struct {
	res   *resultSet
	count int
	row   int
	cb    RowCallback
}

func newCursor(cb RowCallback) *cursor {
	return &cursor{count: -1, row: -1, cb: cb}
}

// bind takes ownership of a find result and positions the cursor on its
// first row.
func (cu *cursor) bind(res *resultSet) {
	cu.res = res
	cu.count = res.count()
	cu.row = 0
}

// destroy releases the result set. Safe to call after a find that never
// bound one.
func (cu *cursor) destroy() {
	if cu.res != nil {
		cu.res.release()
		cu.res = nil
	}
}

// cursorNext fetches the next row into h's payload. Returns OpOK with the
// cursor advanced, OpError if the row could not be decoded (the caller
// must stop iterating), or OpNoRows once the set is exhausted; after
// exhaustion it never touches the backend again.
func (c *Conn) cursorNext(ctx context.Context, cu *cursor, h *ObjectHandle) OpResult {
	if cu.row < cu.count {
		ret := c.stores[h.Kind].next(ctx, c, cu, h)
		cu.row++
		return ret
	}
	return OpNoRows
}

// Search runs the kind's find query for h, then drives the cursor to
// exhaustion, invoking cb with the handle populated for each row. cb
// reports whether the row was accepted; only accepted rows count toward
// the returned total.
//
// Returns -1 if the find itself failed; no rows are fetched in that case.
// A row-fetch failure mid-iteration stops the scan and returns the rows
// accepted so far. The cursor and its backend result set are destroyed
// before Search returns on every exit path.
func (c *Conn) Search(ctx context.Context, h *ObjectHandle, opts *QueryOptions, cb RowCallback) int {
	cu := newCursor(cb)
	defer cu.destroy()

	if ret := c.stores[h.Kind].find(ctx, c, cu, h, opts); ret == OpError {
		recordOp(h.Kind, "find", OpError)
		return -1
	}
	total := 0
	outcome := OpOK
	for {
		rc := c.cursorNext(ctx, cu, h)
		if rc == OpError {
			outcome = OpError
			break
		}
		if rc != OpOK {
			break
		}
		if cb(h) {
			total++
		}
	}
	recordOp(h.Kind, "find", outcome)
	return total
}
