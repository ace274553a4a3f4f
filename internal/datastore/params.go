package datastore

import (
	"github.com/google/uuid"
)

// paramBuffer holds the positional parameter values for the next prepared
// statement call on a connection. Exactly one buffer is live per
// connection: a store must fully execute one prepared call, which drains
// the buffer, before binding values for the next. Concurrent binders are a
// data race by construction; the datastore is single-threaded (see the
// package comment).
type paramBuffer struct {
	values []any
}

func newParamBuffer() *paramBuffer {
	return &paramBuffer{values: make([]any, 0, 16)}
}

// bind replaces the buffer contents with vals.
func (b *paramBuffer) bind(vals ...any) {
	b.values = b.values[:0]
	b.values = append(b.values, vals...)
}

// take drains the buffer and returns the values for execution. The
// returned slice must not alias the buffer's backing array: the driver
// may hold the arguments while the next statement is already binding.
func (b *paramBuffer) take() []any {
	vals := b.values
	b.values = make([]any, 0, 16)
	return vals
}

func (b *paramBuffer) len() int {
	return len(b.values)
}

// transactionContext is per-connection scratch state reserved for future
// transactional batching of saves. Nothing populates it yet beyond an
// identity used in log lines.
type transactionContext struct {
	id    uuid.UUID
	depth int
}

func newTransactionContext() *transactionContext {
	return &transactionContext{id: uuid.New()}
}
