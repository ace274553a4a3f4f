package datastore

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FailCode classifies connection- and credential-level failures. Codes are
// returned to the immediate caller, which is expected to surface the
// translated message to the operator.
type FailCode int

const (
	FailNone FailCode = iota
	// FailNoMem is kept for message parity with older tooling; the Go
	// runtime has no recoverable allocation-failure path that raises it.
	FailNoMem
	FailAuth
	FailAuthRetrieval
	FailConnRefused
	FailStillStarting
	FailConnFailed
	// FailInternal means pre-registration of the prepared statements
	// failed after a healthy connect. This is unrecoverable and escalates
	// to stopping the backend service.
	FailInternal
	FailHostResolution
	// FailBackend is a statement-level failure; its message is the most
	// recent cached backend diagnostic rather than a fixed string.
	FailBackend
	FailInvalidArgument
)

// Message translates a code to its fixed human-readable string. FailBackend
// has no fixed string; use Conn.TranslateError to read the cached detail.
func (c FailCode) Message() string {
	switch c {
	case FailStillStarting:
		return "dataservice is still starting up"
	case FailAuth:
		return "dataservice authentication failed"
	case FailAuthRetrieval:
		return "failed to retrieve dataservice credentials"
	case FailNoMem:
		return "out of memory in connect"
	case FailConnRefused:
		return "dataservice not running"
	case FailConnFailed:
		return "failed to connect to dataservice"
	case FailHostResolution:
		return "could not resolve dataservice host"
	case FailInternal:
		return "dataservice internal error"
	case FailInvalidArgument:
		return "invalid connection handle"
	case FailBackend:
		return ""
	}
	return "dataservice error"
}

// FailError is the error type carrying a FailCode out of Connect and the
// other connection-level entry points.
type FailError struct {
	Code   FailCode
	Detail string
}

func (e *FailError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code.Message(), e.Detail)
	}
	return e.Code.Message()
}

func failf(code FailCode, format string, args ...any) *FailError {
	return &FailError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeFromError recovers the FailCode from an error chain. Errors without
// an embedded code map to FailConnFailed, nil maps to FailNone.
func CodeFromError(err error) FailCode {
	if err == nil {
		return FailNone
	}
	var fe *FailError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return FailConnFailed
}

// ConnectionError is the cached statement-level diagnostic. It is
// overwritten on every new failure on the same connection and must be read
// before the next statement executes.
type ConnectionError struct {
	Code   FailCode
	Detail string
}

// classifyConnError assigns a failure code by substring match on the
// backend's diagnostic text. Connection-establishment problems reach the
// client as free text only, so no SQLSTATE is available here. A nil
// error (i.e. no session at all) classifies as FailConnFailed.
func classifyConnError(err error) FailCode {
	if err == nil {
		return FailConnFailed
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Connection refused") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "No such file or directory"):
		return FailConnRefused
	case strings.Contains(msg, "authentication"):
		return FailAuth
	case strings.Contains(msg, "database system is starting up"):
		return FailStillStarting
	}
	return FailConnFailed
}
