package datastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/openbatchproject/openbatch/internal/datastore/configuration"
)

// backendConn is the slice of the driver connection surface the datastore
// uses. *pgx.Conn implements it; tests substitute a scripted fake.
type backendConn interface {
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
	IsClosed() bool
}

type dialer func(ctx context.Context, descriptor string) (backendConn, error)

func pgxDial(ctx context.Context, descriptor string) (backendConn, error) {
	conn, err := pgx.Connect(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Connector opens datastore connections for one configured data service.
type Connector struct {
	Config configuration.DatastoreConfig
	// Control is consulted only on the unrecoverable path where statement
	// pre-registration fails after a healthy connect; the datastore then
	// actively stops the backend service. Defaults to PgCtl.
	Control ServiceController

	dial dialer
}

// Conn is one open session with the data service. It owns the parameter
// buffer and transaction scratch state for that session and caches the
// most recent statement-level diagnostic. It is designed for a single
// synchronous consumer; see the package comment.
type Conn struct {
	backend backendConn
	params  *paramBuffer
	trx     *transactionContext
	lastErr *ConnectionError
	// paramCounts records the declared parameter count of each prepared
	// statement, checked against the bound buffer at execution time.
	paramCounts map[string]int
	stores      [numEntityKinds]objectStore
}

// Connect opens a session with the data service: it builds the connection
// descriptor (retrieving and then scrubbing the account secret), dials the
// backend, classifies any failure, and pre-registers the prepared
// statement set of every entity store.
//
// Failures carry a FailCode recoverable via CodeFromError. A statement
// pre-registration failure is programmatic and unrecoverable: the backend
// service is stopped and FailInternal returned.
func (cn *Connector) Connect(ctx context.Context) (*Conn, error) {
	c, err := cn.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.prepareAll(ctx); err != nil {
		log.WithField("trx", c.trx.id).Errorf("statement pre-registration failed, stopping dataservice: %v", err)
		if serr := cn.Control.Stop(ctx); serr != nil {
			log.Warnf("could not stop dataservice: %v", serr)
		}
		_ = c.backend.Close(ctx)
		return nil, &FailError{Code: FailInternal, Detail: err.Error()}
	}
	return c, nil
}

// open dials the data service and classifies any failure, without
// registering the prepared statement set. Schema bootstrap uses it
// directly; everything else goes through Connect.
func (cn *Connector) open(ctx context.Context) (*Conn, error) {
	cfg := cn.Config
	cfg.ApplyDefaults()
	if cn.dial == nil {
		cn.dial = pgxDial
	}
	if cn.Control == nil {
		cn.Control = &PgCtl{Config: cfg.Control, Port: cfg.Port}
	}

	c := &Conn{
		params:      newParamBuffer(),
		trx:         newTransactionContext(),
		paramCounts: make(map[string]int),
		stores:      newStoreTable(),
	}

	descriptor, err := buildDescriptor(cfg)
	if err != nil {
		return nil, err
	}
	backend, dialErr := cn.dial(ctx, string(descriptor))
	scrub(descriptor)
	if dialErr != nil || backend == nil {
		code := classifyConnError(dialErr)
		detail := ""
		if dialErr != nil {
			detail = strings.TrimRight(dialErr.Error(), "\r\n")
		}
		return nil, &FailError{Code: code, Detail: detail}
	}
	c.backend = backend
	return c, nil
}

// prepareAll registers every entity store's statement set on the new
// session. All registration failures are reported together.
func (c *Conn) prepareAll(ctx context.Context) error {
	var result *multierror.Error
	for kind := EntityKind(0); kind < numEntityKinds; kind++ {
		if err := c.stores[kind].prepareStatements(ctx, c); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Disconnect closes the session and releases the parameter buffer and
// transaction state unconditionally. A nil handle is a caller error.
// Callers must not disconnect the same handle twice.
func (c *Conn) Disconnect(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return &FailError{Code: FailInvalidArgument}
	}
	err := c.backend.Close(ctx)
	c.backend = nil
	c.params = nil
	c.trx = nil
	if err != nil {
		return &FailError{Code: FailConnFailed, Detail: err.Error()}
	}
	return nil
}

// LastError returns the cached statement-level diagnostic, or nil. The
// cache is overwritten by the next failing statement on this connection.
func (c *Conn) LastError() *ConnectionError {
	return c.lastErr
}

// TranslateError maps a failure code to the message to surface to the
// operator. FailBackend carries no fixed string; its message is the most
// recent cached diagnostic, or empty if none is cached.
func (c *Conn) TranslateError(code FailCode) string {
	if code == FailBackend {
		if c != nil && c.lastErr != nil {
			return c.lastErr.Detail
		}
		return ""
	}
	return code.Message()
}

// setError caches a statement-level diagnostic, replacing any previous
// one. The backend message has trailing newlines trimmed and the SQLSTATE
// diagnostic code appended when the driver exposes one.
func (c *Conn) setError(what, subject string, err error) {
	msg := ""
	diag := ""
	if err != nil {
		msg = strings.TrimRight(err.Error(), "\r\n")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			diag = pgErr.Code
		}
	}
	c.lastErr = &ConnectionError{
		Code:   FailBackend,
		Detail: strings.TrimRight(fmt.Sprintf("%s %s failed: %s %s", what, subject, msg, diag), " "),
	}
	log.WithField("trx", c.trx.id).Debug(c.lastErr.Detail)
}
