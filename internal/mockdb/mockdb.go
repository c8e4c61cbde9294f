// Package mockdb provides a query-recording SQL driver for tests.
//
// Each call to New registers an isolated instance, so parallel tests never
// see each other's statements.
package mockdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
)

const driverName = "grader-mockdb"

var (
	instances sync.Map
	seq       atomic.Int64
)

func init() {
	sql.Register(driverName, Driver{})
}

// ErrUnsupported is returned for operations a read-only store never performs.
var ErrUnsupported = errors.New("mockdb: unsupported operation")

// CapturedQuery is one statement as it reached the driver.
type CapturedQuery struct {
	Query string
	Args  []any
}

// Capture records every statement sent to an instance.
type Capture struct {
	mu      sync.Mutex
	queries []CapturedQuery
}

// Queries returns a copy of all recorded statements, oldest first.
func (c *Capture) Queries() []CapturedQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedQuery, len(c.queries))
	copy(out, c.queries)
	return out
}

// Last returns the most recently recorded statement.
func (c *Capture) Last() (CapturedQuery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queries) == 0 {
		return CapturedQuery{}, false
	}
	return c.queries[len(c.queries)-1], true
}

// Len returns the number of recorded statements.
func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

// Reset discards recorded statements.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = nil
}

func (c *Capture) add(query string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, CapturedQuery{Query: query, Args: args})
}

// Option configures an instance.
type Option func(*instance)

// WithQueryErr makes every query fail with err after being recorded.
func WithQueryErr(err error) Option {
	return func(in *instance) {
		in.err = err
	}
}

// WithRows makes every query return the given columns and rows.
func WithRows(columns []string, rows ...[]any) Option {
	return func(in *instance) {
		in.columns = columns
		in.rows = make([][]driver.Value, len(rows))
		for i, r := range rows {
			vals := make([]driver.Value, len(r))
			for j, v := range r {
				vals[j] = v
			}
			in.rows[i] = vals
		}
	}
}

type instance struct {
	capture *Capture
	err     error
	columns []string
	rows    [][]driver.Value
}

// New opens an isolated instance and returns it with its capture.
func New(opts ...Option) (*sqlx.DB, *Capture) {
	in := &instance{capture: &Capture{}}
	for _, opt := range opts {
		opt(in)
	}
	dsn := strconv.FormatInt(seq.Add(1), 10)
	instances.Store(dsn, in)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		panic("mockdb: open: " + err.Error())
	}
	return sqlx.NewDb(db, "sqlite3"), in.capture
}

// Driver resolves a DSN to its registered instance.
type Driver struct{}

// Open returns a connection to the instance named by dsn.
func (Driver) Open(dsn string) (driver.Conn, error) {
	v, ok := instances.Load(dsn)
	if !ok {
		return nil, errors.New("mockdb: unknown instance " + strconv.Quote(dsn))
	}
	return &conn{in: v.(*instance)}, nil
}

type conn struct {
	in *instance
}

func (*conn) Prepare(string) (driver.Stmt, error) { return nil, ErrUnsupported }
func (*conn) Close() error                        { return nil }
func (*conn) Begin() (driver.Tx, error)           { return nil, ErrUnsupported }

// QueryContext records the statement and returns the configured result.
func (c *conn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a.Value
	}
	c.in.capture.add(query, vals)
	if c.in.err != nil {
		return nil, c.in.err
	}
	return &rows{columns: c.in.columns, data: c.in.rows}, nil
}

type rows struct {
	columns []string
	data    [][]driver.Value
	pos     int
}

func (r *rows) Columns() []string {
	if r.columns == nil {
		return []string{}
	}
	return r.columns
}

func (*rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}
