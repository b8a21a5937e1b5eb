// Package testutil provides a fake database/sql driver serving the snapshot
// store's state table: one JSON payload per bucket.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// StateConn is a single fake connection. Upserts made inside a transaction
// become visible only on commit.
type StateConn struct {
	mu      sync.Mutex
	execs   []string
	buckets map[string][]byte
	pending map[string][]byte

	FailPing   bool
	FailBegin  bool
	FailCommit bool
	FailSelect bool
	// FailUpsert makes the upsert of the named buckets fail.
	FailUpsert map[string]bool
	// RowsErr is returned after the last selected row.
	RowsErr error
}

var driverSeq atomic.Int64

// NewStateDB registers a fresh driver and returns a sql.DB bound to it.
func NewStateDB() (*sql.DB, *StateConn) {
	conn := &StateConn{buckets: make(map[string][]byte)}
	name := fmt.Sprintf("housing-state-%d", driverSeq.Add(1))
	sql.Register(name, stateDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Execs returns every statement executed so far.
func (c *StateConn) Execs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.execs...)
}

// Buckets returns the committed bucket names in sorted order.
func (c *StateConn) Buckets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.buckets))
	for name := range c.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Payload returns the committed payload of bucket.
func (c *StateConn) Payload(bucket string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.buckets[bucket]
	return p, ok
}

// Put commits a payload directly, bypassing SQL.
func (c *StateConn) Put(bucket string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucket] = append([]byte(nil), payload...)
}

type stateDriver struct{ conn *StateConn }

func (d stateDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn; the store never prepares statements.
func (c *StateConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

// Close implements driver.Conn.
func (c *StateConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StateConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StateConn) Ping(context.Context) error {
	if c.FailPing {
		return errors.New("ping failed")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StateConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, errors.New("begin failed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = make(map[string][]byte)
	return stateTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext for the table DDL and the
// bucket upsert.
func (c *StateConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(upper, "INSERT INTO STATE"):
		if len(args) != 2 {
			return nil, fmt.Errorf("upsert wants 2 args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket must be a string, got %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload must be bytes, got %T", args[1].Value)
		}
		if c.FailUpsert[bucket] {
			return nil, fmt.Errorf("upsert %s failed", bucket)
		}
		target := c.buckets
		if c.pending != nil {
			target = c.pending
		}
		target[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("unsupported statement: %s", query)
}

// QueryContext implements driver.QueryerContext for "SELECT bucket, payload FROM state".
func (c *StateConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	lower := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	if lower != "select bucket, payload from state" {
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
	if c.FailSelect {
		return nil, errors.New("select failed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.buckets))
	for name := range c.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := &stateRows{err: c.RowsErr}
	for _, name := range names {
		rows.rows = append(rows.rows, [2]driver.Value{name, append([]byte(nil), c.buckets[name]...)})
	}
	return rows, nil
}

type stateTx struct{ conn *StateConn }

func (t stateTx) Commit() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.pending = nil }()
	if c.FailCommit {
		return errors.New("commit failed")
	}
	for bucket, payload := range c.pending {
		c.buckets[bucket] = payload
	}
	return nil
}

func (t stateTx) Rollback() error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.pending = nil
	return nil
}

type stateRows struct {
	rows [][2]driver.Value
	idx  int
	err  error
}

func (r *stateRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stateRows) Close() error      { return nil }

func (r *stateRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	dest[0], dest[1] = r.rows[r.idx][0], r.rows[r.idx][1]
	r.idx++
	return nil
}
