package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeConn answers queries with canned rows so the SQL paths run without Postgres.
type fakeConn struct {
	query func(query string, args []driver.NamedValue) (driver.Rows, error)
	exec  func(query string, args []driver.NamedValue) (driver.Result, error)

	queries []string
}

type fakeConnector struct{ conn *fakeConn }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c fakeConnector) Driver() driver.Driver                       { return fakeDriver{c.conn} }

type fakeDriver struct{ conn *fakeConn }

func (d fakeDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c *fakeConn) Close() error                       { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)          { return nil, errors.New("not implemented") }

func (c *fakeConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.queries = append(c.queries, compact(query))
	if c.query == nil {
		return nil, errors.New("unexpected query")
	}
	return c.query(query, args)
}

func (c *fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.queries = append(c.queries, compact(query))
	if c.exec == nil {
		return nil, errors.New("unexpected exec")
	}
	return c.exec(query, args)
}

type fakeRows struct {
	columns []string
	data    [][]driver.Value
	idx     int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.idx])
	r.idx++
	return nil
}

func openFakeDB(t *testing.T, conn *fakeConn) *sql.DB {
	t.Helper()
	db := sql.OpenDB(fakeConnector{conn: conn})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func compact(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
