package dump_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/partyzanex/sqldump/pkg/dump"
	"github.com/volatiletech/null"
)

func expectText(t *testing.T, actual, expected string) {
	t.Helper()

	if actual == expected {
		return
	}

	edits := myers.ComputeEdits(span.URIFromPath("expected"), expected, actual)
	t.Errorf("unexpected text:\n%s", fmt.Sprint(gotextdiff.ToUnified("expected", "actual", expected, edits)))
}

func value(s string) null.Bytes {
	return null.BytesFrom([]byte(s))
}

var nullValue = null.Bytes{}

type nullBytes = null.Bytes

type fakeResult struct {
	columns []dump.Column
	rows    [][]null.Bytes
	err     error
}

type fakeConn struct {
	relations []*dump.Table
	creates   map[string]*dump.Structure
	results   map[string]fakeResult
	failing   map[string]error

	queries  []string
	executed []string
	locked   bool
	unlocked bool
}

func (c *fakeConn) ListRelations(ctx context.Context, database string) ([]*dump.Table, error) {
	if err, ok := c.failing["list"]; ok {
		return nil, err
	}

	return c.relations, nil
}

func (c *fakeConn) ShowCreate(ctx context.Context, name string) (*dump.Structure, error) {
	if err, ok := c.failing["create:"+name]; ok {
		return nil, err
	}

	s, ok := c.creates[name]
	if !ok {
		return nil, fmt.Errorf("table %s doesn't exist", name)
	}

	return s, nil
}

func (c *fakeConn) Query(ctx context.Context, query string) (dump.Rows, error) {
	c.queries = append(c.queries, query)

	if err, ok := c.failing[query]; ok {
		return nil, err
	}

	result, ok := c.results[query]
	if !ok {
		return nil, fmt.Errorf("unexpected query %s", query)
	}

	return &fakeRows{result: result, pos: -1}, nil
}

func (c *fakeConn) Escape(value []byte) []byte {
	return dump.Escape(value)
}

func (c *fakeConn) Execute(ctx context.Context, query string) error {
	c.executed = append(c.executed, query)
	return nil
}

type lockingConn struct {
	*fakeConn
}

func (c lockingConn) LockTables(ctx context.Context) error {
	c.locked = true
	return nil
}

func (c lockingConn) UnlockTables(ctx context.Context) error {
	c.unlocked = true
	return nil
}

type fakeRows struct {
	result fakeResult
	pos    int
}

func (r *fakeRows) Columns() []dump.Column {
	return r.result.columns
}

func (r *fakeRows) Next() bool {
	if r.pos+1 >= len(r.result.rows) {
		return false
	}

	r.pos++

	return true
}

func (r *fakeRows) Values() ([]null.Bytes, error) {
	return r.result.rows[r.pos], nil
}

func (r *fakeRows) Err() error {
	return r.result.err
}

func (r *fakeRows) Close() error {
	return nil
}

// failingWriter fails every write after limit bytes.
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(b []byte) (int, error) {
	if w.n+len(b) > w.limit {
		return 0, fmt.Errorf("no space left on device")
	}

	w.n += len(b)

	return len(b), nil
}
