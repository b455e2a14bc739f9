// Package memengine is an in-memory storage engine implementing the
// query gateway contract. It serves a fixed catalog of named result sets
// and is used by tests and as the default engine of a standalone node.
package memengine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/zhangyunhao116/skipmap"

	"github.com/plexusrt/plexus/query"
)

// Table is one queryable result set: a schema descriptor and the encoded
// rows it describes.
type Table struct {
	Schema []byte
	Rows   [][]byte
}

type Engine struct {
	tables *skipmap.StringMap[*Table]
}

func New() *Engine {
	return &Engine{
		tables: skipmap.NewString[*Table](),
	}
}

// Register adds a named result set to the catalog. Later registrations
// under the same name replace earlier ones.
func (e *Engine) Register(name string, schema []byte, rows [][]byte) {
	e.tables.Store(name, &Table{Schema: schema, Rows: rows})
}

// Query resolves the query string as a catalog name.
func (e *Engine) Query(ctx context.Context, q string) (query.Result, error) {
	table, ok := e.tables.Load(strings.TrimSpace(q))
	if !ok {
		return nil, fmt.Errorf("unknown result set %q", q)
	}

	return &result{ctx: ctx, table: table}, nil
}

type result struct {
	ctx   context.Context
	table *Table
	pos   int
}

func (r *result) Schema() []byte {
	return r.table.Schema
}

func (r *result) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.ctx.Done():
		return nil, r.ctx.Err()
	default:
	}

	if r.pos >= len(r.table.Rows) {
		return nil, io.EOF
	}

	row := r.table.Rows[r.pos]
	r.pos++

	return row, nil
}

func (r *result) Close() error {
	return nil
}
