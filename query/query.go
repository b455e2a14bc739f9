// Package query implements the storage query gateway: it forwards a
// query string to the storage engine and streams back typed frames. The
// engine itself is an external collaborator, the gateway only owns the
// streaming contract above it.
package query

import (
	"context"
)

// Frame is one unit of a streamed query result: either the header frame
// carrying the schema of the result set, or a data frame carrying an
// opaque encoded row or chunk. Frames of one query are strictly ordered:
// exactly one header frame, then zero or more data frames.
type Frame struct {
	Header []byte
	Data   []byte
}

func (f Frame) IsHeader() bool {
	return f.Header != nil
}

// Engine executes a query and lazily produces its result. Implementations
// must stop producing once the passed context is canceled.
type Engine interface {
	Query(ctx context.Context, query string) (Result, error)
}

// Result is the lazy result set of one query. Not safe for concurrent
// use: a result belongs to exactly one consumer.
type Result interface {
	// Schema describes the rows that Next will produce.
	Schema() []byte

	// Next returns the next encoded row, or io.EOF when the result set is
	// exhausted.
	Next(ctx context.Context) ([]byte, error)

	Close() error
}
