// Package nodeclient defines the client-side view of a remote node's
// control endpoint. The grpc subpackage provides the concrete transport.
package nodeclient

import (
	"context"

	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/nodectl"
	"github.com/plexusrt/plexus/query"
)

// QueryStream iterates a remote storage query result set. Recv returns
// the header frame first, then data frames, then io.EOF.
type QueryStream interface {
	Recv() (query.Frame, error)
	Close() error
}

// Conn is an open connection to a remote node's control endpoint.
type Conn interface {
	// Ident fetches the remote node's identity snapshot.
	Ident(ctx context.Context) (nodectl.Ident, error)

	// Query runs a storage query on the remote node and streams the
	// result set back.
	Query(ctx context.Context, q string) (QueryStream, error)

	// OpenChannel establishes a duplex node channel to the remote node.
	// It returns once the handshake completed.
	OpenChannel(ctx context.Context) (*channel.Channel, error)

	// IsClosed returns true once the connection was torn down and can no
	// longer be used.
	IsClosed() bool

	// Close tears the connection down, along with every stream opened
	// through it.
	Close() error
}

// Dialer establishes a connection with a node's control endpoint.
type Dialer func(ctx context.Context, addr string) (Conn, error)

// ReconcileVersions fetches the remote node's identity and merges the
// version counters it advertises into the local store. Counters only
// move forward: a peer lagging behind never rolls the local view back.
func ReconcileVersions(ctx context.Context, conn Conn, meta *metadata.Store) (nodectl.Ident, error) {
	ident, err := conn.Ident(ctx)
	if err != nil {
		return nodectl.Ident{}, err
	}

	meta.Witness(metadata.NodesConfig, ident.Versions.NodesConfig)
	meta.Witness(metadata.Logs, ident.Versions.Logs)
	meta.Witness(metadata.Schema, ident.Versions.Schema)
	meta.Witness(metadata.PartitionTable, ident.Versions.PartitionTable)

	return ident, nil
}
