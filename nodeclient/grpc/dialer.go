package grpc

import (
	"context"
	"fmt"

	kitlog "github.com/go-kit/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/plexusrt/plexus/nodeclient"
	"github.com/plexusrt/plexus/nodectl/proto"
)

// Config carries the local identity presented during channel handshakes.
type Config struct {
	NodeID      string
	ClusterName string

	// Window bounds in-flight channel messages per direction. Zero means
	// the channel default.
	Window int

	Logger kitlog.Logger
}

// Dial connects to a node's control endpoint.
func Dial(ctx context.Context, addr string, conf Config) (nodeclient.Conn, error) {
	creds := insecure.NewCredentials()

	grpcConn, err := grpc.DialContext(
		ctx,
		addr,
		grpc.WithBlock(),
		grpc.WithTransportCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial failed: %w", err)
	}

	c := &Client{
		rpc:  proto.NewNodeCtrlClient(grpcConn),
		conf: conf,
	}

	c.addOnCloseHook(func() error {
		return grpcConn.Close()
	})

	return c, nil
}

// Dialer returns a nodeclient.Dialer bound to the given identity.
func Dialer(conf Config) nodeclient.Dialer {
	return func(ctx context.Context, addr string) (nodeclient.Conn, error) {
		return Dial(ctx, addr, conf)
	}
}
