package grpc

import (
	"context"
	"sync/atomic"

	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/internal/grpcutil"
	"github.com/plexusrt/plexus/internal/multierror"
	"github.com/plexusrt/plexus/nodeclient"
	"github.com/plexusrt/plexus/nodectl"
	"github.com/plexusrt/plexus/nodectl/proto"
	"github.com/plexusrt/plexus/query"
)

var (
	_ nodeclient.Conn = (*Client)(nil)
)

type Client struct {
	rpc     proto.NodeCtrlClient
	conf    Config
	onClose []func() error
	closed  uint32
}

func (c *Client) addOnCloseHook(f func() error) {
	c.onClose = append(c.onClose, f)
}

func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return nil // already closed
	}

	errs := multierror.New[int]()

	for idx, f := range c.onClose {
		if err := f(); err != nil {
			errs.Add(idx, err)
		}
	}

	return errs.Combined()
}

func (c *Client) IsClosed() bool {
	return atomic.LoadUint32(&c.closed) == 1
}

func (c *Client) Ident(ctx context.Context) (nodectl.Ident, error) {
	resp, err := c.rpc.GetIdent(ctx, &proto.IdentRequest{})
	if err != nil {
		return nodectl.Ident{}, convertError(err)
	}

	return nodectl.FromProto(resp), nil
}

func (c *Client) Query(ctx context.Context, q string) (nodeclient.QueryStream, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := c.rpc.QueryStorage(ctx, &proto.QueryRequest{Query: q})
	if err != nil {
		cancel()
		return nil, convertError(err)
	}

	return &queryStream{stream: stream, cancel: cancel}, nil
}

func (c *Client) OpenChannel(ctx context.Context) (*channel.Channel, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := c.rpc.CreateConnection(ctx)
	if err != nil {
		cancel()
		return nil, convertError(err)
	}

	ch := channel.New(channel.Config{
		NodeID:      c.conf.NodeID,
		ClusterName: c.conf.ClusterName,
		Window:      c.conf.Window,
		Logger:      c.conf.Logger,
	})

	go func() {
		_ = ch.Run(ctx, stream)
		cancel()
	}()

	if err := ch.WaitOpen(ctx); err != nil {
		// The half-open instance is unusable: tear it down along with
		// the stream instead of leaving it to the context.
		ch.Close()
		cancel()

		return nil, convertError(err)
	}

	return ch, nil
}

type queryStream struct {
	stream proto.NodeCtrl_QueryStorageClient
	cancel context.CancelFunc
}

func (s *queryStream) Recv() (query.Frame, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return query.Frame{}, convertError(err)
	}

	// The kind field tells the frames apart: an empty header is absent
	// from the wire, so header presence alone is not enough.
	if resp.Kind == proto.FrameKind_FRAME_KIND_HEADER {
		header := resp.Header
		if header == nil {
			header = []byte{}
		}

		return query.Frame{Header: header}, nil
	}

	return query.Frame{Data: resp.Data}, nil
}

func (s *queryStream) Close() error {
	s.cancel()
	return nil
}

// convertError resurfaces the stable code attached by the remote node,
// so callers can resolve it against the catalog without knowing the
// transport.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	if code, ok := grpcutil.StableCode(err); ok {
		return ecode.Wrap(code, err, "remote call failed")
	}

	return err
}
