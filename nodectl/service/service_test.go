package service_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/cluster"
	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/internal/grpcutil"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/nodectl"
	"github.com/plexusrt/plexus/nodectl/proto"
	"github.com/plexusrt/plexus/nodectl/service"
	"github.com/plexusrt/plexus/query"
	"github.com/plexusrt/plexus/query/memengine"
)

type staticMembership struct {
	self cluster.Node
	name string
}

func (m *staticMembership) Self() cluster.Node { return m.self }
func (m *staticMembership) Name() string       { return m.name }

func newService(t *testing.T, accept service.Acceptor) (*service.NodeCtrlService, *metadata.Store) {
	t.Helper()

	meta := metadata.NewStore()
	membership := &staticMembership{
		self: cluster.Node{
			ID:    "srv",
			Name:  "server-node",
			Roles: []cluster.Role{cluster.RoleWorker},
		},
		name: "alpha",
	}

	engine := memengine.New()
	engine.Register("orders", []byte(`{"columns":["id"]}`), [][]byte{
		[]byte(`{"id":1}`),
		[]byte(`{"id":2}`),
	})

	svc := service.New(
		nodectl.NewIdentReader(membership, meta, time.Now()),
		query.NewGateway(engine, meta, nil),
		channel.NewRegistry(),
		channel.Config{NodeID: "srv", ClusterName: "alpha"},
		accept,
		nil,
	)

	return svc, meta
}

func TestService_GetIdent(t *testing.T) {
	svc, meta := newService(t, nil)
	meta.SetStatus(metadata.Worker, metadata.StatusActive)
	meta.Bump(metadata.Schema)

	resp, err := svc.GetIdent(context.Background(), &proto.IdentRequest{})
	require.NoError(t, err)

	assert.Equal(t, "srv", resp.NodeId)
	assert.Equal(t, "alpha", resp.ClusterName)
	assert.Equal(t, []string{"worker"}, resp.Roles)
	assert.Equal(t, proto.ComponentStatus_COMPONENT_STATUS_ACTIVE, resp.WorkerStatus)
	assert.Equal(t, uint64(1), resp.SchemaVersion)
}

type queryStream struct {
	grpc.ServerStream
	ctx  context.Context
	sent []*proto.QueryResponse
}

func (s *queryStream) Context() context.Context { return s.ctx }

func (s *queryStream) Send(m *proto.QueryResponse) error {
	s.sent = append(s.sent, m)
	return nil
}

func TestService_QueryStorage(t *testing.T) {
	svc, _ := newService(t, nil)
	stream := &queryStream{ctx: context.Background()}

	err := svc.QueryStorage(&proto.QueryRequest{Query: "orders"}, stream)
	require.NoError(t, err)

	require.Len(t, stream.sent, 3)
	assert.Equal(t, proto.FrameKind_FRAME_KIND_HEADER, stream.sent[0].Kind)
	assert.Equal(t, []byte(`{"columns":["id"]}`), stream.sent[0].Header)
	assert.Equal(t, proto.FrameKind_FRAME_KIND_DATA, stream.sent[1].Kind)
	assert.Equal(t, []byte(`{"id":1}`), stream.sent[1].Data)
	assert.Equal(t, []byte(`{"id":2}`), stream.sent[2].Data)
}

func TestService_QueryStorageUnknownTable(t *testing.T) {
	svc, _ := newService(t, nil)
	stream := &queryStream{ctx: context.Background()}

	err := svc.QueryStorage(&proto.QueryRequest{Query: "missing"}, stream)
	require.Error(t, err)

	assert.Equal(t, codes.Unavailable, grpcutil.ErrorCode(err))

	code, ok := grpcutil.StableCode(err)
	require.True(t, ok)
	assert.Equal(t, ecode.CodeStorageQuery, code)
	assert.Empty(t, stream.sent)
}

// bidiStream fakes the server end of the connection stream and hands the
// mirrored end to an in-process client.
type bidiStream struct {
	grpc.ServerStream
	ctx context.Context

	toClient chan *proto.Message
	toServer chan *proto.Message

	closed chan struct{}
	once   sync.Once
}

func newBidiStream(ctx context.Context) *bidiStream {
	return &bidiStream{
		ctx:      ctx,
		toClient: make(chan *proto.Message, 128),
		toServer: make(chan *proto.Message, 128),
		closed:   make(chan struct{}),
	}
}

func (s *bidiStream) Context() context.Context { return s.ctx }

func (s *bidiStream) Send(m *proto.Message) error {
	select {
	case s.toClient <- m:
		return nil
	case <-s.closed:
		return io.ErrClosedPipe
	}
}

func (s *bidiStream) Recv() (*proto.Message, error) {
	select {
	case m := <-s.toServer:
		return m, nil
	case <-s.closed:
		return nil, io.ErrClosedPipe
	}
}

// clientEnd is the mirrored transport given to the client channel.
type clientEnd struct {
	stream *bidiStream
}

func (c *clientEnd) Send(m *proto.Message) error {
	select {
	case c.stream.toServer <- m:
		return nil
	case <-c.stream.closed:
		return io.ErrClosedPipe
	}
}

func (c *clientEnd) Recv() (*proto.Message, error) {
	select {
	case m := <-c.stream.toClient:
		return m, nil
	case <-c.stream.closed:
		return nil, io.ErrClosedPipe
	}
}

func TestService_CreateConnectionEcho(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	echo := func(ch *channel.Channel) {
		payload, err := ch.Recv(ctx)
		if err != nil {
			return
		}

		if err := ch.Send(ctx, payload); err != nil {
			return
		}

		ch.Drain()
	}

	svc, _ := newService(t, echo)
	stream := newBidiStream(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- svc.CreateConnection(stream)
	}()

	client := channel.New(channel.Config{NodeID: "cli", ClusterName: "alpha"})

	clientErr := make(chan error, 1)
	go func() {
		clientErr <- client.Run(ctx, &clientEnd{stream})
	}()

	require.NoError(t, client.Send(ctx, []byte("ping")))

	payload, err := client.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), payload)

	client.Drain()

	select {
	case err := <-clientErr:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("client did not close in time")
	}

	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("server did not close in time")
	}

	assert.Equal(t, "srv", client.Peer().NodeID)
}

func TestService_CreateConnectionClusterMismatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc, _ := newService(t, nil)
	stream := newBidiStream(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- svc.CreateConnection(stream)
	}()

	client := channel.New(channel.Config{NodeID: "cli", ClusterName: "beta"})

	clientErr := make(chan error, 1)
	go func() {
		clientErr <- client.Run(ctx, &clientEnd{stream})
	}()

	select {
	case err := <-serverErr:
		require.Error(t, err)

		code, ok := grpcutil.StableCode(err)
		require.True(t, ok)
		assert.Equal(t, ecode.CodeClusterMismatch, code)
	case <-ctx.Done():
		t.Fatal("server did not refuse in time")
	}

	cancel()
	<-clientErr
}
