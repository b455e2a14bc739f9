package channel_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/nodectl/proto"
)

// pipe is an in-memory duplex transport connecting two channel endpoints.
type pipe struct {
	out    chan *proto.Message
	in     chan *proto.Message
	closed chan struct{}
	once   *sync.Once
}

func newPipe() (*pipe, *pipe) {
	ab := make(chan *proto.Message, 128)
	ba := make(chan *proto.Message, 128)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &pipe{out: ab, in: ba, closed: closed, once: once}
	b := &pipe{out: ba, in: ab, closed: closed, once: once}

	return a, b
}

func (p *pipe) Send(m *proto.Message) error {
	select {
	case p.out <- m:
		return nil
	case <-p.closed:
		return io.ErrClosedPipe
	}
}

func (p *pipe) Recv() (*proto.Message, error) {
	select {
	case m := <-p.in:
		return m, nil
	case <-p.closed:
		return nil, io.ErrClosedPipe
	}
}

func (p *pipe) Close() {
	p.once.Do(func() { close(p.closed) })
}

func startPair(t *testing.T, confA, confB channel.Config) (*channel.Channel, *channel.Channel, *pipe) {
	t.Helper()

	ta, tb := newPipe()

	a := channel.New(confA)
	b := channel.New(confB)

	go func() { _ = a.Run(context.Background(), ta) }()
	go func() { _ = b.Run(context.Background(), tb) }()

	return a, b, ta
}

func TestChannel_OrderedDelivery(t *testing.T) {
	a, b, _ := startPair(t,
		channel.Config{NodeID: "n1", ClusterName: "test"},
		channel.Config{NodeID: "n2", ClusterName: "test"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const count = 100

	go func() {
		for i := 0; i < count; i++ {
			if err := a.Send(ctx, []byte(fmt.Sprintf("msg-%03d", i))); err != nil {
				return
			}
		}
	}()

	for i := 0; i < count; i++ {
		payload, err := b.Recv(ctx)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("msg-%03d", i), string(payload))
	}

	require.Equal(t, channel.Open, a.State())
	require.Equal(t, "n2", a.Peer().NodeID)
	require.Equal(t, "n1", b.Peer().NodeID)
}

func TestChannel_DuplexIndependentDirections(t *testing.T) {
	a, b, _ := startPair(t,
		channel.Config{NodeID: "n1", ClusterName: "test"},
		channel.Config{NodeID: "n2", ClusterName: "test"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Send(ctx, []byte("from-a")))
	require.NoError(t, b.Send(ctx, []byte("from-b")))

	fromA, err := b.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, "from-a", string(fromA))

	fromB, err := a.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, "from-b", string(fromB))
}

func TestChannel_GracefulDrain(t *testing.T) {
	a, b, _ := startPair(t,
		channel.Config{NodeID: "n1", ClusterName: "test"},
		channel.Config{NodeID: "n2", ClusterName: "test"},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Send(ctx, []byte("last-words")))

	// Wait for the message to be in flight before draining both sides.
	payload, err := b.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, "last-words", string(payload))

	a.Drain()

	// The peer has not drained yet, so the channel is still alive but
	// refuses new sends.
	require.ErrorIs(t, a.Send(ctx, []byte("too-late")), channel.ErrDraining)

	b.Drain()

	select {
	case <-a.Done():
	case <-ctx.Done():
		t.Fatal("channel a did not close after drain")
	}

	select {
	case <-b.Done():
	case <-ctx.Done():
		t.Fatal("channel b did not close after drain")
	}

	require.Equal(t, channel.Closed, a.State())
	require.NoError(t, a.Err())

	_, err = b.Recv(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestChannel_DisconnectDiscardsQueued(t *testing.T) {
	// The peer never acknowledges, so with a window of 1 every message
	// after the first stays queued on the sender.
	st := newStuckTransport()

	ch := channel.New(channel.Config{NodeID: "n1", ClusterName: "test", Window: 1})

	runDone := make(chan error, 1)
	go func() { runDone <- ch.Run(context.Background(), st) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, ch.Send(ctx, []byte("one")))

	// Transport disconnect while the message sits unsent.
	st.fail()

	select {
	case err := <-runDone:
		require.Error(t, err)

		code, ok := ecode.CodeOf(err)
		require.True(t, ok)
		require.Equal(t, ecode.CodeTransportFailure, code)
	case <-ctx.Done():
		t.Fatal("run did not return after disconnect")
	}

	require.Equal(t, channel.Closed, ch.State())

	// Queued messages are gone and the instance is unusable: a fresh
	// channel instance must be established, with no replay.
	err := ch.Send(ctx, []byte("two"))
	require.Error(t, err)

	_, err = ch.Recv(ctx)
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestChannel_BackpressureBlocksSender(t *testing.T) {
	// The peer consumes nothing, so the acknowledged window fills up and
	// the sender must block.
	a, _, _ := startPair(t,
		channel.Config{NodeID: "n1", ClusterName: "test", Window: 2},
		channel.Config{NodeID: "n2", ClusterName: "test", Window: 2},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Send(ctx, []byte("m1")))
	require.NoError(t, a.Send(ctx, []byte("m2")))

	blockedCtx, cancelBlocked := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelBlocked()

	err := a.Send(blockedCtx, []byte("m3"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_CloseWhileConnecting(t *testing.T) {
	ch := channel.New(channel.Config{NodeID: "n1", ClusterName: "test"})

	// The handshake never completed; an abrupt close must still reach
	// the terminal state and unblock waiters.
	ch.Close()

	require.Equal(t, channel.Closed, ch.State())

	err := ch.WaitOpen(context.Background())
	require.ErrorIs(t, err, channel.ErrClosed)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.ErrorIs(t, ch.Send(ctx, []byte("late")), channel.ErrClosed)
}

func TestChannel_ClusterMismatchRefused(t *testing.T) {
	ta, tb := newPipe()

	a := channel.New(channel.Config{NodeID: "n1", ClusterName: "alpha"})
	b := channel.New(channel.Config{NodeID: "n2", ClusterName: "beta"})

	errA := make(chan error, 1)
	go func() { errA <- a.Run(context.Background(), ta) }()
	go func() { _ = b.Run(context.Background(), tb) }()

	select {
	case err := <-errA:
		code, ok := ecode.CodeOf(err)
		require.True(t, ok)
		require.Equal(t, ecode.CodeClusterMismatch, code)
	case <-time.After(5 * time.Second):
		t.Fatal("handshake did not fail")
	}

	require.Equal(t, channel.Closed, a.State())
}

func TestRegistry_TracksUntilClosed(t *testing.T) {
	reg := channel.NewRegistry()

	a, b, _ := startPair(t,
		channel.Config{NodeID: "n1", ClusterName: "test"},
		channel.Config{NodeID: "n2", ClusterName: "test"},
	)

	reg.Track(a)
	require.Len(t, reg.List(), 1)

	a.Drain()
	b.Drain()

	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not close")
	}

	require.Eventually(t, func() bool {
		return len(reg.List()) == 0
	}, time.Second, 10*time.Millisecond)
}

// stuckTransport completes the handshake and then blocks every send
// until fail is called.
type stuckTransport struct {
	handshook bool
	recvCh    chan *proto.Message
	failed    chan struct{}
	once      sync.Once
}

func newStuckTransport() *stuckTransport {
	st := &stuckTransport{
		recvCh: make(chan *proto.Message, 1),
		failed: make(chan struct{}),
	}

	st.recvCh <- &proto.Message{
		Kind:        proto.MessageKind_MESSAGE_KIND_HELLO,
		NodeId:      "peer",
		ClusterName: "test",
	}

	return st
}

func (st *stuckTransport) Send(m *proto.Message) error {
	if m.Kind == proto.MessageKind_MESSAGE_KIND_HELLO {
		return nil
	}

	<-st.failed

	return errors.New("connection reset")
}

func (st *stuckTransport) Recv() (*proto.Message, error) {
	select {
	case m := <-st.recvCh:
		return m, nil
	case <-st.failed:
		return nil, errors.New("connection reset")
	}
}

func (st *stuckTransport) fail() {
	st.once.Do(func() { close(st.failed) })
}
