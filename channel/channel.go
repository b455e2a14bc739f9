// Package channel implements the duplex inter-node message stream. A
// channel owns the message sequencing and backpressure above a transport
// primitive; messages sent by one endpoint are received by the peer in
// send order, while the two directions are independent of each other.
package channel

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/metrics"
	"github.com/plexusrt/plexus/nodectl/proto"
)

// ProtocolVersion is advertised in the handshake. Bumped on incompatible
// changes to the message framing.
const ProtocolVersion uint32 = 1

const defaultWindow = 64

var (
	// ErrClosed is returned by Send and Recv once the channel reached its
	// terminal state.
	ErrClosed = ecode.New(ecode.CodeChannelClosed, "channel closed")

	// ErrDraining rejects new sends on a draining channel. In-flight
	// messages are still delivered.
	ErrDraining = errors.New("channel draining: no new sends accepted")
)

// Transport is the stream primitive beneath a channel. Both ends of a
// gRPC bidirectional stream satisfy it.
type Transport interface {
	Send(*proto.Message) error
	Recv() (*proto.Message, error)
}

// PeerInfo is the identity the peer presented during the handshake.
type PeerInfo struct {
	NodeID          string
	ClusterName     string
	ProtocolVersion uint32
}

type Config struct {
	// NodeID and ClusterName identify the local endpoint in the handshake.
	NodeID      string
	ClusterName string

	// Window bounds the number of unacknowledged messages in flight per
	// direction. Zero means the default.
	Window int

	Logger kitlog.Logger
}

// Channel is one duplex channel instance. Its send and receive buffers
// are owned exclusively by the instance; there is no cross-channel
// sharing and no cross-channel ordering guarantee.
type Channel struct {
	id   string
	conf Config

	state atomic.Int32

	opened chan struct{}
	peer   PeerInfo

	sendMu  sync.Mutex
	sendSeq uint64

	outbound chan *proto.Message
	inbound  chan *proto.Message
	credits  chan struct{}

	consumed atomic.Uint64
	ackNudge chan struct{}
	acked    uint64

	drainCh   chan struct{}
	drainOnce sync.Once
	drainDone chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func New(conf Config) *Channel {
	if conf.Window <= 0 {
		conf.Window = defaultWindow
	}

	if conf.Logger == nil {
		conf.Logger = kitlog.NewNopLogger()
	}

	c := &Channel{
		id:        uuid.NewString(),
		conf:      conf,
		opened:    make(chan struct{}),
		outbound:  make(chan *proto.Message, conf.Window),
		inbound:   make(chan *proto.Message, conf.Window),
		credits:   make(chan struct{}, conf.Window),
		ackNudge:  make(chan struct{}, 1),
		drainCh:   make(chan struct{}),
		drainDone: make(chan struct{}),
		closed:    make(chan struct{}),
	}

	for i := 0; i < conf.Window; i++ {
		c.credits <- struct{}{}
	}

	return c
}

// ID is the unique identifier of this channel instance.
func (c *Channel) ID() string { return c.id }

func (c *Channel) State() State { return State(c.state.Load()) }

// Peer returns the handshake identity of the remote endpoint. Valid once
// the channel left the Connecting state.
func (c *Channel) Peer() PeerInfo { return c.peer }

// Done is closed when the channel reaches its terminal state.
func (c *Channel) Done() <-chan struct{} { return c.closed }

// Err reports why the channel closed. Nil after a graceful drain.
func (c *Channel) Err() error {
	select {
	case <-c.closed:
		return c.closeErr
	default:
		return nil
	}
}

// WaitOpen blocks until the handshake completes. It returns the closing
// error if the channel dies before reaching the Open state.
func (c *Channel) WaitOpen(ctx context.Context) error {
	select {
	case <-c.opened:
		return nil
	case <-c.closed:
		return c.sendErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send queues an opaque payload for ordered delivery to the peer. It
// blocks while the channel is still connecting and while the receiver's
// acknowledged window is exhausted.
func (c *Channel) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.opened:
	case <-c.closed:
		return c.sendErr()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-c.credits:
	case <-c.drainCh:
		return ErrDraining
	case <-c.closed:
		return c.sendErr()
	case <-ctx.Done():
		return ctx.Err()
	}

	// The sequence number must match the enqueue order, so both happen
	// under one lock. The credit taken above guarantees buffer space.
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	select {
	case <-c.drainCh:
		return ErrDraining
	case <-c.closed:
		return c.sendErr()
	default:
	}

	c.sendSeq++

	c.outbound <- &proto.Message{
		Kind:    proto.MessageKind_MESSAGE_KIND_DATA,
		Seq:     c.sendSeq,
		Payload: payload,
	}

	return nil
}

// Recv returns the next payload sent by the peer, in send order. After a
// graceful close it keeps returning buffered in-flight messages and then
// io.EOF; after a disconnect it returns the transport error.
func (c *Channel) Recv(ctx context.Context) ([]byte, error) {
	for {
		select {
		case m := <-c.inbound:
			c.noteConsumed(m.Seq)
			return m.Payload, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.closed:
			select {
			case m := <-c.inbound:
				c.noteConsumed(m.Seq)
				return m.Payload, nil
			default:
			}

			if c.closeErr != nil {
				return nil, c.closeErr
			}

			return nil, io.EOF
		}
	}
}

// Drain initiates the graceful half-close: no new sends are accepted,
// queued messages are still delivered, and the channel closes once both
// endpoints have drained.
func (c *Channel) Drain() {
	c.drainOnce.Do(func() {
		// Taking sendMu serializes the drain against in-progress sends, so
		// no data message can be queued after the drain notice goes out.
		c.sendMu.Lock()
		defer c.sendMu.Unlock()

		c.state.CompareAndSwap(int32(Open), int32(Draining))
		close(c.drainCh)
	})
}

// Close tears the channel down immediately, discarding undelivered
// messages.
func (c *Channel) Close() {
	c.closeWith(ErrClosed, true)
}

func (c *Channel) sendErr() error {
	if c.closeErr != nil {
		return c.closeErr
	}

	return ErrClosed
}

func (c *Channel) noteConsumed(seq uint64) {
	if seq == 0 {
		return
	}

	c.consumed.Store(seq)

	select {
	case c.ackNudge <- struct{}{}:
	default:
	}
}

// closeWith transitions to Closed exactly once. When discard is set, the
// buffered messages of both directions are dropped (at-most-once
// delivery); a graceful close keeps the inbound buffer readable.
func (c *Channel) closeWith(err error, discard bool) {
	c.closeOnce.Do(func() {
		wasOpen := c.State() != Connecting

		c.closeErr = err
		c.state.Store(int32(Closed))
		close(c.closed)

		if discard {
			discarded := 0

			for {
				select {
				case <-c.outbound:
					discarded++
					continue
				case <-c.inbound:
					discarded++
					continue
				default:
				}

				break
			}

			if discarded > 0 {
				metrics.MessagesDiscarded.Add(float64(discarded))

				level.Debug(c.conf.Logger).Log(
					"msg", "discarded undelivered channel messages",
					"channel_id", c.id,
					"count", discarded,
				)
			}
		}

		if wasOpen {
			metrics.ChannelsActive.Dec()
		}
	})
}
