package channel

import (
	"context"

	"github.com/go-kit/log/level"

	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/metrics"
	"github.com/plexusrt/plexus/nodectl/proto"
)

// Run drives the channel over the transport until it closes: it performs
// the handshake, then pumps messages between the transport and the
// channel buffers. Both endpoints call Run on their end of the stream.
// It returns nil after a graceful drain and the closing error otherwise.
func (c *Channel) Run(ctx context.Context, t Transport) error {
	if err := c.handshake(t); err != nil {
		c.closeWith(err, true)
		return err
	}

	go c.writeLoop(t)

	type recvResult struct {
		msg *proto.Message
		err error
	}

	recvCh := make(chan recvResult)

	go func() {
		for {
			msg, err := t.Recv()

			select {
			case recvCh <- recvResult{msg, err}:
			case <-c.closed:
				return
			}

			if err != nil {
				return
			}
		}
	}()

	var (
		selfDrained, peerDrained bool

		drainDone = c.drainDone
	)

	for {
		select {
		case <-ctx.Done():
			err := ecode.Wrap(ecode.CodeTransportFailure, ctx.Err(), "channel context canceled")
			c.closeWith(err, true)

			return err

		case <-c.closed:
			return c.closeErr

		case <-drainDone:
			selfDrained = true
			drainDone = nil

			if peerDrained {
				c.closeWith(nil, false)
				return nil
			}

		case r := <-recvCh:
			if r.err != nil {
				if selfDrained && peerDrained {
					c.closeWith(nil, false)
					return nil
				}

				err := ecode.Wrap(ecode.CodeTransportFailure, r.err, "channel transport failed")
				c.closeWith(err, true)

				return err
			}

			switch r.msg.Kind {
			case proto.MessageKind_MESSAGE_KIND_DATA:
				metrics.MessagesReceived.Inc()

				select {
				case c.inbound <- r.msg:
				case <-c.closed:
					return c.closeErr
				}

			case proto.MessageKind_MESSAGE_KIND_ACK:
				c.releaseCredits(r.msg.AckSeq)

			case proto.MessageKind_MESSAGE_KIND_DRAIN:
				peerDrained = true

				if selfDrained {
					c.closeWith(nil, false)
					return nil
				}

			default:
				level.Warn(c.conf.Logger).Log(
					"msg", "ignoring channel message of unexpected kind",
					"channel_id", c.id,
					"kind", r.msg.Kind,
				)
			}
		}
	}
}

func (c *Channel) handshake(t Transport) error {
	hello := &proto.Message{
		Kind:            proto.MessageKind_MESSAGE_KIND_HELLO,
		NodeId:          c.conf.NodeID,
		ClusterName:     c.conf.ClusterName,
		ProtocolVersion: ProtocolVersion,
	}

	if err := t.Send(hello); err != nil {
		return ecode.Wrap(ecode.CodeTransportFailure, err, "handshake send failed")
	}

	msg, err := t.Recv()
	if err != nil {
		return ecode.Wrap(ecode.CodeTransportFailure, err, "handshake recv failed")
	}

	if msg.Kind != proto.MessageKind_MESSAGE_KIND_HELLO {
		return ecode.Newf(ecode.CodeTransportFailure,
			"expected HELLO during handshake, got %s", msg.Kind)
	}

	if c.conf.ClusterName != "" && msg.ClusterName != c.conf.ClusterName {
		return ecode.Newf(ecode.CodeClusterMismatch,
			"peer %q belongs to cluster %q, not %q", msg.NodeId, msg.ClusterName, c.conf.ClusterName)
	}

	c.peer = PeerInfo{
		NodeID:          msg.NodeId,
		ClusterName:     msg.ClusterName,
		ProtocolVersion: msg.ProtocolVersion,
	}

	c.state.CompareAndSwap(int32(Connecting), int32(Open))
	close(c.opened)

	metrics.ChannelsActive.Inc()

	level.Debug(c.conf.Logger).Log(
		"msg", "channel open",
		"channel_id", c.id,
		"peer", msg.NodeId,
	)

	return nil
}

// writeLoop owns the transport's send side: it flushes queued data
// messages, acknowledgements and the drain notice.
func (c *Channel) writeLoop(t Transport) {
	var (
		drainRequested bool
		drainSent      bool
		drainCh        = c.drainCh
	)

	for {
		// Sends are rejected once a drain is requested, so an empty queue
		// here is final: notify the peer and report the flush.
		if drainRequested && !drainSent && len(c.outbound) == 0 {
			if err := t.Send(&proto.Message{Kind: proto.MessageKind_MESSAGE_KIND_DRAIN}); err != nil {
				c.closeWith(ecode.Wrap(ecode.CodeTransportFailure, err, "channel transport failed"), true)
				return
			}

			drainSent = true

			close(c.drainDone)
		}

		select {
		case <-c.closed:
			return

		case <-drainCh:
			drainRequested = true
			drainCh = nil

		case <-c.ackNudge:
			ack := &proto.Message{
				Kind:   proto.MessageKind_MESSAGE_KIND_ACK,
				AckSeq: c.consumed.Load(),
			}

			if err := t.Send(ack); err != nil {
				c.closeWith(ecode.Wrap(ecode.CodeTransportFailure, err, "channel transport failed"), true)
				return
			}

		case msg := <-c.outbound:
			if err := t.Send(msg); err != nil {
				c.closeWith(ecode.Wrap(ecode.CodeTransportFailure, err, "channel transport failed"), true)
				return
			}

			metrics.MessagesSent.Inc()
		}
	}
}

// releaseCredits returns send window slots for every newly acknowledged
// message. Only the Run goroutine calls this.
func (c *Channel) releaseCredits(ackSeq uint64) {
	for c.acked < ackSeq {
		c.acked++

		select {
		case c.credits <- struct{}{}:
		default:
		}
	}
}
