package query

import (
	"context"
	"errors"
	"fmt"
	"io"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/metrics"
)

// Gateway turns engine results into frame streams. It consults the
// metadata store only to annotate errors with the versions the node was
// at when the query failed.
type Gateway struct {
	engine Engine
	meta   *metadata.Store
	logger kitlog.Logger
}

func NewGateway(engine Engine, meta *metadata.Store, logger kitlog.Logger) *Gateway {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	return &Gateway{
		engine: engine,
		meta:   meta,
		logger: logger,
	}
}

// Query starts the query on the engine and returns its frame stream. The
// stream is lazy, finite, single-consumer and cancellable: closing it (or
// canceling ctx) cancels the outstanding engine work.
func (g *Gateway) Query(ctx context.Context, q string) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	res, err := g.engine.Query(ctx, q)
	if err != nil {
		cancel()
		metrics.QueryFailures.Inc()

		return nil, g.annotate(err, "storage query rejected")
	}

	return &Stream{
		id:      uuid.NewString(),
		gateway: g,
		res:     res,
		cancel:  cancel,
	}, nil
}

// annotate wraps an engine failure with the stable code and the current
// metadata versions, so operators can correlate the failure with the
// cluster configuration it happened under.
func (g *Gateway) annotate(err error, msg string) error {
	versions := g.meta.CurrentVersions()

	return ecode.Wrap(ecode.CodeStorageQuery, err,
		fmt.Sprintf("%s (nodes_config=%d logs=%d schema=%d partition_table=%d)",
			msg, versions.NodesConfig, versions.Logs, versions.Schema, versions.PartitionTable))
}

// Stream yields the frames of one query: the header frame first, then
// the data frames. A mid-stream engine failure surfaces as a terminal
// error; frames delivered before it remain valid and are not retracted.
type Stream struct {
	id      string
	gateway *Gateway
	res     Result
	cancel  context.CancelFunc

	sentHeader bool
	terminal   error
}

// ID identifies the in-flight query instance.
func (s *Stream) ID() string { return s.id }

// Next returns the next frame. It returns io.EOF once the finite result
// set is exhausted, after which the stream is closed.
func (s *Stream) Next(ctx context.Context) (Frame, error) {
	if s.terminal != nil {
		return Frame{}, s.terminal
	}

	if !s.sentHeader {
		s.sentHeader = true
		metrics.QueryFrames.Inc()

		// An engine may legitimately have no schema to describe; the
		// header frame still exists, just with empty bytes.
		header := s.res.Schema()
		if header == nil {
			header = []byte{}
		}

		return Frame{Header: header}, nil
	}

	row, err := s.res.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.finish(io.EOF)
			return Frame{}, io.EOF
		}

		metrics.QueryFailures.Inc()
		s.finish(s.gateway.annotate(err, "storage query failed mid-stream"))

		level.Warn(s.gateway.logger).Log(
			"msg", "storage query failed",
			"query_id", s.id,
			"err", err,
		)

		return Frame{}, s.terminal
	}

	metrics.QueryFrames.Inc()

	return Frame{Data: row}, nil
}

// Close cancels any outstanding engine work. Safe to call at any point;
// a consumer that stops reading early must call it.
func (s *Stream) Close() error {
	s.finish(ErrStreamClosed)
	return nil
}

// ErrStreamClosed is the terminal error of a stream abandoned by its
// consumer.
var ErrStreamClosed = errors.New("query stream closed")

func (s *Stream) finish(terminal error) {
	if s.terminal != nil {
		return
	}

	s.terminal = terminal
	s.cancel()

	_ = s.res.Close()
}
