package service

import (
	"context"
	"errors"
	"io"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc/codes"

	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/internal/grpcutil"
	"github.com/plexusrt/plexus/nodectl"
	"github.com/plexusrt/plexus/nodectl/proto"
	"github.com/plexusrt/plexus/query"
)

// Acceptor consumes an accepted node channel. It runs on its own
// goroutine; the channel is closed under it when the peer disconnects.
type Acceptor func(ch *channel.Channel)

// NodeCtrlService serves the node control endpoint: identity snapshots,
// storage query streams and duplex node channels.
type NodeCtrlService struct {
	proto.UnimplementedNodeCtrlServer

	ident    *nodectl.IdentReader
	gateway  *query.Gateway
	channels *channel.Registry

	channelConf channel.Config
	accept      Acceptor

	logger kitlog.Logger
}

func New(
	ident *nodectl.IdentReader,
	gateway *query.Gateway,
	channels *channel.Registry,
	channelConf channel.Config,
	accept Acceptor,
	logger kitlog.Logger,
) *NodeCtrlService {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	return &NodeCtrlService{
		ident:       ident,
		gateway:     gateway,
		channels:    channels,
		channelConf: channelConf,
		accept:      accept,
		logger:      logger,
	}
}

// GetIdent returns the current identity snapshot. It reads atomics and a
// short-lived membership lock only, so it responds even while other
// subsystems are wedged.
func (s *NodeCtrlService) GetIdent(ctx context.Context, req *proto.IdentRequest) (*proto.IdentResponse, error) {
	return nodectl.ToProto(s.ident.Read()), nil
}

// QueryStorage executes a storage query and streams the result set:
// one header frame, then zero or more data frames.
func (s *NodeCtrlService) QueryStorage(req *proto.QueryRequest, stream proto.NodeCtrl_QueryStorageServer) error {
	qs, err := s.gateway.Query(stream.Context(), req.Query)
	if err != nil {
		return statusFromError(err)
	}

	defer func() {
		_ = qs.Close()
	}()

	for {
		frame, err := qs.Next(stream.Context())
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			if grpcutil.IsCanceled(err) || errors.Is(err, context.Canceled) {
				return err
			}

			return statusFromError(err)
		}

		resp := &proto.QueryResponse{}
		if frame.IsHeader() {
			resp.Kind = proto.FrameKind_FRAME_KIND_HEADER
			resp.Header = frame.Header
		} else {
			resp.Kind = proto.FrameKind_FRAME_KIND_DATA
			resp.Data = frame.Data
		}

		if err := stream.Send(resp); err != nil {
			return err
		}
	}
}

// CreateConnection accepts a duplex node channel over the stream. The
// call returns when the channel reaches its terminal state.
func (s *NodeCtrlService) CreateConnection(stream proto.NodeCtrl_CreateConnectionServer) error {
	ch := channel.New(s.channelConf)
	s.channels.Track(ch)

	if s.accept != nil {
		go s.accept(ch)
	}

	err := ch.Run(stream.Context(), stream)
	if err != nil && !grpcutil.IsCanceled(err) {
		level.Info(s.logger).Log(
			"msg", "node channel closed",
			"channel_id", ch.ID(),
			"peer", ch.Peer().NodeID,
			"err", err,
		)

		return statusFromError(err)
	}

	return nil
}

// statusFromError maps an internal error onto a gRPC status carrying the
// stable code, so remote callers can resolve it against the catalog.
func statusFromError(err error) error {
	code, ok := ecode.CodeOf(err)
	if !ok {
		return grpcutil.Status(codes.Internal, ecode.CodeInternal, err.Error())
	}

	grpcCode := codes.Internal

	if desc, found := ecode.Lookup(code); found {
		switch desc.Category {
		case ecode.TransientInfra:
			grpcCode = codes.Unavailable
		case ecode.Misconfiguration:
			grpcCode = codes.FailedPrecondition
		case ecode.RevisionConflict:
			grpcCode = codes.AlreadyExists
		}
	}

	return grpcutil.Status(grpcCode, code, err.Error())
}
