package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const nodeCtrlServiceName = "nodectl.NodeCtrl"

type NodeCtrlClient interface {
	GetIdent(ctx context.Context, in *IdentRequest, opts ...grpc.CallOption) (*IdentResponse, error)
	QueryStorage(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (NodeCtrl_QueryStorageClient, error)
	CreateConnection(ctx context.Context, opts ...grpc.CallOption) (NodeCtrl_CreateConnectionClient, error)
}

type nodeCtrlClient struct {
	cc grpc.ClientConnInterface
}

func NewNodeCtrlClient(cc grpc.ClientConnInterface) NodeCtrlClient {
	return &nodeCtrlClient{cc}
}

func (c *nodeCtrlClient) GetIdent(ctx context.Context, in *IdentRequest, opts ...grpc.CallOption) (*IdentResponse, error) {
	out := new(IdentResponse)
	if err := c.cc.Invoke(ctx, "/nodectl.NodeCtrl/GetIdent", in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *nodeCtrlClient) QueryStorage(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (NodeCtrl_QueryStorageClient, error) {
	stream, err := c.cc.NewStream(ctx, &nodeCtrlServiceDesc.Streams[0], "/nodectl.NodeCtrl/QueryStorage", opts...)
	if err != nil {
		return nil, err
	}

	x := &nodeCtrlQueryStorageClient{stream}

	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

type NodeCtrl_QueryStorageClient interface {
	Recv() (*QueryResponse, error)
	grpc.ClientStream
}

type nodeCtrlQueryStorageClient struct {
	grpc.ClientStream
}

func (x *nodeCtrlQueryStorageClient) Recv() (*QueryResponse, error) {
	m := new(QueryResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}

	return m, nil
}

func (c *nodeCtrlClient) CreateConnection(ctx context.Context, opts ...grpc.CallOption) (NodeCtrl_CreateConnectionClient, error) {
	stream, err := c.cc.NewStream(ctx, &nodeCtrlServiceDesc.Streams[1], "/nodectl.NodeCtrl/CreateConnection", opts...)
	if err != nil {
		return nil, err
	}

	return &nodeCtrlCreateConnectionClient{stream}, nil
}

type NodeCtrl_CreateConnectionClient interface {
	Send(*Message) error
	Recv() (*Message, error)
	grpc.ClientStream
}

type nodeCtrlCreateConnectionClient struct {
	grpc.ClientStream
}

func (x *nodeCtrlCreateConnectionClient) Send(m *Message) error {
	return x.ClientStream.SendMsg(m)
}

func (x *nodeCtrlCreateConnectionClient) Recv() (*Message, error) {
	m := new(Message)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}

	return m, nil
}

type NodeCtrlServer interface {
	GetIdent(context.Context, *IdentRequest) (*IdentResponse, error)
	QueryStorage(*QueryRequest, NodeCtrl_QueryStorageServer) error
	CreateConnection(NodeCtrl_CreateConnectionServer) error
}

// UnimplementedNodeCtrlServer can be embedded to have forward compatible
// implementations.
type UnimplementedNodeCtrlServer struct{}

func (UnimplementedNodeCtrlServer) GetIdent(context.Context, *IdentRequest) (*IdentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetIdent not implemented")
}

func (UnimplementedNodeCtrlServer) QueryStorage(*QueryRequest, NodeCtrl_QueryStorageServer) error {
	return status.Errorf(codes.Unimplemented, "method QueryStorage not implemented")
}

func (UnimplementedNodeCtrlServer) CreateConnection(NodeCtrl_CreateConnectionServer) error {
	return status.Errorf(codes.Unimplemented, "method CreateConnection not implemented")
}

func RegisterNodeCtrlServer(s grpc.ServiceRegistrar, srv NodeCtrlServer) {
	s.RegisterService(&nodeCtrlServiceDesc, srv)
}

func nodeCtrlGetIdentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(IdentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(NodeCtrlServer).GetIdent(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/nodectl.NodeCtrl/GetIdent",
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeCtrlServer).GetIdent(ctx, req.(*IdentRequest))
	}

	return interceptor(ctx, in, info, handler)
}

type NodeCtrl_QueryStorageServer interface {
	Send(*QueryResponse) error
	grpc.ServerStream
}

type nodeCtrlQueryStorageServer struct {
	grpc.ServerStream
}

func (x *nodeCtrlQueryStorageServer) Send(m *QueryResponse) error {
	return x.ServerStream.SendMsg(m)
}

func nodeCtrlQueryStorageHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(QueryRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}

	return srv.(NodeCtrlServer).QueryStorage(m, &nodeCtrlQueryStorageServer{stream})
}

type NodeCtrl_CreateConnectionServer interface {
	Send(*Message) error
	Recv() (*Message, error)
	grpc.ServerStream
}

type nodeCtrlCreateConnectionServer struct {
	grpc.ServerStream
}

func (x *nodeCtrlCreateConnectionServer) Send(m *Message) error {
	return x.ServerStream.SendMsg(m)
}

func (x *nodeCtrlCreateConnectionServer) Recv() (*Message, error) {
	m := new(Message)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}

	return m, nil
}

func nodeCtrlCreateConnectionHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(NodeCtrlServer).CreateConnection(&nodeCtrlCreateConnectionServer{stream})
}

var nodeCtrlServiceDesc = grpc.ServiceDesc{
	ServiceName: nodeCtrlServiceName,
	HandlerType: (*NodeCtrlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetIdent",
			Handler:    nodeCtrlGetIdentHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "QueryStorage",
			Handler:       nodeCtrlQueryStorageHandler,
			ServerStreams: true,
		},
		{
			StreamName:    "CreateConnection",
			Handler:       nodeCtrlCreateConnectionHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "nodectl/proto/nodectl.proto",
}
