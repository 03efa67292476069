package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The state service is declared by hand over well-known protobuf types:
// documents travel as JSON bytes so key order and int/float kinds survive,
// edits as a Struct {path, value}.

// #region names
const (
	ServiceName = "jsonui.v1.StateService"

	MethodGet     = "/" + ServiceName + "/Get"
	MethodSet     = "/" + ServiceName + "/Set"
	MethodPress   = "/" + ServiceName + "/Press"
	MethodWidgets = "/" + ServiceName + "/Widgets"
)

// #endregion names

// #region client
// StateServiceClient is the client API of the state service.
type StateServiceClient interface {
	Get(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Set(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Press(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Widgets(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type stateServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewStateServiceClient returns a client calling over cc.
func NewStateServiceClient(cc grpc.ClientConnInterface) StateServiceClient {
	return &stateServiceClient{cc: cc}
}

func (c *stateServiceClient) Get(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, MethodGet, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stateServiceClient) Set(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodSet, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stateServiceClient) Press(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodPress, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stateServiceClient) Widgets(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, MethodWidgets, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion client

// #region server
// StateServiceServer is the server API of the state service.
type StateServiceServer interface {
	Get(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Set(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Press(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Widgets(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

// RegisterStateServiceServer registers srv on s.
func RegisterStateServiceServer(s grpc.ServiceRegistrar, srv StateServiceServer) {
	s.RegisterService(&StateServiceDesc, srv)
}

// StateServiceDesc describes the state service for grpc.Server.
var StateServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: unary(MethodGet, func(srv StateServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) { return srv.Get(ctx, in) })},
		{MethodName: "Set", Handler: unary(MethodSet, func(srv StateServiceServer, ctx context.Context, in *structpb.Struct) (any, error) { return srv.Set(ctx, in) })},
		{MethodName: "Press", Handler: unary(MethodPress, func(srv StateServiceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) { return srv.Press(ctx, in) })},
		{MethodName: "Widgets", Handler: unary(MethodWidgets, func(srv StateServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) { return srv.Widgets(ctx, in) })},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jsonui/v1/state.proto",
}

// unary adapts a typed method to a grpc.MethodDesc handler.
func unary[Req any, PReq interface {
	*Req
}](method string, call func(StateServiceServer, context.Context, PReq) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(StateServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion server
