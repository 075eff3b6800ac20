// Package commitsvc serves document commitments over gRPC.
//
// The service uses protobuf well-known wrapper types, so no protoc step is
// needed:
//
//	service Commitments {
//	  rpc Commit(google.protobuf.BytesValue) returns (google.protobuf.BytesValue); // document -> record
//	  rpc Get(google.protobuf.StringValue) returns (google.protobuf.BytesValue);   // cid -> record
//	  rpc Has(google.protobuf.StringValue) returns (google.protobuf.BoolValue);
//	}
package commitsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "xdao.jcommit.v1.Commitments"

const (
	methodCommit = "/" + serviceName + "/Commit"
	methodGet    = "/" + serviceName + "/Get"
	methodHas    = "/" + serviceName + "/Has"
)

// CommitmentsServer is the server API for the Commitments service.
type CommitmentsServer interface {
	Commit(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedCommitmentsServer can be embedded for forward compatibility.
type UnimplementedCommitmentsServer struct{}

func (UnimplementedCommitmentsServer) Commit(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Commit not implemented")
}
func (UnimplementedCommitmentsServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedCommitmentsServer) Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Has not implemented")
}

// RegisterCommitmentsServer registers srv on s.
func RegisterCommitmentsServer(s grpc.ServiceRegistrar, srv CommitmentsServer) {
	s.RegisterService(&Commitments_ServiceDesc, srv)
}

// CommitmentsClient is the client API for the Commitments service.
type CommitmentsClient interface {
	Commit(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type commitmentsClient struct{ cc grpc.ClientConnInterface }

func NewCommitmentsClient(cc grpc.ClientConnInterface) CommitmentsClient {
	return &commitmentsClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *commitmentsClient) Commit(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue, wrapperspb.BytesValue](ctx, c.cc, methodCommit, in, opts)
}

func (c *commitmentsClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.StringValue, wrapperspb.BytesValue](ctx, c.cc, methodGet, in, opts)
}

func (c *commitmentsClient) Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke[wrapperspb.StringValue, wrapperspb.BoolValue](ctx, c.cc, methodHas, in, opts)
}

// unaryHandler adapts a typed server method to grpc.MethodDesc.
func unaryHandler[Req any](method string, call func(CommitmentsServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CommitmentsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CommitmentsServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Commitments_ServiceDesc is the grpc.ServiceDesc for the Commitments service.
var Commitments_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CommitmentsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Commit", Handler: unaryHandler(methodCommit, func(s CommitmentsServer, ctx context.Context, in *wrapperspb.BytesValue) (any, error) {
			return s.Commit(ctx, in)
		})},
		{MethodName: "Get", Handler: unaryHandler(methodGet, func(s CommitmentsServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.Get(ctx, in)
		})},
		{MethodName: "Has", Handler: unaryHandler(methodHas, func(s CommitmentsServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.Has(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jcommit.proto",
}
