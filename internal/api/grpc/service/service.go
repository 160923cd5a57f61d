// Package service describes the SharedStore gRPC service. The messages are
// protobuf well-known types, so the service needs no generated code: the
// descriptor and the client stub below are what protoc-gen-go-grpc would emit.
package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "softsync.SharedStore"

// Full method names.
const (
	GetMethod    = "/" + ServiceName + "/Get"
	SetMethod    = "/" + ServiceName + "/Set"
	DeleteMethod = "/" + ServiceName + "/Delete"
	KeysMethod   = "/" + ServiceName + "/Keys"
	PingMethod   = "/" + ServiceName + "/Ping"
)

// Field names of the Set request struct.
const (
	FieldKey   = "key"
	FieldValue = "value"
)

// SharedStoreServer is implemented by the store service.
type SharedStoreServer interface {
	// Get returns the value for a key, or a NotFound status.
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// Set takes a struct with "key" and "value" string fields.
	Set(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// Keys takes a prefix and returns a list of string values.
	Keys(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// RegisterSharedStoreServer registers srv on s.
func RegisterSharedStoreServer(s grpc.ServiceRegistrar, srv SharedStoreServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SharedStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Get", SharedStoreServer.Get),
		unaryMethod("Set", SharedStoreServer.Set),
		unaryMethod("Delete", SharedStoreServer.Delete),
		unaryMethod("Keys", SharedStoreServer.Keys),
		unaryMethod("Ping", SharedStoreServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "softsync/shared_store",
}

func unaryMethod[Req, Resp any](name string, call func(SharedStoreServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(SharedStoreServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// SharedStoreClient is the client stub for the SharedStore service.
type SharedStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewSharedStoreClient wraps a client connection.
func NewSharedStoreClient(cc grpc.ClientConnInterface) *SharedStoreClient {
	return &SharedStoreClient{cc: cc}
}

func (c *SharedStoreClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, GetMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SharedStoreClient) Set(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, SetMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SharedStoreClient) Delete(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DeleteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SharedStoreClient) Keys(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, KeysMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SharedStoreClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, PingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
