// Package grpcbuf runs an in-memory echo service over bufconn for executor
// tests. The service uses well-known types only, so no generated code is
// needed on either side.
package grpcbuf

import (
	"context"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const bufSize = 1024 * 1024

// EchoProto is the source of the service registered by StartServer.
const EchoProto = `syntax = "proto3";

package test.v1;

import "google/protobuf/empty.proto";
import "google/protobuf/struct.proto";

service Echo {
  rpc Ping(google.protobuf.Empty) returns (google.protobuf.Empty);
  rpc Echo(google.protobuf.Struct) returns (google.protobuf.Struct);
}
`

// MetaCapture records incoming metadata on the server side.
type MetaCapture struct {
	last atomic.Value // metadata.MD
}

// Interceptor stores the incoming metadata and forwards to the handler.
func (m *MetaCapture) Interceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		m.last.Store(md)
	}
	return handler(ctx, req)
}

// Last returns the most recently captured metadata or nil.
func (m *MetaCapture) Last() metadata.MD {
	if v := m.last.Load(); v != nil {
		return v.(metadata.MD)
	}
	return nil
}

// EchoServer is the server side of the echo service.
type EchoServer interface {
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Echo(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type echoServer struct{}

func (echoServer) Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

// Echo returns its input with an "echoed" flag set.
func (echoServer) Echo(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(in.GetFields())+1)}
	for k, v := range in.GetFields() {
		out.Fields[k] = v
	}
	out.Fields["echoed"] = structpb.NewBoolValue(true)
	return out, nil
}

func unary[In any](
	fullMethod string,
	call func(EchoServer, context.Context, *In) (any, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(In)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EchoServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EchoServer), ctx, req.(*In))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// EchoServiceDesc describes the echo service for manual registration.
var EchoServiceDesc = grpc.ServiceDesc{
	ServiceName: "test.v1.Echo",
	HandlerType: (*EchoServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ping",
			Handler: unary("/test.v1.Echo/Ping", func(s EchoServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Ping(ctx, in)
			}),
		},
		{
			MethodName: "Echo",
			Handler: unary("/test.v1.Echo/Echo", func(s EchoServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.Echo(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "echo.proto",
}

// StartServer serves the echo service and the standard health service on a
// bufconn listener with metadata capture enabled.
func StartServer() (*grpc.Server, *bufconn.Listener, *MetaCapture) {
	lis := bufconn.Listen(bufSize)
	capture := &MetaCapture{}
	srv := grpc.NewServer(grpc.UnaryInterceptor(capture.Interceptor))
	srv.RegisterService(&EchoServiceDesc, echoServer{})
	hs := health.NewServer()
	hs.SetServingStatus(EchoServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	return srv, lis, capture
}

// Dial connects to lis. The passthrough target makes grpc.NewClient honour
// the custom dialer.
func Dial(lis *bufconn.Listener, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	}
	return grpc.NewClient("passthrough://bufnet", append(base, opts...)...)
}
