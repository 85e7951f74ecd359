package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bufbuild/protocompile/linker"
	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/discovery"
	"github.com/shamank/discovery-sdk-go/pkg/request"
	"github.com/shamank/discovery-sdk-go/pkg/transport"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const protocol = "grpc"

// requestIDKey carries the request id as outgoing metadata.
const requestIDKey = "x-request-id"

// Executor invokes unary RPCs without generated stubs. Request and response
// messages are built at runtime from compiled .proto descriptors.
type Executor struct {
	conn     *grpc.ClientConn
	files    linker.Files
	limiter  *rate.Limiter
	ownsConn bool
}

type options struct {
	dial    []grpc.DialOption
	limiter *rate.Limiter
}

// Option configures an Executor.
type Option func(*options)

// WithDialOptions appends options used when the executor dials its endpoint.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dial = append(o.dial, opts...) }
}

// WithRateLimit throttles the executor to rps calls per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) { o.limiter = transport.NewLimiter(rps, burst) }
}

// NewExecutor compiles protoFiles and opens a connection to endpoint. An
// "https://" endpoint uses TLS; "http://" or a bare host:port is insecure.
func NewExecutor(ctx context.Context, endpoint string, protoFiles map[string]string, opts ...Option) (*Executor, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	files, err := discovery.CompileProto(ctx, protoFiles)
	if err != nil {
		return nil, err
	}
	addr, creds := grpcCredsFromEndpoint(endpoint)
	conn, err := grpc.NewClient(addr, append([]grpc.DialOption{creds}, o.dial...)...)
	if err != nil {
		zap.L().Error("failed to create grpc client", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("grpc client for %s: %w", endpoint, err)
	}
	conn.Connect()
	return &Executor{conn: conn, files: files, limiter: o.limiter, ownsConn: true}, nil
}

// NewExecutorWithConn uses an existing connection. Close leaves conn open.
func NewExecutorWithConn(conn *grpc.ClientConn, files linker.Files, opts ...Option) *Executor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor{conn: conn, files: files, limiter: o.limiter}
}

// Files returns the compiled descriptors.
func (e *Executor) Files() linker.Files { return e.files }

// Conn returns the underlying connection.
func (e *Executor) Conn() *grpc.ClientConn { return e.conn }

// Close shuts the connection down if the executor opened it. It is safe on
// a nil receiver.
func (e *Executor) Close() error {
	if e == nil || e.conn == nil || !e.ownsConn {
		return nil
	}
	return e.conn.Close()
}

// Do implements request.Executor. The method is resolved from the path in
// its metadata ("/pkg.Service/Method") or, failing that, from the last
// segment of its id. Params and the resource are merged into one JSON
// object and decoded into the input message; the response body is the
// output message rendered as JSON.
func (e *Executor) Do(ctx context.Context, r *request.Request) (*request.Response, error) {
	m, ok := r.Method()
	if !ok {
		return nil, fmt.Errorf("%w: %s", transport.ErrUnknownMethod, r.MethodID())
	}
	md, err := e.resolve(m.Path, r.MethodID())
	if err != nil {
		return nil, err
	}
	body, err := requestBody(r)
	if err != nil {
		return nil, err
	}

	ctx, err = auth.OutgoingContext(ctx, r.AuthClient())
	if err != nil {
		return nil, fmt.Errorf("credentials for %s: %w", r.MethodID(), err)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, requestIDKey, r.ID())

	out, err := e.invokeJSON(ctx, md, body, r.MethodID())
	if err != nil {
		return nil, err
	}
	return &request.Response{StatusCode: 200, Body: out}, nil
}

func (e *Executor) resolve(path, methodID string) (protoreflect.MethodDescriptor, error) {
	if path != "" {
		if md, err := FindMethodByPath(e.files, path); err == nil {
			return md, nil
		}
	}
	name := methodID
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	_, md, err := FindMethod(e.files, name)
	return md, err
}

func requestBody(r *request.Request) ([]byte, error) {
	fields := make(map[string]any, len(r.Params()))
	if r.HasResource() && r.Resource() != nil {
		raw, err := json.Marshal(r.Resource())
		if err != nil {
			return nil, fmt.Errorf("encode resource: %w", err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("resource must encode to a JSON object: %w", err)
		}
	}
	for k, v := range r.Params() {
		fields[k] = v
	}
	return json.Marshal(fields)
}

// CallWithMap invokes method (its simple name) with params as the request.
func (e *Executor) CallWithMap(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	in, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	out, err := e.CallWithJSON(ctx, method, in)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CallWithProto invokes method with a concrete request message and returns
// a dynamic response message.
func (e *Executor) CallWithProto(ctx context.Context, method string, req proto.Message) (proto.Message, error) {
	_, md, err := FindMethod(e.files, method)
	if err != nil {
		return nil, err
	}
	out := dynamicpb.NewMessage(md.Output())
	if err := e.invoke(ctx, md, req, out, method); err != nil {
		return nil, err
	}
	return out, nil
}

// CallWithJSON invokes method with a JSON request. Unknown fields are
// dropped; the response is JSON with proto field names and unpopulated
// fields emitted.
func (e *Executor) CallWithJSON(ctx context.Context, method string, body []byte) ([]byte, error) {
	_, md, err := FindMethod(e.files, method)
	if err != nil {
		return nil, err
	}
	return e.invokeJSON(ctx, md, body, method)
}

func (e *Executor) invokeJSON(ctx context.Context, md protoreflect.MethodDescriptor, body []byte, label string) ([]byte, error) {
	in := dynamicpb.NewMessage(md.Input())
	out := dynamicpb.NewMessage(md.Output())
	err := protojson.UnmarshalOptions{
		AllowPartial:   true,
		DiscardUnknown: true,
	}.Unmarshal(body, in)
	if err != nil {
		return nil, fmt.Errorf("decode %s request: %w", md.FullName(), err)
	}
	if err := e.invoke(ctx, md, in, out, label); err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{
		EmitUnpopulated: true,
		UseProtoNames:   true,
	}.Marshal(out)
}

func (e *Executor) invoke(ctx context.Context, md protoreflect.MethodDescriptor, in, out proto.Message, label string) error {
	if err := transport.Throttle(ctx, e.limiter, protocol); err != nil {
		return err
	}
	start := time.Now()
	err := e.conn.Invoke(ctx, FullMethod(md), in, out)
	transport.ObserveCall(protocol, label, status.Code(err).String(), time.Since(start))
	if err != nil {
		zap.L().Error("grpc call failed", zap.String("method", FullMethod(md)), zap.Error(err))
		return err
	}
	return nil
}
