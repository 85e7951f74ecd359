package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shamank/discovery-sdk-go/internal/testutil/grpcbuf"
	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/client"
	"github.com/shamank/discovery-sdk-go/pkg/discovery"
	"github.com/shamank/discovery-sdk-go/pkg/model"
	"github.com/shamank/discovery-sdk-go/pkg/request"
	"github.com/shamank/discovery-sdk-go/pkg/transport"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
)

func newEchoExecutor(t *testing.T) (*Executor, *grpcbuf.MetaCapture) {
	t.Helper()
	srv, lis, capture := grpcbuf.StartServer()
	t.Cleanup(srv.Stop)

	conn, err := grpcbuf.Dial(lis)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	files, err := discovery.CompileProto(context.Background(), map[string]string{"echo.proto": grpcbuf.EchoProto})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return NewExecutorWithConn(conn, files), capture
}

func TestExecutorThroughClient(t *testing.T) {
	exec, capture := newEchoExecutor(t)
	meta := discovery.FromDescriptors(exec.Files())

	c := client.MustNew(meta).WithAuthClient(auth.BearerToken("tok"))
	echo, ok := c.Helper("Echo.Echo")
	if !ok {
		t.Fatalf("Echo.Echo not installed, have %v", c.Paths())
	}

	r := echo.Call(request.Params{"greeting": "hi"}, map[string]any{"count": 2})
	var out map[string]any
	if _, err := r.Execute(context.Background(), exec, &out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["greeting"] != "hi" || out["count"] != float64(2) || out["echoed"] != true {
		t.Fatalf("unexpected response %v", out)
	}

	md := capture.Last()
	if got := md.Get("authorization"); len(got) != 1 || got[0] != "Bearer tok" {
		t.Fatalf("authorization metadata = %v", got)
	}
	if got := md.Get(requestIDKey); len(got) != 1 || got[0] != r.ID() {
		t.Fatalf("request id metadata = %v", got)
	}
}

func TestExecutorResolvesByID(t *testing.T) {
	exec, _ := newEchoExecutor(t)
	meta := &model.APIMetadata{Name: "test", Methods: map[string]*model.MethodMetadata{
		"test.Echo.Ping": {ID: "test.Echo.Ping"},
	}}
	resp, err := exec.Do(context.Background(), request.New(meta, "test.Echo.Ping", nil))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "{}" {
		t.Fatalf("unexpected body %s", resp.Body)
	}
}

func TestExecutorErrors(t *testing.T) {
	exec, _ := newEchoExecutor(t)
	meta := &model.APIMetadata{Name: "test", Methods: map[string]*model.MethodMetadata{
		"test.Echo.Missing": {ID: "test.Echo.Missing", Path: "/test.v1.Echo/Missing"},
		"test.Echo.Echo":    {ID: "test.Echo.Echo", Path: "/test.v1.Echo/Echo"},
	}}

	if _, err := exec.Do(context.Background(), request.New(meta, "test.Echo.Unknown", nil)); !errors.Is(err, transport.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if _, err := exec.Do(context.Background(), request.New(meta, "test.Echo.Missing", nil)); err == nil {
		t.Fatal("expected resolution error")
	}
	r := request.New(meta, "test.Echo.Echo", nil, []int{1, 2})
	if _, err := exec.Do(context.Background(), r); err == nil {
		t.Fatal("expected error for non-object resource")
	}
	failing := auth.Func(func(context.Context) (map[string]string, error) { return nil, auth.ErrNoToken })
	r = request.New(meta, "test.Echo.Echo", nil).WithAuthClient(failing)
	if _, err := exec.Do(context.Background(), r); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestCallVariants(t *testing.T) {
	exec, _ := newEchoExecutor(t)
	ctx := context.Background()

	t.Run("CallWithJSON", func(t *testing.T) {
		resp, err := exec.CallWithJSON(ctx, "Echo", []byte(`{"x":"y"}`))
		if err != nil {
			t.Fatalf("CallWithJSON: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(resp, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if m["x"] != "y" || m["echoed"] != true {
			t.Fatalf("unexpected response %v", m)
		}
	})

	t.Run("CallWithMap", func(t *testing.T) {
		resp, err := exec.CallWithMap(ctx, "Ping", map[string]any{})
		if err != nil {
			t.Fatalf("CallWithMap: %v", err)
		}
		if len(resp) != 0 {
			t.Fatalf("expected empty response, got %v", resp)
		}
	})

	t.Run("CallWithProto", func(t *testing.T) {
		msg, err := exec.CallWithProto(ctx, "Ping", &emptypb.Empty{})
		if err != nil {
			t.Fatalf("CallWithProto: %v", err)
		}
		if !proto.Equal(msg, &emptypb.Empty{}) {
			t.Fatalf("unexpected response %v", msg)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		if _, err := exec.CallWithJSON(ctx, "Nope", []byte(`{}`)); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestFindMethodByPath(t *testing.T) {
	files, err := discovery.CompileProto(context.Background(), map[string]string{"echo.proto": grpcbuf.EchoProto})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	md, err := FindMethodByPath(files, "/test.v1.Echo/Ping")
	if err != nil {
		t.Fatalf("FindMethodByPath: %v", err)
	}
	if FullMethod(md) != "/test.v1.Echo/Ping" {
		t.Fatalf("unexpected full method %s", FullMethod(md))
	}
	for _, bad := range []string{"/other.Echo/Ping", "/test.v1.Echo/Nope", "nopath"} {
		if _, err := FindMethodByPath(files, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDialEndpointTimeout(t *testing.T) {
	start := time.Now()
	if _, err := DialEndpoint(context.Background(), "10.255.255.1:65535", 50*time.Millisecond); err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("dial exceeded 1s: %v", elapsed)
	}
}

func TestNewExecutorRejectsBadProto(t *testing.T) {
	if _, err := NewExecutor(context.Background(), "localhost:1", map[string]string{"bad.proto": "message {"}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestCloseNil(t *testing.T) {
	var e *Executor
	if err := e.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}
