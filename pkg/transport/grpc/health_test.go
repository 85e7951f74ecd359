package grpc

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
)

func TestExecutorHealth(t *testing.T) {
	exec, _ := newEchoExecutor(t)

	resp, err := exec.Health(context.Background(), "test.v1.Echo")
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}

	if _, err := exec.Health(context.Background(), "unknown.Service"); err == nil {
		t.Fatal("expected error for unregistered service")
	}
}

func webFrame(flags byte, payload []byte) []byte {
	out := make([]byte, 5+len(payload))
	out[0] = flags
	binary.BigEndian.PutUint32(out[1:5], uint32(len(payload)))
	copy(out[5:], payload)
	return out
}

func TestWebHealth(t *testing.T) {
	msg, err := proto.Marshal(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/grpc.health.v1.Health/Check" || r.Header.Get("X-Grpc-Web") != "1" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/grpc-web+proto")
		_, _ = w.Write(webFrame(0x0, msg))
		_, _ = w.Write(webFrame(0x80, []byte("grpc-status: 0\r\n")))
	}))
	t.Cleanup(srv.Close)

	resp, err := WebHealth(context.Background(), srv.Client(), srv.URL+"/", "")
	if err != nil {
		t.Fatalf("WebHealth: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}

func TestDecodeWebFramesErrors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "empty", body: nil},
		{name: "short header", body: []byte{0, 0, 0}},
		{name: "truncated payload", body: []byte{0, 0, 0, 0, 9, 1}},
		{name: "trailers only", body: webFrame(0x80, []byte("grpc-status: 0"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeWebFrames(tt.body); !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("expected ErrMalformedFrame, got %v", err)
			}
		})
	}
}

func TestWebHealthStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	if _, err := WebHealth(context.Background(), srv.Client(), srv.URL, ""); err == nil {
		t.Fatal("expected error on 502")
	}
}
