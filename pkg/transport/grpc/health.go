package grpc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
)

// ErrMalformedFrame is returned when a gRPC-Web response cannot be split
// into frames.
var ErrMalformedFrame = errors.New("malformed grpc-web frame")

// Health runs the standard grpc.health.v1 check for service. An empty
// service asks about the server as a whole.
func (e *Executor) Health(ctx context.Context, service string) (*grpc_health_v1.HealthCheckResponse, error) {
	client := grpc_health_v1.NewHealthClient(e.conn)
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return nil, fmt.Errorf("grpc health check failed: %w", err)
	}
	return resp, nil
}

// WebHealth performs the same check over gRPC-Web, for endpoints that sit
// behind an HTTP/1.1 proxy.
func WebHealth(ctx context.Context, client *http.Client, endpoint, service string) (*grpc_health_v1.HealthCheckResponse, error) {
	if client == nil {
		client = http.DefaultClient
	}
	reqBody, err := proto.Marshal(&grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 5+len(reqBody))
	frame[0] = 0x0 // message frame
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(reqBody)))
	copy(frame[5:], reqBody)

	url := strings.TrimRight(endpoint, "/") + "/grpc.health.v1.Health/Check"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	req.Header.Set("X-Grpc-Web", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grpc-web health check failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			zap.L().Debug("close health response", zap.Error(cerr))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grpc-web health check failed with status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return decodeWebFrames(body)
}

// decodeWebFrames returns the last data frame of a gRPC-Web body. Trailer
// frames (flag 0x80) are skipped.
func decodeWebFrames(body []byte) (*grpc_health_v1.HealthCheckResponse, error) {
	out := &grpc_health_v1.HealthCheckResponse{}
	seen := false
	for i := 0; i < len(body); {
		if i+5 > len(body) {
			return nil, ErrMalformedFrame
		}
		flags := body[i]
		length := int(binary.BigEndian.Uint32(body[i+1 : i+5]))
		i += 5
		if i+length > len(body) {
			return nil, ErrMalformedFrame
		}
		payload := body[i : i+length]
		i += length
		if flags&0x80 != 0 {
			continue
		}
		if err := proto.Unmarshal(payload, out); err != nil {
			return nil, err
		}
		seen = true
	}
	if !seen {
		return nil, fmt.Errorf("%w: no data frame", ErrMalformedFrame)
	}
	return out, nil
}
