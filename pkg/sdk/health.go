package sdk

import (
	"context"
	"errors"

	"github.com/shamank/discovery-sdk-go/pkg/client"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ErrNotGRPC is returned by Healthcheck for clients that are not backed by
// a gRPC connection.
var ErrNotGRPC = errors.New("client is not bound to a grpc endpoint")

// Healthcheck runs the grpc.health.v1 check against the endpoint behind cl.
// service selects one service on that server; empty means the server.
func (c *Core) Healthcheck(ctx context.Context, cl *client.Client, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	c.mu.Lock()
	exec, ok := c.grpcExecs[cl.Metadata()]
	c.mu.Unlock()
	if !ok {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, ErrNotGRPC
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Dial)
	defer cancel()
	resp, err := exec.Health(ctx, service)
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
