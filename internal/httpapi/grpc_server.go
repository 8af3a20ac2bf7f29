package httpapi

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const grpcServiceName = "taskora.api"

// HealthServer exposes the standard gRPC health service so orchestrators can
// probe the process over gRPC as well as HTTP.
type HealthServer struct {
	srv    *grpc.Server
	status *health.Server
	probe  ReadyProbe
}

// NewHealthServer constructs the gRPC health endpoint around the same
// readiness probe the HTTP /readyz handler uses.
func NewHealthServer(probe ReadyProbe) *HealthServer {
	h := &HealthServer{
		srv:    grpc.NewServer(),
		status: health.NewServer(),
		probe:  probe,
	}
	healthpb.RegisterHealthServer(h.srv, h.status)
	h.status.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
	return h
}

// Refresh re-evaluates readiness and publishes it to health watchers.
func (h *HealthServer) Refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.probe.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.status.SetServingStatus(grpcServiceName, status)
	h.status.SetServingStatus("", status)
}

// Serve blocks serving gRPC on the listener.
func (h *HealthServer) Serve(lis net.Listener) error {
	return h.srv.Serve(lis)
}

// GracefulStop drains in-flight RPCs and stops the server.
func (h *HealthServer) GracefulStop() {
	h.srv.GracefulStop()
}
