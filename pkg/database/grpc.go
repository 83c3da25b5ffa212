package database

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer gRPC health check server
type HealthServer struct {
	Server   *grpc.Server
	Health   *health.Server
	Listener net.Listener
}

// NewGRPCHealthServer create grpc server only register grpc.health.v1.Health
func NewGRPCHealthServer(addr string) (*HealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen[%s]: %w", addr, err)
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{Server: srv, Health: hs, Listener: lis}, nil
}

// SetServing set service status
func (h *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.Health.SetServingStatus(service, status)
}

// Serve blocking serve
func (h *HealthServer) Serve() error {
	return h.Server.Serve(h.Listener)
}

// Stop graceful stop
func (h *HealthServer) Stop() {
	h.Health.Shutdown()
	h.Server.GracefulStop()
}
