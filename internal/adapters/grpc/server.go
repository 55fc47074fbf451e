package grpc

import (
	"context"

	"github.com/paygrid/payment-engine/internal/application"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer serves platform liveness probes. The engine reports
// NOT_SERVING while paused so orchestrators can route around a frozen
// instance without killing it.
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewHealthServer(service *application.Service) *HealthServer {
	return &HealthServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *HealthServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *HealthServer) Check(_ context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: s.status()}, nil
}

func (s *HealthServer) Watch(_ *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: s.status()})
}

func (s *HealthServer) status() grpc_health_v1.HealthCheckResponse_ServingStatus {
	if s.service != nil && s.service.Paused() {
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_SERVING
}
