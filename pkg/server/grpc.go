package server

import (
	"errors"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ErrStopTimeout is returned by Shutdown when in-flight calls outlived the timeout.
var ErrStopTimeout = errors.New("grpc server graceful stop timed out")

// RegistrationFunc registers a grpc service with the server.
type RegistrationFunc func(*grpc.Server)

// GRPCServer is a grpc.Server with a health service that follows its lifecycle.
type GRPCServer struct {
	*grpc.Server
	health *health.Server
}

// NewGRPCServer creates a gRPC server with the standard health service, optional
// reflection and the given services. Every server carries the otelgrpc stats
// handler so incoming trace context is picked up.
func NewGRPCServer(enableReflection bool, opts []grpc.ServerOption, registerFunc ...RegistrationFunc) *GRPCServer {
	serverOpts := append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := &GRPCServer{
		Server: grpc.NewServer(serverOpts...),
		health: health.NewServer(),
	}
	grpc_health_v1.RegisterHealthServer(s.Server, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if enableReflection {
		reflection.Register(s.Server)
	}
	for _, regFunc := range registerFunc {
		regFunc(s.Server)
	}
	return s
}

// Serve reports SERVING and accepts connections on lis until the server stops.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return s.Server.Serve(lis)
}

// Shutdown reports NOT_SERVING, then waits up to timeout for in-flight calls
// before closing every connection.
func (s *GRPCServer) Shutdown(timeout time.Duration) error {
	s.health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.Server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-time.After(timeout):
		s.Server.Stop()
		return ErrStopTimeout
	}
}
