// Package grpcserver runs the service's gRPC endpoint: the standard
// grpc.health.v1 service and server reflection. Orchestrators probe it for
// readiness; it reports NOT_SERVING while the process drains.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported alongside the overall "".
const ServiceName = "govjobs.v1.GovJobs"

// Server wraps a grpc.Server with its health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New constructs a Server whose health status starts as SERVING.
func New() *Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{grpc: srv, health: hs}
	s.SetServing(true)
	return s
}

// Serve accepts connections on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	zap.S().Named("grpc").Infow("gRPC server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// SetServing flips the reported health of the whole server.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Shutdown marks every service NOT_SERVING, then stops gracefully. If ctx
// expires first, open streams are cut.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}

// logUnary logs every unary call at debug, failures at warn.
func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log := zap.S().Named("grpc")
	if err != nil {
		log.Warnw("rpc failed", "method", info.FullMethod, "code", status.Code(err).String(), "latency", time.Since(start), "error", err)
	} else {
		log.Debugw("rpc completed", "method", info.FullMethod, "latency", time.Since(start))
	}
	return resp, err
}
