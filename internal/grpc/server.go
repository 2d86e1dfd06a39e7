// Package grpc exposes the storefront's gRPC health service for orchestration
// probes. Each registered probe drives the status of one named component; the
// overall ("") status is SERVING only while every probe passes.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *zap.Logger

	mu     sync.Mutex
	probes map[string]Probe
}

func NewServer(log *zap.Logger) *Server {
	log = logger.OrNop(log)
	s := &Server{
		grpc:   grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(log))),
		health: health.NewServer(),
		log:    log,
		probes: make(map[string]Probe),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	// Enable reflection for grpcurl/grpcui
	reflection.Register(s.grpc)
	return s
}

// AddProbe registers a component. It reports NOT_SERVING until the first check.
func (s *Server) AddProbe(component string, p Probe) {
	s.mu.Lock()
	s.probes[component] = p
	s.mu.Unlock()
	s.health.SetServingStatus(component, healthpb.HealthCheckResponse_NOT_SERVING)
}

// Check runs every probe once and updates the health statuses.
func (s *Server) Check(ctx context.Context) bool {
	s.mu.Lock()
	probes := make(map[string]Probe, len(s.probes))
	for name, p := range s.probes {
		probes[name] = p
	}
	s.mu.Unlock()

	healthy := true
	for name, p := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p(probeCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			s.log.Warn("health probe failed", zap.String("component", name), zap.Error(err))
		}
		s.health.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	return healthy
}

// RunProbes checks immediately and then on every interval until ctx is done.
func (s *Server) RunProbes(ctx context.Context, interval time.Duration) {
	s.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Listen serves on the TCP port until GracefulStop.
func (s *Server) Listen(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.log.Info("grpc server listening", zap.Int("port", port))
	return s.Serve(lis)
}

// GracefulStop marks everything NOT_SERVING and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return resp, err
	}
}
