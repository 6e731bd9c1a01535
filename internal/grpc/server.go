// Package grpc поднимает служебный gRPC сервер: health checks и reflection
// для оркестратора. Бизнес API живет в HTTP
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName имя сервиса в health протоколе
const ServiceName = "hradmin.v1.HRAdmin"

// Pinger проверяет доступность зависимости (pgxpool.Pool подходит)
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server gRPC сервер со статусом здоровья
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	db         Pinger
	interval   time.Duration
	logger     *zap.Logger
}

// NewServer создает новый gRPC сервер
func NewServer(db Pinger, interval time.Duration, logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		db:         db,
		interval:   interval,
		logger:     logger,
	}
}

// Health нужен тестам и in-process проверкам
func (s *Server) Health() healthpb.HealthServer {
	return s.health
}

// Check один раз пингует БД и выставляет статус
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("database ping failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
	return st
}

// Watch периодически обновляет статус, пока не отменен ctx
func (s *Server) Watch(ctx context.Context) {
	s.Check(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Start запускает gRPC сервер на указанном порту. Блокирует до остановки
func (s *Server) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return s.Serve(lis)
}

// Serve обслуживает готовый listener
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("gRPC server failed: %w", err)
	}
	return nil
}

// Stop переводит статус в NOT_SERVING и дожидается завершения вызовов
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
