package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/models"
	"github.com/soltixdb/sst/internal/services"
)

// DefaultMaxMessageSize bounds request and response messages
const DefaultMaxMessageSize = 1024 * 1024 * 16

// ScoreServer exposes the ScoreService over gRPC
type ScoreServer struct {
	address    string
	grpcServer *grpc.Server
	logger     *logging.Logger
	service    *services.ScoreService
}

// NewScoreServer creates a new gRPC server instance
func NewScoreServer(address string, maxMessageSize int, logger *logging.Logger, service *services.ScoreService) *ScoreServer {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	s := &ScoreServer{
		address: address,
		logger:  logger.Component("grpc"),
		service: service,
	}
	s.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMessageSize),
		grpc.MaxSendMsgSize(maxMessageSize),
	)
	RegisterScoreServiceServer(s.grpcServer, s)
	return s
}

// Start listens on the configured address and serves until ctx is cancelled
func (s *ScoreServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.logger.Info("gRPC server starting", "address", s.address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Serve serves on an existing listener
func (s *ScoreServer) Serve(listener net.Listener) error {
	if err := s.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server
func (s *ScoreServer) Stop() {
	s.logger.Info("Stopping gRPC server")
	s.grpcServer.GracefulStop()
}

// Score implements ScoreServiceServer
func (s *ScoreServer) Score(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.ScoreRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := s.service.Score(ctx, &req)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ListDetectors implements ScoreServiceServer
func (s *ScoreServer) ListDetectors(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := toStruct(s.service.ListDetectors())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps service errors onto gRPC status codes
func toStatus(err error) error {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		return status.Error(codes.Internal, err.Error())
	}

	code := codes.Internal
	switch svcErr.Code {
	case services.CodeInvalidRequest, services.CodeInvalidParams, services.CodeInvalidAlgo:
		code = codes.InvalidArgument
	case services.CodeSeriesTooLong:
		code = codes.ResourceExhausted
	case services.CodeProfileNotFound, services.CodeResultNotFound:
		code = codes.NotFound
	case services.CodeQueueDisabled, services.CodeArchiveDisabled:
		code = codes.FailedPrecondition
	}
	return status.Error(code, svcErr.Code+": "+svcErr.Message)
}
