package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/soltixdb/sst/internal/models"
)

// ScoreClient calls a remote ScoreService
type ScoreClient struct {
	conn     *grpc.ClientConn
	ownsConn bool
}

// NewScoreClient connects to address without transport security
func NewScoreClient(address string, opts ...grpc.DialOption) (*ScoreClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(DefaultMaxMessageSize),
			grpc.MaxCallSendMsgSize(DefaultMaxMessageSize),
		),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", address, err)
	}
	return &ScoreClient{conn: conn, ownsConn: true}, nil
}

// NewScoreClientWithConn wraps an existing connection. The caller keeps ownership of conn.
func NewScoreClientWithConn(conn *grpc.ClientConn) *ScoreClient {
	return &ScoreClient{conn: conn}
}

// Score scores a series remotely
func (c *ScoreClient) Score(ctx context.Context, req *models.ScoreRequest) (*models.ScoreResponse, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, ScoreMethod, in, out); err != nil {
		return nil, err
	}

	var resp models.ScoreResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDetectors lists the remote detectors
func (c *ScoreClient) ListDetectors(ctx context.Context) (*models.DetectorListResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, ListDetectorsMethod, &structpb.Struct{}, out); err != nil {
		return nil, err
	}

	var resp models.DetectorListResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close closes the connection if the client created it
func (c *ScoreClient) Close() error {
	if c.ownsConn {
		return c.conn.Close()
	}
	return nil
}
