package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "sst.v1.ScoreService"

// Full method names
const (
	ScoreMethod         = "/" + ServiceName + "/Score"
	ListDetectorsMethod = "/" + ServiceName + "/ListDetectors"
)

// ScoreServiceServer is the server API. Requests and responses are the JSON
// shapes of models.ScoreRequest / models.ScoreResponse carried as
// google.protobuf.Struct.
type ScoreServiceServer interface {
	Score(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListDetectors(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterScoreServiceServer registers srv on s
func RegisterScoreServiceServer(s grpc.ServiceRegistrar, srv ScoreServiceServer) {
	s.RegisterService(&ScoreServiceDesc, srv)
}

// ScoreServiceDesc describes sst.v1.ScoreService
var ScoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoreServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Score", Handler: scoreHandler},
		{MethodName: "ListDetectors", Handler: listDetectorsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sst/v1/score.proto",
}

func scoreHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoreServiceServer).Score(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ScoreMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScoreServiceServer).Score(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listDetectorsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoreServiceServer).ListDetectors(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListDetectorsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScoreServiceServer).ListDetectors(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
