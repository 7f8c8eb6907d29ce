package grpc

// proto.go defines the gRPC server interface derived from obesitrack/v1/prediction.proto.
// This file serves as a stand-in for buf-generated code. Once `buf generate` is run,
// replace this file with the import from github.com/obesitrack/obesitrack/api/gen/go/obesitrack/v1.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PredictionServiceServer is the server API for PredictionService.
type PredictionServiceServer interface {
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	GetModelStatus(context.Context, *GetModelStatusRequest) (*GetModelStatusResponse, error)
	mustEmbedUnimplementedPredictionServiceServer()
}

// UnimplementedPredictionServiceServer provides forward-compatible default implementations.
type UnimplementedPredictionServiceServer struct{}

func (UnimplementedPredictionServiceServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedPredictionServiceServer) GetModelStatus(context.Context, *GetModelStatusRequest) (*GetModelStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetModelStatus not implemented")
}
func (UnimplementedPredictionServiceServer) mustEmbedUnimplementedPredictionServiceServer() {}

// RegisterPredictionServiceServer registers the PredictionServiceServer with the gRPC server.
func RegisterPredictionServiceServer(s *grpclib.Server, srv PredictionServiceServer) {
	s.RegisterService(&_PredictionService_serviceDesc, srv)
}

var _PredictionService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: "obesitrack.v1.PredictionService",
	HandlerType: (*PredictionServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: _PredictionService_Predict_Handler},
		{MethodName: "GetModelStatus", Handler: _PredictionService_GetModelStatus_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _PredictionService_Predict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(PredictRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(PredictionServiceServer).Predict(ctx, req)
}

func _PredictionService_GetModelStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetModelStatusRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(PredictionServiceServer).GetModelStatus(ctx, req)
}
