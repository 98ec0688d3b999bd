package shimrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// This file is intentionally handwritten to avoid protoc in the minimal reference.
// It defines a tiny internal gRPC contract for tuning-tool -> driver settings pushes.

type SettingValue struct {
	Key   string
	Value float64
}

type PutSettingsRequest struct {
	Section   string
	Values    []SettingValue
	SessionId string
}

type PutSettingsResponse struct {
	Applied   int32
	SessionId string
	Message   string
}

type GetSettingsRequest struct {
	Section string
	Keys    []string
}

type GetSettingsResponse struct {
	Section string
	Values  []SettingValue
}

// LensTuningService: called by external tuning tools (client) -> driver process (server).
type LensTuningServiceClient interface {
	PutSettings(ctx context.Context, in *PutSettingsRequest, opts ...grpc.CallOption) (*PutSettingsResponse, error)
	GetSettings(ctx context.Context, in *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error)
}

type lensTuningServiceClient struct{ cc grpc.ClientConnInterface }

func NewLensTuningServiceClient(cc grpc.ClientConnInterface) LensTuningServiceClient {
	return &lensTuningServiceClient{cc}
}

func (c *lensTuningServiceClient) PutSettings(ctx context.Context, in *PutSettingsRequest, opts ...grpc.CallOption) (*PutSettingsResponse, error) {
	out := new(PutSettingsResponse)
	err := c.cc.Invoke(ctx, "/shim.internal.LensTuningService/PutSettings", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lensTuningServiceClient) GetSettings(ctx context.Context, in *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error) {
	out := new(GetSettingsResponse)
	err := c.cc.Invoke(ctx, "/shim.internal.LensTuningService/GetSettings", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type LensTuningServiceServer interface {
	PutSettings(context.Context, *PutSettingsRequest) (*PutSettingsResponse, error)
	GetSettings(context.Context, *GetSettingsRequest) (*GetSettingsResponse, error)
	mustEmbedUnimplementedLensTuningServiceServer()
}

type UnimplementedLensTuningServiceServer struct{}

func (UnimplementedLensTuningServiceServer) PutSettings(context.Context, *PutSettingsRequest) (*PutSettingsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PutSettings not implemented")
}
func (UnimplementedLensTuningServiceServer) GetSettings(context.Context, *GetSettingsRequest) (*GetSettingsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSettings not implemented")
}
func (UnimplementedLensTuningServiceServer) mustEmbedUnimplementedLensTuningServiceServer() {}

func RegisterLensTuningServiceServer(s grpc.ServiceRegistrar, srv LensTuningServiceServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "shim.internal.LensTuningService",
		HandlerType: (*LensTuningServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "PutSettings",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(PutSettingsRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.PutSettings(ctx, in)
				},
			},
			{
				MethodName: "GetSettings",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(GetSettingsRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.GetSettings(ctx, in)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "shim_internal.proto",
	}, srv)
}
