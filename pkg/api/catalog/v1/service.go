// Package catalogv1 describes the catalog.v1.CatalogService gRPC contract.
// Messages are protobuf well-known types, so no generated code is needed.
package catalogv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "catalog.v1.CatalogService"

const (
	CreateProductFullMethodName   = "/" + ServiceName + "/CreateProduct"
	ListProductsFullMethodName    = "/" + ServiceName + "/ListProducts"
	DeleteProductFullMethodName   = "/" + ServiceName + "/DeleteProduct"
	ObserveProductsFullMethodName = "/" + ServiceName + "/ObserveProducts"
)

// CatalogServiceServer is the server API for the catalog service.
type CatalogServiceServer interface {
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	DeleteProduct(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	ObserveProducts(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// UnimplementedCatalogServiceServer must be embedded to have forward compatible implementations.
type UnimplementedCatalogServiceServer struct{}

func (UnimplementedCatalogServiceServer) CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateProduct not implemented")
}

func (UnimplementedCatalogServiceServer) ListProducts(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListProducts not implemented")
}

func (UnimplementedCatalogServiceServer) DeleteProduct(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DeleteProduct not implemented")
}

func (UnimplementedCatalogServiceServer) ObserveProducts(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Errorf(codes.Unimplemented, "method ObserveProducts not implemented")
}

// RegisterCatalogServiceServer registers srv with s.
func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogService_ServiceDesc, srv)
}

func unaryHandler[Req any, Res any](fullMethod string, call func(CatalogServiceServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func observeProductsHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CatalogServiceServer).ObserveProducts(m, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// CatalogService_ServiceDesc is the grpc.ServiceDesc for the catalog service.
var CatalogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateProduct",
			Handler: unaryHandler(CreateProductFullMethodName, func(s CatalogServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.CreateProduct(ctx, in)
			}),
		},
		{
			MethodName: "ListProducts",
			Handler: unaryHandler(ListProductsFullMethodName, func(s CatalogServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return s.ListProducts(ctx, in)
			}),
		},
		{
			MethodName: "DeleteProduct",
			Handler: unaryHandler(DeleteProductFullMethodName, func(s CatalogServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
				return s.DeleteProduct(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ObserveProducts",
			Handler:       observeProductsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "catalog/v1/catalog.proto",
}

// CatalogServiceClient is the client API for the catalog service.
type CatalogServiceClient interface {
	CreateProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListProducts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteProduct(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	ObserveProducts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

type catalogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogServiceClient(cc grpc.ClientConnInterface) CatalogServiceClient {
	return &catalogServiceClient{cc}
}

func (c *catalogServiceClient) CreateProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CreateProductFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogServiceClient) ListProducts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListProductsFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogServiceClient) DeleteProduct(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, DeleteProductFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogServiceClient) ObserveProducts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &CatalogService_ServiceDesc.Streams[0], ObserveProductsFullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
