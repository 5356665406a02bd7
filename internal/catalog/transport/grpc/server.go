// Package grpc provides the gRPC server for the catalog service.
package grpc

import (
	"context"
	"errors"
	"log/slog"

	cerrors "github.com/unabstore/shop/internal/catalog/errors"
	"github.com/unabstore/shop/internal/catalog/service"
	catalogv1 "github.com/unabstore/shop/pkg/api/catalog/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	// Embed the unimplemented server for forward compatibility
	catalogv1.UnimplementedCatalogServiceServer
	service service.ProductService
	logger  *slog.Logger
}

func NewServer(service service.ProductService, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

func (s *Server) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := catalogv1.ProductFromStruct(req)
	res, err := s.service.Create(ctx, service.ProductCreateDto{
		Name:        in.Name,
		Description: in.Description,
		Price:       service.PriceText(in.Price),
	})
	if err != nil {
		return nil, s.toStatus(ctx, "CreateProduct", err)
	}
	out, err := catalogv1.ProductToStruct(toWire(res.Product))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode product: %v", err)
	}
	out.Fields["message"] = structpb.NewStringValue(res.Message)
	return out, nil
}

// ListProducts answers with every product. A failed read is an empty list carrying an error message.
func (s *Server) ListProducts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	list, err := s.service.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "ListProducts failed", "error", err)
	}
	return snapshotStruct(service.Snapshot{Products: list, Err: err})
}

func (s *Server) DeleteProduct(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if err := s.service.Delete(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(ctx, "DeleteProduct", err)
	}
	return wrapperspb.Bool(true), nil
}

// ObserveProducts streams a message per snapshot until the client cancels.
func (s *Server) ObserveProducts(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	sub, err := s.service.Observe(ctx)
	if err != nil {
		return s.toStatus(ctx, "ObserveProducts", err)
	}
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Updates():
			if !ok {
				return status.Error(codes.Unavailable, "catalog stream closed")
			}
			msg, err := snapshotStruct(snap)
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

// toStatus maps catalog errors to gRPC status codes.
func (s *Server) toStatus(ctx context.Context, method string, err error) error {
	var verr *cerrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, cerrors.UserMessage(err))
	case errors.Is(err, cerrors.ErrServiceClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.ErrorContext(ctx, method+" failed", "error", err)
		return status.Error(codes.Internal, cerrors.UserMessage(err))
	}
}

func toWire(p service.ProductDto) catalogv1.Product {
	return catalogv1.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
	}
}

func snapshotStruct(snap service.Snapshot) (*structpb.Struct, error) {
	wire := catalogv1.Snapshot{Products: make([]catalogv1.Product, len(snap.Products))}
	for i, p := range snap.Products {
		wire.Products[i] = toWire(p)
	}
	if snap.Err != nil {
		wire.Error = cerrors.UserMessage(snap.Err)
	}
	msg, err := catalogv1.SnapshotToStruct(wire)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode snapshot: %v", err)
	}
	return msg, nil
}
