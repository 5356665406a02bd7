package auth

import (
	"context"
	"slices"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func identify(ctx context.Context, gateway Gateway) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization metadata is required")
	}
	token, ok := bearerToken(values[0])
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "bearer token is required")
	}
	id, err := gateway.Identify(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, MsgUnauthenticated)
	}
	return WithIdentity(ctx, *id), nil
}

// UnaryServerInterceptor authenticates every unary call except the public methods.
func UnaryServerInterceptor(gateway Gateway, public ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if slices.Contains(public, info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, err := identify(ctx, gateway)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

type identifiedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identifiedStream) Context() context.Context {
	return s.ctx
}

// StreamServerInterceptor authenticates every streaming call except the public methods.
func StreamServerInterceptor(gateway Gateway, public ...string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if slices.Contains(public, info.FullMethod) {
			return handler(srv, ss)
		}
		ctx, err := identify(ss.Context(), gateway)
		if err != nil {
			return err
		}
		return handler(srv, &identifiedStream{ServerStream: ss, ctx: ctx})
	}
}

// BearerCredentials attaches a bearer token to outgoing calls.
type BearerCredentials struct {
	Token    string
	Insecure bool
}

func (c BearerCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + c.Token}, nil
}

func (c BearerCredentials) RequireTransportSecurity() bool {
	return !c.Insecure
}
