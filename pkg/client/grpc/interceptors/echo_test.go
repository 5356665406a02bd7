package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// echoMethod is the full method name of the single RPC used by the interceptor tests.
const echoMethod = "/test.v1.EchoService/Echo"

// echoHandler answers an Echo call.
type echoHandler func(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error)

// registerEcho registers a one-method service backed by fn.
func registerEcho(s *grpc.Server, fn echoHandler) {
	desc := grpc.ServiceDesc{
		ServiceName: "test.v1.EchoService",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "Echo",
			Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := new(wrapperspb.StringValue)
				if err := dec(in); err != nil {
					return nil, err
				}
				return fn(ctx, in)
			},
		}},
	}
	s.RegisterService(&desc, struct{}{})
}

func callEcho(ctx context.Context, conn *grpc.ClientConn, value string) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := conn.Invoke(ctx, echoMethod, wrapperspb.String(value), out); err != nil {
		return nil, err
	}
	return out, nil
}
