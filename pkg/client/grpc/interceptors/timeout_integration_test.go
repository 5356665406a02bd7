package interceptors

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// skipIntegrationTests is an environment variable that can be set to skip integration tests
const skipIntegrationTests = "PKG_SKIP_INTEGRATION_TESTS"

// slowEchoAddr starts an echo server on loopback that answers after delay.
func slowEchoAddr(t *testing.T, delay time.Duration) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	grpcServer := grpc.NewServer()
	registerEcho(grpcServer, func(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
		select {
		case <-time.After(delay):
			return in, nil
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	})
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)
	return lis.Addr().String()
}

func Test_GRPCClient_TimeoutInterceptor(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	const serviceDelay = 200 * time.Millisecond
	addr := slowEchoAddr(t, serviceDelay)

	tests := []struct {
		name           string
		clientTimeout  time.Duration
		callerDeadline time.Duration
		wantCode       codes.Code
	}{
		{name: "bound shorter than the server", clientTimeout: 100 * time.Millisecond, wantCode: codes.DeadlineExceeded},
		{name: "bound longer than the server", clientTimeout: time.Second, wantCode: codes.OK},
		{name: "no bound", clientTimeout: 0, wantCode: codes.OK},
		{name: "caller deadline wins", clientTimeout: time.Second, callerDeadline: 50 * time.Millisecond, wantCode: codes.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			conn, err := grpc.NewClient(addr,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpc.WithUnaryInterceptor(UnaryClientTimeoutInterceptor(tt.clientTimeout)),
			)
			require.NoError(t, err)
			t.Cleanup(func() { _ = conn.Close() })
			ctx := context.Background()
			if tt.callerDeadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.callerDeadline)
				defer cancel()
			}

			// when
			_, err = callEcho(ctx, conn, "hola")

			// then
			require.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}
