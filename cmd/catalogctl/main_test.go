package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unabstore/shop/internal/auth"
	"github.com/unabstore/shop/internal/catalog/app"
	"github.com/unabstore/shop/internal/catalog/service"
	"github.com/unabstore/shop/internal/catalog/store"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// startCatalog serves the catalog over gRPC on a random local port and returns its address and a valid token.
func startCatalog(t *testing.T) (string, string) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	gw, err := auth.NewLocalGateway([]byte(strings.Repeat("c", 32)), "catalogctl-test")
	require.NoError(t, err)
	session, err := gw.SignUp(context.Background(), auth.SignUpDto{
		Name: "Ana", Email: "ana@unab.edu.co", Password: "secreto", ConfirmPassword: "secreto",
	})
	require.NoError(t, err)

	svc := service.NewService(store.NewInMemoryStore(store.DefaultCollection), nil, service.WithLogger(logger))
	deps := app.SetupDependencies(svc, gw, logger, nil)
	grpcServer := app.SetupGrpcServer(deps, false)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(func() {
		svc.Close()
		grpcServer.Stop()
	})
	return lis.Addr().String(), session.AccessToken
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).RunContext(context.Background(), append([]string{"catalogctl"}, args...))
	return out.String(), err
}

func TestCatalogctl(t *testing.T) {
	addr, token := startCatalog(t)

	// add
	out, err := runCLI(t, "--addr", addr, "--token", token, "add", "--name", "Cuaderno", "--description", "100 hojas", "--price", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, "Producto agregado correctamente")
	id := strings.TrimSpace(strings.TrimPrefix(out, "Producto agregado correctamente:"))
	require.NotEmpty(t, id)

	// list is public
	out, err = runCLI(t, "--addr", addr, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cuaderno")
	assert.Contains(t, out, id)

	// watch
	out, err = runCLI(t, "--addr", addr, "--token", token, "watch", "--max", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "snapshot 1")
	assert.Contains(t, out, "Cuaderno")

	// writes need a token
	_, err = runCLI(t, "--addr", addr, "delete", id)
	require.Error(t, err)

	// delete
	out, err = runCLI(t, "--addr", addr, "--token", token, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+id)

	out, err = runCLI(t, "--addr", addr, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, id)
}

func TestCatalogctl_validation(t *testing.T) {
	// given
	addr, token := startCatalog(t)

	// when
	_, err := runCLI(t, "--addr", addr, "--token", token, "add", "--name", " ", "--price", "10")

	// then
	require.Error(t, err)
	assert.Equal(t, "El nombre es obligatorio", describe(err))
}

func TestDescribe(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{name: "plain error", err: errors.New("boom"), want: "boom"},
		{name: "wrapped status", err: fmt.Errorf("create product: %w", status.Error(codes.InvalidArgument, "El nombre es obligatorio")), want: "El nombre es obligatorio"},
		{name: "bare status", err: status.Error(codes.Unavailable, "catalog unavailable"), want: "catalog unavailable"},
		{name: "status without message", err: fmt.Errorf("delete product: %w", status.Error(codes.Internal, "")), want: "delete product: rpc error: code = Internal desc = "},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, describe(tc.err))
		})
	}
}

func TestCatalogctl_missingFlag(t *testing.T) {
	// when
	_, err := runCLI(t, "add", "--price", "10")

	// then
	require.Error(t, err)
	assert.Contains(t, describe(err), `"name"`)
}

func TestCatalogctl_defaultAddressMatchesService(t *testing.T) {
	// given
	ctl := newApp(&bytes.Buffer{})

	// then
	for _, f := range ctl.Flags {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "addr" {
			assert.Equal(t, "localhost:9090", sf.Value)
			return
		}
	}
	t.Fatal("addr flag not found")
}
