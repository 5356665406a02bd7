// Package app wires the catalog service: collection, feed, auth gateway and transports.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unabstore/shop/internal/auth"
	authrest "github.com/unabstore/shop/internal/auth/transport/rest"
	"github.com/unabstore/shop/internal/catalog/config"
	"github.com/unabstore/shop/internal/catalog/service"
	grpcImpl "github.com/unabstore/shop/internal/catalog/transport/grpc"
	"github.com/unabstore/shop/internal/catalog/transport/rest"
	catalogv1 "github.com/unabstore/shop/pkg/api/catalog/v1"
	"github.com/unabstore/shop/pkg/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

const serviceName = "catalog"

type Dependencies struct {
	ProductService service.ProductService
	Gateway        auth.Gateway
	Logger         *slog.Logger
	AllowedOrigins []string
}

func SetupDependencies(products service.ProductService, gateway auth.Gateway, logger *slog.Logger, allowedOrigins []string) *Dependencies {
	return &Dependencies{
		ProductService: products,
		Gateway:        gateway,
		Logger:         logger,
		AllowedOrigins: allowedOrigins,
	}
}

// SetupHttpHandler builds the router with every catalog and auth route.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger, deps.AllowedOrigins)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, serviceName)
}

// wireRoutes sets up the HTTP routes for the catalog service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	requireAuth := auth.RequireIdentity(deps.Gateway, deps.Logger)
	rest.NewHandler(deps.ProductService, deps.Logger).RegisterRoutes(mux, requireAuth)
	authrest.NewHandler(deps.Gateway, deps.Logger).RegisterRoutes(mux, requireAuth)
	mux.Handle("/metrics", promhttp.Handler())
}

// SetupHttpServer creates and configures the HTTP server of the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server. Every method except ListProducts requires a bearer token.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *server.GRPCServer {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(auth.UnaryServerInterceptor(deps.Gateway, catalogv1.ListProductsFullMethodName)),
		grpc.ChainStreamInterceptor(auth.StreamServerInterceptor(deps.Gateway)),
	}
	catalogRegisterFunc := func(s *grpc.Server) {
		catalogv1.RegisterCatalogServiceServer(s, grpcImpl.NewServer(deps.ProductService, deps.Logger))
	}
	return server.NewGRPCServer(reflectionEnabled, opts, catalogRegisterFunc)
}
