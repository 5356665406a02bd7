// Package catalog is a typed client for catalog.v1.CatalogService.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	catalogv1 "github.com/unabstore/shop/pkg/api/catalog/v1"
	"github.com/unabstore/shop/pkg/client/grpc/interceptors"
	"github.com/unabstore/shop/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrDegraded is returned by List when the server could not read the collection.
var ErrDegraded = errors.New("catalog degraded")

type Client struct {
	api  catalogv1.CatalogServiceClient
	conn *grpc.ClientConn
}

// DialOptions returns the client interceptor chain: per-call timeout, retries
// on transient codes and a circuit breaker, plus tracing. Streams share the
// breaker but are neither retried nor bounded by the call timeout.
func DialOptions(cfg config.GrpcClientConfig, res config.ResilienceConfig) []grpc.DialOption {
	breaker := interceptors.NewBreaker("catalog", res.CircuitBreaker, slog.Default())
	return []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(
			breaker.Unary(),
			interceptors.NewRetryInterceptor(res.Retry),
			interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
		),
		grpc.WithChainStreamInterceptor(breaker.Stream()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Dial connects to the catalog service at cfg.Addr.
func Dial(cfg config.GrpcClientConfig, res config.ResilienceConfig, opts ...grpc.DialOption) (*Client, error) {
	conn, err := grpc.NewClient(cfg.Addr, append(DialOptions(cfg, res), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return &Client{api: catalogv1.NewCatalogServiceClient(conn), conn: conn}, nil
}

// New wraps an existing connection.
func New(cc grpc.ClientConnInterface) *Client {
	return &Client{api: catalogv1.NewCatalogServiceClient(cc)}
}

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Create adds a product. It returns the stored product and the confirmation message.
func (c *Client) Create(ctx context.Context, name, description, price string) (catalogv1.Product, string, error) {
	req, err := catalogv1.ProductToStruct(catalogv1.Product{Name: name, Description: description, Price: price})
	if err != nil {
		return catalogv1.Product{}, "", err
	}
	res, err := c.api.CreateProduct(ctx, req)
	if err != nil {
		return catalogv1.Product{}, "", fmt.Errorf("create product: %w", err)
	}
	return catalogv1.ProductFromStruct(res), res.GetFields()["message"].GetStringValue(), nil
}

// List returns every product. A degraded answer returns the (empty) list and ErrDegraded.
func (c *Client) List(ctx context.Context) ([]catalogv1.Product, error) {
	res, err := c.api.ListProducts(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	snap := catalogv1.SnapshotFromStruct(res)
	if snap.Error != "" {
		return snap.Products, fmt.Errorf("%w: %s", ErrDegraded, snap.Error)
	}
	return snap.Products, nil
}

// Delete removes the product with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	res, err := c.api.DeleteProduct(ctx, wrapperspb.String(id))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !res.GetValue() {
		return fmt.Errorf("delete product %q: not confirmed", id)
	}
	return nil
}

// Observe calls fn with every snapshot until ctx is done, the server ends the
// stream or fn returns an error.
func (c *Client) Observe(ctx context.Context, fn func(catalogv1.Snapshot) error) error {
	stream, err := c.api.ObserveProducts(ctx, &emptypb.Empty{})
	if err != nil {
		return fmt.Errorf("observe products: %w", err)
	}
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("observe products: %w", err)
		}
		if err := fn(catalogv1.SnapshotFromStruct(msg)); err != nil {
			return err
		}
	}
}
