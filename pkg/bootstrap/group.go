package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/unabstore/shop/pkg/server"
	"golang.org/x/sync/errgroup"
)

// Group runs the long-lived parts of a service. The first failure, or the end
// of the parent context, stops all of them.
type Group struct {
	eg      *errgroup.Group
	ctx     context.Context
	timeout time.Duration
	logger  *slog.Logger
}

// NewGroup returns a group bound to ctx. shutdownTimeout bounds each stop hook.
func NewGroup(ctx context.Context, shutdownTimeout time.Duration, logger *slog.Logger) *Group {
	eg, gCtx := errgroup.WithContext(ctx)
	return &Group{eg: eg, ctx: gCtx, timeout: shutdownTimeout, logger: logger}
}

// Context is done once the group is stopping.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Go runs fn. A context.Canceled result is a clean stop.
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

// OnStop runs fn once the group is stopping, with a context bounded by the shutdown timeout.
func (g *Group) OnStop(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		<-g.ctx.Done()
		g.logger.Info("Shutting down " + name)
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return fmt.Errorf("failed to stop %s: %w", name, err)
		}
		return nil
	})
}

// HTTP serves srv until the group stops. before runs ahead of Shutdown;
// long-lived responses must be ended there or Shutdown waits for them.
func (g *Group) HTTP(name string, srv *http.Server, before ...func()) {
	g.Go(name, func(context.Context) error {
		g.logger.Info(name+" listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.OnStop(name, func(ctx context.Context) error {
		for _, fn := range before {
			fn()
		}
		return srv.Shutdown(ctx)
	})
}

// GRPC serves srv on addr until the group stops.
func (g *Group) GRPC(addr string, srv *server.GRPCServer) {
	g.Go("gRPC server", func(context.Context) error {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		g.logger.Info("gRPC server listening", slog.String("addr", addr))
		return srv.Serve(lis)
	})
	g.OnStop("gRPC server", func(context.Context) error {
		return srv.Shutdown(g.timeout)
	})
}

// Wait blocks until every part has returned and reports the first failure.
func (g *Group) Wait() error {
	return g.eg.Wait()
}
