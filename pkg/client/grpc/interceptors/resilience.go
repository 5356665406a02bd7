// Package interceptors holds gRPC client interceptors for timeouts, retries and circuit breaking.
package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/sony/gobreaker/v2"
	"github.com/unabstore/shop/pkg/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// retryCodes are retried by the client.
var retryCodes = []codes.Code{codes.Unavailable, codes.ResourceExhausted, codes.Aborted}

// failureCodes count against the circuit breaker. A call that timed out is a
// failure of the server but is not retried: its budget is spent.
var failureCodes = append(slices.Clone(retryCodes), codes.DeadlineExceeded)

// NewRetryInterceptor retries transient failures with exponential backoff.
// MaxAttempts counts the first call.
func NewRetryInterceptor(cfg config.RetryConfig) grpc.UnaryClientInterceptor {
	return retry.UnaryClientInterceptor(
		retry.WithCodes(retryCodes...),
		retry.WithMax(cfg.MaxAttempts),
		retry.WithBackoff(retry.BackoffExponential(cfg.InitialBackoff)),
	)
}

// openError is returned while the breaker rejects calls. It reads as
// codes.Unavailable to gRPC callers and matches gobreaker's sentinels.
type openError struct {
	name  string
	cause error
}

func (e *openError) Error() string {
	return "circuit breaker " + e.name + ": " + e.cause.Error()
}

func (e *openError) Unwrap() error {
	return e.cause
}

func (e *openError) GRPCStatus() *status.Status {
	return status.New(codes.Unavailable, e.Error())
}

// Breaker is a circuit breaker shared by the unary and stream calls of one client.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewBreaker builds a named breaker. It opens after more than ConsecutiveFailures
// failures in a row, or when more than ErrorRatePercent of the calls counted in
// the current window failed.
func NewBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

func (b *Breaker) execute(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &openError{name: b.cb.Name(), cause: err}
	}
	return err
}

// Unary wraps unary calls in the breaker.
func (b *Breaker) Unary() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return b.execute(func() error {
			return invoker(ctx, method, req, reply, cc, opts...)
		})
	}
}

// Stream wraps stream creation in the breaker. Errors on an established stream are not counted.
func (b *Breaker) Stream() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		var cs grpc.ClientStream
		err := b.execute(func() error {
			var err error
			cs, err = streamer(ctx, desc, cc, method, opts...)
			return err
		})
		return cs, err
	}
}

// NewCircuitBreaker builds a breaker that guards unary calls only.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) grpc.UnaryClientInterceptor {
	return NewBreaker(name, cfg, logger).Unary()
}

// isSuccessful tells the breaker whether err is a failure of the server.
// Caller cancellation and application errors such as InvalidArgument are not.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return !slices.Contains(failureCodes, st.Code())
}
