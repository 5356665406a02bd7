package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/unabstore/shop/pkg/config"
)

// MarkReady creates the readiness file checked by the orchestrator's exec probe.
func MarkReady(cfg config.ProbesConfig) error {
	if err := touch(cfg.ReadinessFileName); err != nil {
		return fmt.Errorf("failed to create readiness file: %w", err)
	}
	return nil
}

// RunLiveness refreshes the liveness file every cfg.LivenessInterval until ctx is done.
// Both probe files are removed on return.
func RunLiveness(ctx context.Context, cfg config.ProbesConfig, logger *slog.Logger) error {
	ticker := time.NewTicker(cfg.LivenessInterval)
	defer ticker.Stop()
	defer func() {
		_ = os.Remove(cfg.LivenessFileName)
		_ = os.Remove(cfg.ReadinessFileName)
	}()

	if err := touch(cfg.LivenessFileName); err != nil {
		return fmt.Errorf("failed to create liveness file: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := touch(cfg.LivenessFileName); err != nil {
				logger.Warn("failed to refresh liveness file", slog.Any("error", err))
			}
		}
	}
}

func touch(name string) error {
	now := time.Now()
	if err := os.Chtimes(name, now, now); err == nil {
		return nil
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	return f.Close()
}
