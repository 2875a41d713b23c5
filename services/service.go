// Package services defines the long-running parts of a node the application starts and stops
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service is a background component with a bounded shutdown
type Service interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

// StartAll starts svcs in order. On failure the ones already started are stopped.
func StartAll(ctx context.Context, svcs []Service) error {
	for i, s := range svcs {
		if err := s.Start(); err != nil {
			StopAll(ctx, svcs[:i], zap.S())
			return fmt.Errorf("failed to start %s: %w", s.Name(), err)
		}
	}
	return nil
}

// StopAll stops svcs in reverse start order, errors are logged and do not interrupt the others
func StopAll(ctx context.Context, svcs []Service, log *zap.SugaredLogger) {
	for i := len(svcs) - 1; i >= 0; i-- {
		s := svcs[i]
		if err := s.Stop(ctx); err != nil {
			log.Warnw("failed to stop service", "service", s.Name(), "error", err)
		}
	}
}
