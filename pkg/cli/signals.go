package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a child of parent that is cancelled on SIGINT or
// SIGTERM. Call stop to release the signal registration.
func SignalContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
