// Package netjoin waits for the host network to come up before the bridge binds
// its listeners.
//
// A Joiner reports readiness and the local address; WaitReady polls it within
// a bounded retry budget and fails with ErrNotReady once the budget is spent.
package netjoin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/arloliu/go-uartbridge/logger"
)

// Default retry budget.
const (
	DefaultAttempts = 20
	DefaultInterval = time.Second
)

// ErrNotReady indicates the network did not become ready within the retry budget.
var ErrNotReady = errors.New("netjoin: network not ready")

// Joiner reports whether the network is joined and which address it was given.
type Joiner interface {
	IsReady() bool
	LocalAddress() net.IP
}

// WaitReady polls j up to attempts times, sleeping interval between polls,
// and returns the local address once it is ready.
func WaitReady(ctx context.Context, j Joiner, attempts int, interval time.Duration, l logger.Logger) (net.IP, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if l == nil {
		l = logger.GetLogger()
	}

	for i := range attempts {
		if j.IsReady() {
			addr := j.LocalAddress()
			l.Info("network ready", "address", addr, "attempt", i+1)

			return addr, nil
		}

		if i == attempts-1 {
			break
		}

		l.Debug("waiting for network", "attempt", i+1, "attempts", attempts)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrNotReady, attempts)
}

// StaticJoiner is always ready with a fixed address.
type StaticJoiner struct {
	Addr net.IP
}

// IsReady implements Joiner.
func (s StaticJoiner) IsReady() bool { return true }

// LocalAddress implements Joiner.
func (s StaticJoiner) LocalAddress() net.IP { return s.Addr }
