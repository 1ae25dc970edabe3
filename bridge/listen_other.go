//go:build !linux

package bridge

import (
	"context"
	"net"
)

// listenTCP binds addr. The backlog is left to the platform default.
func listenTCP(addr string, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(context.Background(), "tcp", addr)
}
