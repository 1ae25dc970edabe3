package bridge

import (
	"fmt"
	"net"
)

// Role is the protocol spoken on a listening endpoint.
type Role int

const (
	// RoleControl is the request/response endpoint for commands and the status page.
	RoleControl Role = iota
	// RoleRelay is the raw byte-stream passthrough endpoint.
	RoleRelay
)

func (r Role) String() string {
	switch r {
	case RoleControl:
		return "control"
	case RoleRelay:
		return "relay"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ListenEndpoint is a bound listening socket with its protocol role.
type ListenEndpoint struct {
	role     Role
	backlog  int
	listener net.Listener
}

// Listen binds a listening endpoint for role on addr.
func Listen(role Role, addr string, backlog int) (*ListenEndpoint, error) {
	ln, err := listenTCP(addr, backlog)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrListen, role, addr, err)
	}

	return &ListenEndpoint{role: role, backlog: backlog, listener: ln}, nil
}

// Role returns the endpoint's protocol role.
func (e *ListenEndpoint) Role() Role { return e.role }

// Addr returns the bound address.
func (e *ListenEndpoint) Addr() net.Addr { return e.listener.Addr() }

// Backlog returns the requested listen backlog.
func (e *ListenEndpoint) Backlog() int { return e.backlog }

// Accept waits for and returns the next connection.
func (e *ListenEndpoint) Accept() (net.Conn, error) { return e.listener.Accept() }

// Close closes the listener. Blocked Accept calls return net.ErrClosed.
func (e *ListenEndpoint) Close() error { return e.listener.Close() }
