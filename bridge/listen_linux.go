//go:build linux

package bridge

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// bindTarget is one socket family and address to try when binding.
type bindTarget struct {
	family    int
	sa        unix.Sockaddr
	dualStack bool
}

// listenTCP binds addr with SO_REUSEADDR and an explicit listen(2) backlog.
//
// A wildcard host binds a dual-stack IPv6 socket, falling back to IPv4 on
// hosts without IPv6, like net.Listen does.
func listenTCP(addr string, backlog int) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	targets, err := bindTargets(tcpAddr)
	if err != nil {
		return nil, err
	}

	for i, target := range targets {
		ln, err := listenTarget(addr, target, backlog)
		if err != nil && i < len(targets)-1 && errors.Is(err, unix.EAFNOSUPPORT) {
			continue
		}

		return ln, err
	}

	return nil, fmt.Errorf("no address family for %s", addr)
}

func bindTargets(tcpAddr *net.TCPAddr) ([]bindTarget, error) {
	if tcpAddr.IP == nil || tcpAddr.IP.IsUnspecified() {
		return []bindTarget{
			{family: unix.AF_INET6, sa: &unix.SockaddrInet6{Port: tcpAddr.Port}, dualStack: true},
			{family: unix.AF_INET, sa: &unix.SockaddrInet4{Port: tcpAddr.Port}},
		}, nil
	}

	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa.Addr[:], ip4)

		return []bindTarget{{family: unix.AF_INET, sa: sa}}, nil
	}

	sa := &unix.SockaddrInet6{Port: tcpAddr.Port}
	copy(sa.Addr[:], tcpAddr.IP.To16())
	if tcpAddr.Zone != "" {
		id, err := zoneID(tcpAddr.Zone)
		if err != nil {
			return nil, err
		}
		sa.ZoneId = id
	}

	return []bindTarget{{family: unix.AF_INET6, sa: sa}}, nil
}

// zoneID resolves an IPv6 zone given as interface name or index.
func zoneID(zone string) (uint32, error) {
	if iface, err := net.InterfaceByName(zone); err == nil {
		return uint32(iface.Index), nil //nolint:gosec
	}

	id, err := strconv.ParseUint(zone, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown IPv6 zone %q", zone)
	}

	return uint32(id), nil
}

func listenTarget(addr string, target bindTarget, backlog int) (net.Listener, error) {
	fd, err := unix.Socket(target.family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}
	if target.dualStack {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
			_ = unix.Close(fd)
			return nil, os.NewSyscallError("setsockopt", err)
		}
	}
	if err := unix.Bind(fd, target.sa); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	f := os.NewFile(uintptr(fd), fmt.Sprintf("tcp:%s", addr))
	defer f.Close()

	// FileListener dups the descriptor; f is closed either way.
	return net.FileListener(f)
}
