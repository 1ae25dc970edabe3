//go:build linux

package bridge

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestBindTargets(t *testing.T) {
	require := require.New(t)

	for _, ip := range []net.IP{nil, net.IPv4zero, net.IPv6unspecified} {
		targets, err := bindTargets(&net.TCPAddr{IP: ip, Port: 80})
		require.NoError(err)
		require.Len(targets, 2, ip)
		require.Equal(unix.AF_INET6, targets[0].family)
		require.True(targets[0].dualStack)
		require.Equal(unix.AF_INET, targets[1].family)
	}

	targets, err := bindTargets(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080})
	require.NoError(err)
	require.Len(targets, 1)
	require.Equal(unix.AF_INET, targets[0].family)
	require.Equal([4]byte{127, 0, 0, 1}, targets[0].sa.(*unix.SockaddrInet4).Addr)

	targets, err = bindTargets(&net.TCPAddr{IP: net.ParseIP("fe80::1"), Port: 8080, Zone: "7"})
	require.NoError(err)
	require.Len(targets, 1)
	require.False(targets[0].dualStack)
	require.Equal(uint32(7), targets[0].sa.(*unix.SockaddrInet6).ZoneId)

	_, err = bindTargets(&net.TCPAddr{IP: net.ParseIP("fe80::1"), Zone: "no-such-iface0"})
	require.Error(err)
}

func TestZoneIDByName(t *testing.T) {
	lo, err := net.InterfaceByName("lo")
	if err != nil {
		t.Skip("no loopback interface named lo")
	}

	id, err := zoneID("lo")
	require.NoError(t, err)
	require.Equal(t, uint32(lo.Index), id) //nolint:gosec
}

func TestListenTCP_WildcardAcceptsIPv4(t *testing.T) {
	require := require.New(t)

	ln, err := listenTCP(":0", 4)
	require.NoError(err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
	require.NoError(err)
	conn.Close()
}
