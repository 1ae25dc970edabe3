package netjoin

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-uartbridge/logger"
	"github.com/stretchr/testify/require"
)

type countingJoiner struct {
	readyAfter int
	polls      int
}

func (c *countingJoiner) IsReady() bool {
	c.polls++
	return c.polls > c.readyAfter
}

func (c *countingJoiner) LocalAddress() net.IP { return net.IPv4(192, 168, 1, 50) }

func testLogger() logger.Logger {
	return logger.NewMockLogger().AllowAll()
}

func TestWaitReady(t *testing.T) {
	require := require.New(t)

	j := &countingJoiner{readyAfter: 2}
	addr, err := WaitReady(context.Background(), j, 5, time.Millisecond, testLogger())
	require.NoError(err)
	require.True(addr.Equal(net.IPv4(192, 168, 1, 50)))
	require.Equal(3, j.polls)
}

func TestWaitReady_BudgetExhausted(t *testing.T) {
	require := require.New(t)

	j := &countingJoiner{readyAfter: 100}
	_, err := WaitReady(context.Background(), j, 3, time.Millisecond, testLogger())
	require.ErrorIs(err, ErrNotReady)
	require.Equal(3, j.polls)
}

func TestWaitReady_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := &countingJoiner{readyAfter: 100}
	_, err := WaitReady(ctx, j, 10, time.Hour, testLogger())
	require.True(t, errors.Is(err, context.Canceled))
}

func TestStaticJoiner(t *testing.T) {
	addr, err := WaitReady(context.Background(), StaticJoiner{Addr: net.IPv4(10, 0, 0, 2)}, 1, 0, testLogger())
	require.NoError(t, err)
	require.Equal(t, "10.0.0.2", addr.String())
}

type fakeInterfaces struct {
	ifaces []net.Interface
	addrs  map[string][]net.Addr
}

func (f fakeInterfaces) Interfaces() ([]net.Interface, error) { return f.ifaces, nil }

func (f fakeInterfaces) Addrs(iface net.Interface) ([]net.Addr, error) {
	return f.addrs[iface.Name], nil
}

func TestInterfaceJoiner(t *testing.T) {
	require := require.New(t)

	src := fakeInterfaces{
		ifaces: []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
			{Name: "eth0", Flags: 0},
			{Name: "wlan0", Flags: net.FlagUp},
		},
		addrs: map[string][]net.Addr{
			"lo":    {&net.IPNet{IP: net.IPv4(127, 0, 0, 1), Mask: net.CIDRMask(8, 32)}},
			"eth0":  {&net.IPNet{IP: net.IPv4(10, 0, 0, 9), Mask: net.CIDRMask(24, 32)}},
			"wlan0": {&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)}},
		},
	}

	j := &InterfaceJoiner{source: src}
	require.False(j.IsReady(), "link-local v6 only and eth0 down")

	src.addrs["wlan0"] = append(src.addrs["wlan0"],
		&net.IPNet{IP: net.IPv4(192, 168, 4, 20), Mask: net.CIDRMask(24, 32)})
	require.True(j.IsReady())
	require.Equal("192.168.4.20", j.LocalAddress().String())

	lo := &InterfaceJoiner{Name: "lo", source: src}
	require.Equal("127.0.0.1", lo.LocalAddress().String())

	missing := &InterfaceJoiner{Name: "usb0", source: src}
	require.False(missing.IsReady())
}
