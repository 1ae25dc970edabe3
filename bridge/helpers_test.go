package bridge

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/arloliu/go-uartbridge/logger"
	"github.com/arloliu/go-uartbridge/uart"
	"github.com/stretchr/testify/require"
)

const testWait = 3 * time.Second

type testBridge struct {
	*Bridge
	rec     *uart.Recorder
	results chan Result
	log     *logger.MockLogger
}

func newTestBridge(t *testing.T, opts ...ConfigOption) *testBridge {
	t.Helper()

	tb := &testBridge{
		rec:     uart.NewRecorder(),
		results: make(chan Result, 64),
		log:     logger.NewMockLogger().AllowAll(),
	}

	base := []ConfigOption{
		WithControlAddr("127.0.0.1:0"),
		WithRelayAddr("127.0.0.1:0"),
		WithLogger(tb.log),
		WithPageLoader(StaticLoader("<h1>ok</h1>")),
		WithResultHandler(func(r Result) { tb.results <- r }),
	}
	cfg, err := NewConfig(append(base, opts...)...)
	require.NoError(t, err)

	tb.Bridge, err = New(cfg, tb.rec)
	require.NoError(t, err)
	require.NoError(t, tb.Listen())

	runErr := make(chan error, 1)
	go func() { runErr <- tb.Run(context.Background()) }()

	t.Cleanup(func() {
		require.NoError(t, tb.Close())
		select {
		case err := <-runErr:
			require.NoError(t, err)
		case <-time.After(testWait):
			t.Error("bridge loop did not stop")
		}
	})

	return tb
}

func (tb *testBridge) waitResult(t *testing.T) Result {
	t.Helper()

	select {
	case res := <-tb.results:
		return res
	case <-time.After(testWait):
		t.Fatal("timed out waiting for connection result")
	}

	return Result{}
}

func dial(t *testing.T, addr net.Addr) *net.TCPConn {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr.String(), testWait)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn.(*net.TCPConn)
}

// control sends a raw request to the control endpoint and returns the parsed response.
func control(t *testing.T, addr net.Addr, request string) (*http.Response, string) {
	t.Helper()

	conn := dial(t, addr)
	_, err := conn.Write([]byte(request))
	require.NoError(t, err)

	return readResponse(t, conn)
}

func readResponse(t *testing.T, conn net.Conn) (*http.Response, string) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testWait)))
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func readAck(t *testing.T, conn net.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testWait)))
	ack := make([]byte, len(relayAck))
	_, err := io.ReadFull(conn, ack)
	require.NoError(t, err)
	require.Equal(t, "OK\n", string(ack))
}
