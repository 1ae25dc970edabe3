package uart

import (
	"bytes"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/arloliu/go-uartbridge/logger"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort accepts at most chunk bytes per Write call.
type fakePort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	chunk  int
	err    error
	closed bool
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	n := len(p)
	if f.chunk > 0 && n > f.chunk {
		n = f.chunk
	}
	f.buf.Write(p[:n])

	return n, nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func stubOpen(t *testing.T, fp *fakePort) *serial.Mode {
	t.Helper()

	var gotMode serial.Mode
	orig := openRawPort
	openRawPort = func(_ string, mode *serial.Mode) (rawPort, error) {
		gotMode = *mode
		return fp, nil
	}
	t.Cleanup(func() { openRawPort = orig })

	return &gotMode
}

func testLogger() logger.Logger {
	return logger.NewMockLogger().AllowAll()
}

func TestNewPortConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := NewPortConfig("/dev/ttyUSB0")
	require.NoError(err)
	require.Equal("/dev/ttyUSB0", cfg.Device())
	require.Equal(DefaultBaudRate, cfg.BaudRate())
	require.Equal(DefaultDataBits, cfg.DataBits())
	require.Equal(NoParity, cfg.Parity())
	require.Equal(OneStopBit, cfg.StopBits())

	cfg, err = NewPortConfig("/dev/ttyAMA0",
		WithBaudRate(9600), WithDataBits(7), WithParity(EvenParity), WithStopBits(TwoStopBits))
	require.NoError(err)
	require.Equal(&serial.Mode{
		BaudRate: 9600,
		DataBits: 7,
		Parity:   serial.EvenParity,
		StopBits: serial.TwoStopBits,
	}, cfg.mode())

	_, err = NewPortConfig("")
	require.Error(err)

	_, err = NewPortConfig("/dev/x", WithBaudRate(0))
	require.Error(err)

	_, err = NewPortConfig("/dev/x", WithDataBits(9))
	require.Error(err)

	_, err = NewPortConfig("", WithDevicePattern("("))
	require.Error(err)
}

func TestParseParityAndStopBits(t *testing.T) {
	require := require.New(t)

	p, err := ParseParity("Even")
	require.NoError(err)
	require.Equal(EvenParity, p)
	require.Equal("even", p.String())

	_, err = ParseParity("sometimes")
	require.Error(err)

	s, err := ParseStopBits("1.5")
	require.NoError(err)
	require.Equal(OnePointFiveStopBits, s)
	require.Equal("1.5", s.String())

	_, err = ParseStopBits("3")
	require.Error(err)
}

func TestPort_WriteAll(t *testing.T) {
	require := require.New(t)

	fp := &fakePort{chunk: 3}
	mode := stubOpen(t, fp)

	cfg, err := NewPortConfig("/dev/ttyS0", WithBaudRate(57600), WithLogger(testLogger()))
	require.NoError(err)

	port, err := OpenPort(cfg)
	require.NoError(err)
	require.Equal("/dev/ttyS0", port.Device())
	require.Equal(57600, mode.BaudRate)

	require.NoError(port.Write([]byte("C:255,0,0\n")))
	require.Equal("C:255,0,0\n", fp.buf.String())

	require.NoError(port.Close())
	require.True(fp.closed)
	require.ErrorIs(port.Write([]byte("x")), ErrPortClosed)
	require.NoError(port.Close())
}

func TestPort_WriteError(t *testing.T) {
	require := require.New(t)

	ioErr := errors.New("device unplugged")
	fp := &fakePort{err: ioErr}
	stubOpen(t, fp)

	cfg, err := NewPortConfig("/dev/ttyS0", WithLogger(testLogger()))
	require.NoError(err)
	port, err := OpenPort(cfg)
	require.NoError(err)

	require.ErrorIs(port.Write([]byte("hello")), ioErr)
}

func TestPort_OpenError(t *testing.T) {
	orig := openRawPort
	openRawPort = func(string, *serial.Mode) (rawPort, error) {
		return nil, errors.New("permission denied")
	}
	t.Cleanup(func() { openRawPort = orig })

	cfg, err := NewPortConfig("/dev/ttyS9", WithLogger(testLogger()))
	require.NoError(t, err)

	_, err = OpenPort(cfg)
	require.ErrorContains(t, err, "/dev/ttyS9")
}

func TestDiscover(t *testing.T) {
	require := require.New(t)

	orig := listPorts
	listPorts = func() ([]string, error) {
		return []string{"/dev/ttyS0", "/dev/ttyACM0", "/dev/ttyACM1"}, nil
	}
	t.Cleanup(func() { listPorts = orig })

	name, err := Discover(regexp.MustCompile(`ttyACM\d+$`))
	require.NoError(err)
	require.Equal("/dev/ttyACM0", name)

	name, err = Discover(nil)
	require.NoError(err)
	require.Equal("/dev/ttyS0", name)

	_, err = Discover(regexp.MustCompile(`ttyUSB`))
	require.ErrorIs(err, ErrNoDevice)

	fp := &fakePort{}
	stubOpen(t, fp)
	cfg, err := NewPortConfig("", WithDevicePattern("ACM1"), WithLogger(testLogger()))
	require.NoError(err)
	port, err := OpenPort(cfg)
	require.NoError(err)
	require.Equal("/dev/ttyACM1", port.Device())
}
