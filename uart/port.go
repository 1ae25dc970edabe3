package uart

import (
	"fmt"
	"io"
	"regexp"
	"sync"

	"go.bug.st/serial"
)

// rawPort is the subset of serial.Port used by Port.
type rawPort interface {
	io.Writer
	io.Closer
}

var (
	openRawPort = func(device string, mode *serial.Mode) (rawPort, error) {
		return serial.Open(device, mode)
	}
	listPorts = serial.GetPortsList
)

// Port is a Channel backed by a UART.
//
// Writes are serialized, so a Port may be shared by several goroutines.
type Port struct {
	cfg    *PortConfig
	device string

	mu     sync.Mutex
	port   rawPort
	closed bool
}

var _ Channel = (*Port)(nil)

// OpenPort opens the serial port described by cfg.
func OpenPort(cfg *PortConfig) (*Port, error) {
	device := cfg.device
	if device == "" {
		var err error
		if device, err = Discover(cfg.devicePattern); err != nil {
			return nil, err
		}
	}

	raw, err := openRawPort(device, cfg.mode())
	if err != nil {
		return nil, fmt.Errorf("uart: open %s: %w", device, err)
	}

	cfg.logger.Info("serial port opened",
		"device", device,
		"baudRate", cfg.baudRate,
		"dataBits", cfg.dataBits,
		"parity", cfg.parity,
		"stopBits", cfg.stopBits,
	)

	return &Port{cfg: cfg, device: device, port: raw}, nil
}

// Discover returns the first serial port whose name matches pattern.
// A nil pattern matches any port.
func Discover(pattern *regexp.Regexp) (string, error) {
	names, err := listPorts()
	if err != nil {
		return "", fmt.Errorf("uart: list ports: %w", err)
	}

	for _, name := range names {
		if pattern == nil || pattern.MatchString(name) {
			return name, nil
		}
	}

	return "", ErrNoDevice
}

// Device returns the path of the opened device.
func (p *Port) Device() string {
	return p.device
}

// Write implements Channel. It writes all of b, or returns the first error.
func (p *Port) Write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}

	for len(b) > 0 {
		n, err := p.port.Write(b)
		if err != nil {
			return fmt.Errorf("uart: write %s: %w", p.device, err)
		}
		if n == 0 {
			return ErrShortWrite
		}
		b = b[n:]
	}

	return nil
}

// Close closes the port. Further writes return ErrPortClosed.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.cfg.logger.Info("serial port closed", "device", p.device)

	return p.port.Close()
}
