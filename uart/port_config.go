package uart

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arloliu/go-uartbridge/logger"
	"go.bug.st/serial"
)

// Default serial line settings.
const (
	DefaultBaudRate = 115200
	DefaultDataBits = 8
)

// Supported data bits per character.
const (
	MinDataBits = 5
	MaxDataBits = 8
)

// Parity is the serial parity mode.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
	MarkParity
	SpaceParity
)

// ParseParity converts "none", "odd", "even", "mark" or "space" to a Parity.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n":
		return NoParity, nil
	case "odd", "o":
		return OddParity, nil
	case "even", "e":
		return EvenParity, nil
	case "mark", "m":
		return MarkParity, nil
	case "space", "s":
		return SpaceParity, nil
	}
	return NoParity, fmt.Errorf("uart: unknown parity %q", s)
}

func (p Parity) mode() serial.Parity {
	switch p {
	case OddParity:
		return serial.OddParity
	case EvenParity:
		return serial.EvenParity
	case MarkParity:
		return serial.MarkParity
	case SpaceParity:
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

// StopBits is the number of serial stop bits.
type StopBits int

const (
	OneStopBit StopBits = iota
	OnePointFiveStopBits
	TwoStopBits
)

// ParseStopBits converts "1", "1.5" or "2" to StopBits.
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(s) {
	case "", "1":
		return OneStopBit, nil
	case "1.5":
		return OnePointFiveStopBits, nil
	case "2":
		return TwoStopBits, nil
	}
	return OneStopBit, fmt.Errorf("uart: unknown stop bits %q", s)
}

func (s StopBits) mode() serial.StopBits {
	switch s {
	case OnePointFiveStopBits:
		return serial.OnePointFiveStopBits
	case TwoStopBits:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// PortConfig holds the settings used to open a Port.
type PortConfig struct {
	device        string
	devicePattern *regexp.Regexp
	baudRate      int
	dataBits      int
	parity        Parity
	stopBits      StopBits

	logger logger.Logger
}

// NewPortConfig creates a serial port configuration for device.
//
// device may be empty when WithDevicePattern is given; the first available
// port whose name matches the pattern is then used.
func NewPortConfig(device string, opts ...PortOption) (*PortConfig, error) {
	cfg := &PortConfig{
		device:   device,
		baudRate: DefaultBaudRate,
		dataBits: DefaultDataBits,
		parity:   NoParity,
		stopBits: OneStopBit,
		logger:   logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.device == "" && cfg.devicePattern == nil {
		return nil, fmt.Errorf("uart: device or device pattern is required")
	}

	return cfg, nil
}

// Device returns the configured device path, which may be empty.
func (cfg *PortConfig) Device() string { return cfg.device }

// BaudRate returns the configured baud rate.
func (cfg *PortConfig) BaudRate() int { return cfg.baudRate }

// DataBits returns the configured number of data bits.
func (cfg *PortConfig) DataBits() int { return cfg.dataBits }

// Parity returns the configured parity.
func (cfg *PortConfig) Parity() Parity { return cfg.parity }

// StopBits returns the configured stop bits.
func (cfg *PortConfig) StopBits() StopBits { return cfg.stopBits }

func (cfg *PortConfig) mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: cfg.dataBits,
		Parity:   cfg.parity.mode(),
		StopBits: cfg.stopBits.mode(),
	}
}

// --- PortOption ---

// PortOption is a functional option for configuring a PortConfig.
type PortOption interface {
	apply(*PortConfig) error
}

type portOptFunc func(*PortConfig) error

func (f portOptFunc) apply(cfg *PortConfig) error { return f(cfg) }

// WithBaudRate sets the baud rate. The default is 115200.
func WithBaudRate(baud int) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if baud <= 0 {
			return fmt.Errorf("uart: invalid baud rate %d", baud)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithDataBits sets the number of data bits, 5 to 8. The default is 8.
func WithDataBits(bits int) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if bits < MinDataBits || bits > MaxDataBits {
			return fmt.Errorf("uart: data bits %d out of range [%d, %d]", bits, MinDataBits, MaxDataBits)
		}
		cfg.dataBits = bits

		return nil
	})
}

// WithParity sets the parity. The default is NoParity.
func WithParity(parity Parity) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if parity < NoParity || parity > SpaceParity {
			return fmt.Errorf("uart: invalid parity %d", parity)
		}
		cfg.parity = parity

		return nil
	})
}

// WithStopBits sets the stop bits. The default is OneStopBit.
func WithStopBits(stopBits StopBits) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if stopBits < OneStopBit || stopBits > TwoStopBits {
			return fmt.Errorf("uart: invalid stop bits %d", stopBits)
		}
		cfg.stopBits = stopBits

		return nil
	})
}

// WithDevicePattern selects the device by regular expression when no device path is given.
func WithDevicePattern(pattern string) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if pattern == "" {
			return nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("uart: invalid device pattern: %w", err)
		}
		cfg.devicePattern = re

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	})
}

func (p Parity) String() string {
	switch p {
	case NoParity:
		return "none"
	case OddParity:
		return "odd"
	case EvenParity:
		return "even"
	case MarkParity:
		return "mark"
	case SpaceParity:
		return "space"
	}
	return fmt.Sprintf("Parity(%d)", int(p))
}

func (s StopBits) String() string {
	switch s {
	case OneStopBit:
		return "1"
	case OnePointFiveStopBits:
		return "1.5"
	case TwoStopBits:
		return "2"
	}
	return fmt.Sprintf("StopBits(%d)", int(s))
}
