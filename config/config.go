// Package config loads the uartbridge process configuration from a TOML file
// and maps it onto the bridge, uart, netjoin and logger packages.
package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/arloliu/go-uartbridge/bridge"
	"github.com/arloliu/go-uartbridge/logger"
	"github.com/arloliu/go-uartbridge/netjoin"
	"github.com/arloliu/go-uartbridge/uart"
)

// Config is the decoded configuration file. It is fixed at startup.
type Config struct {
	Listen  ListenConfig  `toml:"listen"`
	Serial  SerialConfig  `toml:"serial"`
	Page    PageConfig    `toml:"page"`
	Network NetworkConfig `toml:"network"`
	Log     LogConfig     `toml:"log"`
}

// ListenConfig configures both network endpoints and connection handling.
type ListenConfig struct {
	Control     string        `toml:"control"`
	Relay       string        `toml:"relay"`
	Backlog     int           `toml:"backlog"`
	BufferSize  int           `toml:"buffer_size"`
	IdleTimeout time.Duration `toml:"idle_timeout"`
	// Handlers > 0 serves that many connections at once instead of one at a time.
	Handlers int `toml:"concurrent_handlers"`
}

// SerialConfig configures the UART.
type SerialConfig struct {
	Device        string `toml:"device"`
	DevicePattern string `toml:"device_pattern"`
	BaudRate      int    `toml:"baud_rate"`
	DataBits      int    `toml:"data_bits"`
	Parity        string `toml:"parity"`
	StopBits      string `toml:"stop_bits"`
}

// PageConfig configures the status page.
type PageConfig struct {
	Path string `toml:"path"`
}

// NetworkConfig configures the wait for network readiness.
type NetworkConfig struct {
	Interface string        `toml:"interface"`
	Attempts  int           `toml:"attempts"`
	Interval  time.Duration `toml:"interval"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level     string `toml:"level"`
	AddSource bool   `toml:"add_source"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		Listen: ListenConfig{
			Control:    bridge.DefaultControlAddr,
			Relay:      bridge.DefaultRelayAddr,
			Backlog:    bridge.DefaultBacklog,
			BufferSize: bridge.DefaultBufferSize,
		},
		Serial: SerialConfig{
			BaudRate: uart.DefaultBaudRate,
			DataBits: uart.DefaultDataBits,
			Parity:   "none",
			StopBits: "1",
		},
		Page: PageConfig{Path: bridge.DefaultPagePath},
		Network: NetworkConfig{
			Attempts: netjoin.DefaultAttempts,
			Interval: netjoin.DefaultInterval,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load decodes the TOML file at path over the defaults and validates the result.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)

		return Config{}, fmt.Errorf("config: load %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	for name, addr := range map[string]string{"listen.control": c.Listen.Control, "listen.relay": c.Listen.Relay} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Listen.Backlog <= 0 {
		errs = append(errs, fmt.Errorf("listen.backlog: %d must be positive", c.Listen.Backlog))
	}
	if c.Listen.BufferSize <= 0 || c.Listen.BufferSize > bridge.MaxBufferSize {
		errs = append(errs, fmt.Errorf("listen.buffer_size: %d out of range [1, %d]", c.Listen.BufferSize, bridge.MaxBufferSize))
	}
	if c.Listen.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("listen.idle_timeout: %v is negative", c.Listen.IdleTimeout))
	}
	if c.Listen.Handlers < 0 {
		errs = append(errs, fmt.Errorf("listen.concurrent_handlers: %d is negative", c.Listen.Handlers))
	}

	if c.Serial.Device == "" && c.Serial.DevicePattern == "" {
		errs = append(errs, errors.New("serial: device or device_pattern is required"))
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud_rate: %d must be positive", c.Serial.BaudRate))
	}
	if c.Serial.DataBits < uart.MinDataBits || c.Serial.DataBits > uart.MaxDataBits {
		errs = append(errs, fmt.Errorf("serial.data_bits: %d out of range [%d, %d]", c.Serial.DataBits, uart.MinDataBits, uart.MaxDataBits))
	}
	if _, err := uart.ParseParity(c.Serial.Parity); err != nil {
		errs = append(errs, fmt.Errorf("serial.parity: %w", err))
	}
	if _, err := uart.ParseStopBits(c.Serial.StopBits); err != nil {
		errs = append(errs, fmt.Errorf("serial.stop_bits: %w", err))
	}

	if c.Network.Attempts <= 0 {
		errs = append(errs, fmt.Errorf("network.attempts: %d must be positive", c.Network.Attempts))
	}
	if c.Network.Interval <= 0 {
		errs = append(errs, fmt.Errorf("network.interval: %v must be positive", c.Network.Interval))
	}

	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// LogLevel returns the configured log level.
func (c Config) LogLevel() logger.LogLevel {
	level, _ := logger.ParseLevel(c.Log.Level)
	return level
}

// NewLogger creates the process logger.
func (c Config) NewLogger() logger.Logger {
	return logger.NewSlog(c.LogLevel(), c.Log.AddSource)
}

// BridgeConfig builds the bridge configuration. An empty page path serves the
// placeholder page.
func (c Config) BridgeConfig(l logger.Logger, extra ...bridge.ConfigOption) (*bridge.Config, error) {
	var page bridge.PageLoader
	if c.Page.Path != "" {
		page = bridge.FileLoader{Path: c.Page.Path}
	}

	opts := []bridge.ConfigOption{
		bridge.WithControlAddr(c.Listen.Control),
		bridge.WithRelayAddr(c.Listen.Relay),
		bridge.WithBacklog(c.Listen.Backlog),
		bridge.WithBufferSize(c.Listen.BufferSize),
		bridge.WithIdleTimeout(c.Listen.IdleTimeout),
		bridge.WithPageLoader(page),
		bridge.WithLogger(l),
	}
	if c.Listen.Handlers > 0 {
		opts = append(opts, bridge.WithConcurrentHandlers(c.Listen.Handlers))
	}

	return bridge.NewConfig(append(opts, extra...)...)
}

// PortConfig builds the serial port configuration.
func (c Config) PortConfig(l logger.Logger) (*uart.PortConfig, error) {
	parity, err := uart.ParseParity(c.Serial.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := uart.ParseStopBits(c.Serial.StopBits)
	if err != nil {
		return nil, err
	}

	return uart.NewPortConfig(c.Serial.Device,
		uart.WithDevicePattern(c.Serial.DevicePattern),
		uart.WithBaudRate(c.Serial.BaudRate),
		uart.WithDataBits(c.Serial.DataBits),
		uart.WithParity(parity),
		uart.WithStopBits(stopBits),
		uart.WithLogger(l),
	)
}

// Joiner returns the network joiner for the configured interface.
func (c Config) Joiner() netjoin.Joiner {
	return netjoin.NewInterfaceJoiner(c.Network.Interface)
}
