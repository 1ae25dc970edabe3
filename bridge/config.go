package bridge

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/arloliu/go-uartbridge/logger"
	"github.com/arloliu/go-uartbridge/uart"
)

// Default endpoint settings. The default addresses listen on every IPv4 and
// IPv6 address of the host.
const (
	DefaultControlAddr = ":80"   // status page and command endpoint
	DefaultRelayAddr   = ":8080" // raw passthrough endpoint
	DefaultBacklog     = 5
	DefaultBufferSize  = 1024

	MaxBufferSize = 64 * 1024
)

// Config holds the settings of a Bridge. It is immutable once created.
type Config struct {
	controlAddr string
	relayAddr   string
	backlog     int
	bufferSize  int
	idleTimeout time.Duration

	// maxHandlers > 0 enables concurrent dispatch with that many handlers in flight.
	maxHandlers     int
	writerQueueSize int

	pageLoader    PageLoader
	resultHandler func(Result)

	logger logger.Logger
}

// NewConfig creates a bridge configuration.
//
// Without options the bridge listens on :80 (control) and :8080 (relay) with a
// backlog of 5, reads at most 1024 bytes at a time, never times out, serves
// index.html from the working directory and handles one connection at a time.
func NewConfig(opts ...ConfigOption) (*Config, error) {
	cfg := &Config{
		controlAddr: DefaultControlAddr,
		relayAddr:   DefaultRelayAddr,
		backlog:     DefaultBacklog,
		bufferSize:  DefaultBufferSize,
		pageLoader:  FileLoader{Path: DefaultPagePath},
		logger:      logger.GetLogger(),

		writerQueueSize: uart.DefaultWriterQueueSize,
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("bridge: invalid address %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("bridge: invalid port in address %q", addr)
	}

	return nil
}

// --- Getters ---

// ControlAddr returns the configured control endpoint address.
func (cfg *Config) ControlAddr() string { return cfg.controlAddr }

// RelayAddr returns the configured relay endpoint address.
func (cfg *Config) RelayAddr() string { return cfg.relayAddr }

// Backlog returns the listen backlog of both endpoints.
func (cfg *Config) Backlog() int { return cfg.backlog }

// BufferSize returns the maximum number of bytes read per request or chunk.
func (cfg *Config) BufferSize() int { return cfg.bufferSize }

// IdleTimeout returns the per-operation connection deadline, 0 when disabled.
func (cfg *Config) IdleTimeout() time.Duration { return cfg.idleTimeout }

// Concurrent reports whether connections are handled concurrently.
func (cfg *Config) Concurrent() bool { return cfg.maxHandlers > 0 }

// MaxHandlers returns the concurrent handler limit, 0 in single-threaded mode.
func (cfg *Config) MaxHandlers() int { return cfg.maxHandlers }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- ConfigOption ---

// ConfigOption is a functional option for configuring a Config.
type ConfigOption interface {
	apply(*Config) error
}

type configOptFunc func(*Config) error

func (f configOptFunc) apply(cfg *Config) error { return f(cfg) }

// WithControlAddr sets the control endpoint address, "host:port".
func WithControlAddr(addr string) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if err := validateAddr(addr); err != nil {
			return err
		}
		cfg.controlAddr = addr

		return nil
	})
}

// WithRelayAddr sets the relay endpoint address, "host:port".
func WithRelayAddr(addr string) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if err := validateAddr(addr); err != nil {
			return err
		}
		cfg.relayAddr = addr

		return nil
	})
}

// WithBacklog sets the listen backlog of both endpoints.
func WithBacklog(backlog int) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if backlog <= 0 {
			return fmt.Errorf("bridge: backlog %d must be positive", backlog)
		}
		cfg.backlog = backlog

		return nil
	})
}

// WithBufferSize sets the read buffer size. Larger control requests are truncated.
func WithBufferSize(size int) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if size <= 0 || size > MaxBufferSize {
			return fmt.Errorf("bridge: buffer size %d out of range [1, %d]", size, MaxBufferSize)
		}
		cfg.bufferSize = size

		return nil
	})
}

// WithIdleTimeout sets a deadline applied before every read and write on a
// connection. Zero, the default, blocks indefinitely.
func WithIdleTimeout(d time.Duration) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("bridge: negative idle timeout %v", d)
		}
		cfg.idleTimeout = d

		return nil
	})
}

// WithConcurrentHandlers handles up to n connections at once, each on its own
// goroutine. Serial writes are serialized through a uart.Writer.
func WithConcurrentHandlers(n int) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if n <= 0 {
			return fmt.Errorf("bridge: concurrent handlers %d must be positive", n)
		}
		cfg.maxHandlers = n

		return nil
	})
}

// WithWriterQueueSize sets the serial writer queue size used in concurrent mode.
func WithWriterQueueSize(n int) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if n <= 0 {
			n = uart.DefaultWriterQueueSize
		}
		cfg.writerQueueSize = n

		return nil
	})
}

// WithPageLoader sets the source of the status page. A nil loader always
// serves the placeholder page.
func WithPageLoader(loader PageLoader) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		cfg.pageLoader = loader
		return nil
	})
}

// WithResultHandler registers fn to be called with the Result of every
// connection. In concurrent mode fn is called from several goroutines.
func WithResultHandler(fn func(Result)) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		cfg.resultHandler = fn
		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	})
}
