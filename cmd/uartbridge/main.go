// Command uartbridge bridges network clients to a serial peripheral.
//
// It serves a status page and "GET /set?r=&g=&b=" colour commands on the
// control endpoint and forwards raw bytes from the relay endpoint to the UART.
//
// Usage:
//
//	uartbridge -conf /etc/uartbridge.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/go-uartbridge/bridge"
	"github.com/arloliu/go-uartbridge/config"
	"github.com/arloliu/go-uartbridge/logger"
	"github.com/arloliu/go-uartbridge/netjoin"
	"github.com/arloliu/go-uartbridge/uart"
)

func main() {
	configFile := flag.String("conf", "", "Load configuration from the named TOML file")
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "-conf option is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("uartbridge failed", "error", err)
	}

	log.Info("shutdown finished")
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	if _, err := netjoin.WaitReady(ctx, cfg.Joiner(), cfg.Network.Attempts, cfg.Network.Interval, log); err != nil {
		return err
	}

	portCfg, err := cfg.PortConfig(log)
	if err != nil {
		return err
	}

	port, err := uart.OpenPort(portCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Warn("failed to close serial port", "device", port.Device(), "error", err)
		}
	}()

	bridgeCfg, err := cfg.BridgeConfig(log)
	if err != nil {
		return err
	}

	b, err := bridge.New(bridgeCfg, port)
	if err != nil {
		return err
	}

	if err := b.Run(ctx); err != nil {
		return err
	}

	m := b.Metrics()
	log.Info("bridge metrics",
		"controlRequests", m.ControlRequestCount.Load(),
		"commands", m.CommandCount.Load(),
		"rejected", m.CommandRejectCount.Load(),
		"relayConns", m.RelayConnCount.Load(),
		"relayBytes", m.RelayByteCount.Load(),
		"serialErrors", m.SerialErrCount.Load(),
	)

	return nil
}
