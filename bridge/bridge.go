package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-uartbridge/command"
	"github.com/arloliu/go-uartbridge/internal/task"
	"github.com/arloliu/go-uartbridge/logger"
	"github.com/arloliu/go-uartbridge/uart"
	"github.com/puzpuzpuz/xsync/v3"
)

const maxAcceptDelay = time.Second

// accepted is a connection handed from an accept task to the loop.
type accepted struct {
	role Role
	conn net.Conn
}

// Bridge multiplexes the control and relay endpoints onto one serial channel.
type Bridge struct {
	cfg     *Config
	serial  uart.Channel
	writer  *uart.Writer
	logger  logger.Logger
	metrics Metrics

	listenMu sync.Mutex
	control  *ListenEndpoint
	relay    *ListenEndpoint

	controlCh chan accepted
	relayCh   chan accepted
	slots     chan struct{}

	conns   *xsync.MapOf[uint64, net.Conn]
	connSeq atomic.Uint64

	taskMgr *task.Manager

	running      atomic.Bool
	shutdown     atomic.Bool
	done         chan struct{}
	loopDone     chan struct{}
	closeOnce    sync.Once
	teardownOnce sync.Once
	teardownErr  error
}

// New creates a bridge writing to serial. The serial channel is not closed by the bridge.
func New(cfg *Config, serial uart.Channel) (*Bridge, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if serial == nil {
		return nil, ErrSerialNil
	}

	b := &Bridge{
		cfg:       cfg,
		serial:    serial,
		logger:    cfg.logger,
		controlCh: make(chan accepted),
		relayCh:   make(chan accepted),
		conns:     xsync.NewMapOf[uint64, net.Conn](),
		taskMgr:   task.NewManager(context.Background(), cfg.logger),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}

	if cfg.Concurrent() {
		w, err := uart.NewWriter(serial, cfg.writerQueueSize, cfg.logger)
		if err != nil {
			return nil, err
		}
		b.writer = w
		b.serial = w
		b.slots = make(chan struct{}, cfg.maxHandlers)
	}

	return b, nil
}

// Metrics returns the bridge counters.
func (b *Bridge) Metrics() *Metrics {
	return &b.metrics
}

// Listen binds both endpoints. It is called by Run if needed; calling it first
// lets the caller learn the bound addresses. Failing to bind either endpoint
// is fatal for the bridge.
func (b *Bridge) Listen() error {
	b.listenMu.Lock()
	defer b.listenMu.Unlock()

	if b.shutdown.Load() {
		return ErrClosed
	}
	if b.control != nil {
		return nil
	}

	control, err := Listen(RoleControl, b.cfg.controlAddr, b.cfg.backlog)
	if err != nil {
		b.logger.Error("failed to bind endpoint", "role", RoleControl, "address", b.cfg.controlAddr, "error", err)
		return err
	}

	relay, err := Listen(RoleRelay, b.cfg.relayAddr, b.cfg.backlog)
	if err != nil {
		_ = control.Close()
		b.logger.Error("failed to bind endpoint", "role", RoleRelay, "address", b.cfg.relayAddr, "error", err)

		return err
	}

	b.control, b.relay = control, relay

	return nil
}

// ControlAddr returns the bound control address, or nil before Listen.
func (b *Bridge) ControlAddr() net.Addr {
	b.listenMu.Lock()
	defer b.listenMu.Unlock()

	if b.control == nil {
		return nil
	}
	return b.control.Addr()
}

// RelayAddr returns the bound relay address, or nil before Listen.
func (b *Bridge) RelayAddr() net.Addr {
	b.listenMu.Lock()
	defer b.listenMu.Unlock()

	if b.relay == nil {
		return nil
	}
	return b.relay.Addr()
}

// Run binds the endpoints if necessary and runs the bridge loop until ctx is
// cancelled or Close is called. It returns nil on a clean stop and an error
// only if the bridge could not start.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(b.loopDone)

	if b.shutdown.Load() {
		return ErrClosed
	}

	if err := b.Listen(); err != nil {
		_ = b.teardown()
		return err
	}

	if err := b.startAcceptTasks(); err != nil {
		_ = b.teardown()
		return err
	}

	// close live connections as soon as ctx ends, even mid-handler
	stop := context.AfterFunc(ctx, b.signalShutdown)
	defer stop()

	b.logger.Info("bridge started",
		"control", b.control.Addr().String(),
		"relay", b.relay.Addr().String(),
		"backlog", b.cfg.backlog,
		"concurrentHandlers", b.cfg.maxHandlers,
	)

	b.loop(ctx)

	return b.teardown()
}

// loop waits, with no timeout, until an endpoint has an accepted connection
// and dispatches it.
func (b *Bridge) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bridge stopping", "reason", ctx.Err())
			b.signalShutdown()

			return
		case <-b.done:
			b.logger.Info("bridge stopping", "reason", "closed")
			return
		case ac := <-b.controlCh:
			b.dispatch(ac)
		case ac := <-b.relayCh:
			b.dispatch(ac)
		}
	}
}

func (b *Bridge) startAcceptTasks() error {
	if err := b.taskMgr.Start("acceptControl", b.acceptTask(b.control, b.controlCh)); err != nil {
		return err
	}

	return b.taskMgr.Start("acceptRelay", b.acceptTask(b.relay, b.relayCh))
}

// acceptTask accepts one connection per iteration and hands it to the loop.
// It blocks until the loop takes the connection, so at most one accepted
// connection per endpoint waits outside the listen backlog.
func (b *Bridge) acceptTask(ep *ListenEndpoint, out chan<- accepted) task.Func {
	var delay time.Duration

	return func() bool {
		conn, err := ep.Accept()
		if err != nil {
			if b.shutdown.Load() || errors.Is(err, net.ErrClosed) {
				return false
			}

			b.metrics.incAcceptErrCount()
			delay = nextAcceptDelay(delay)
			b.logger.Error("accept failed", "role", ep.Role(), "error", err, "retryIn", delay)

			select {
			case <-b.taskMgr.Context().Done():
				return false
			case <-time.After(delay):
				return true
			}
		}
		delay = 0

		b.logger.Debug("connection accepted", "role", ep.Role(), "peer", peerAddr(conn))

		select {
		case out <- accepted{role: ep.Role(), conn: conn}:
			return true
		case <-b.taskMgr.Context().Done():
			_ = conn.Close()
			return false
		}
	}
}

func nextAcceptDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return 5 * time.Millisecond
	}

	return min(delay*2, maxAcceptDelay)
}

// dispatch runs the handler for ac, inline in single-threaded mode or on a
// pooled goroutine in concurrent mode.
func (b *Bridge) dispatch(ac accepted) {
	id := b.track(ac.conn)
	if b.shutdown.Load() {
		b.untrack(id)
		_ = ac.conn.Close()

		return
	}

	if b.slots == nil {
		b.serve(id, ac)
		return
	}

	b.slots <- struct{}{}
	err := b.taskMgr.Go(fmt.Sprintf("%s-%d", ac.role, id), func() {
		defer func() { <-b.slots }()
		b.serve(id, ac)
	})
	if err != nil {
		<-b.slots
		b.untrack(id)
		_ = ac.conn.Close()
		b.logger.Warn("connection dropped", "role", ac.role, "error", err)
	}
}

func (b *Bridge) serve(id uint64, ac accepted) {
	defer b.untrack(id)

	res := b.handle(ac)
	b.report(res)
}

// handle runs the role's handler and converts a panic into a failed Result.
func (b *Bridge) handle(ac accepted) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			_ = ac.conn.Close()
			res = Result{
				Role:    ac.role,
				Peer:    peerAddr(ac.conn),
				Outcome: OutcomeAborted,
				Err:     fmt.Errorf("%w: %v", ErrHandlerPanic, r),
			}
		}
	}()

	switch ac.role {
	case RoleControl:
		return b.handleControl(ac.conn)
	case RoleRelay:
		return b.handleRelay(ac.conn)
	}

	_ = ac.conn.Close()

	return Result{Role: ac.role, Peer: peerAddr(ac.conn), Err: fmt.Errorf("bridge: unknown role %v", ac.role)}
}

// report logs and counts a finished connection.
func (b *Bridge) report(res Result) {
	b.metrics.record(res)

	var parseErr *command.ParseError
	switch {
	case res.Err == nil:
		b.logger.Debug("connection done",
			"role", res.Role, "peer", res.Peer, "outcome", res.Outcome,
			"status", res.Status, "chunks", res.Chunks, "bytes", res.Bytes)
	case errors.As(res.Err, &parseErr):
		b.logger.Warn("command rejected", "peer", res.Peer, "key", parseErr.Key, "token", parseErr.Token, "error", res.Err)
	case isSerialErr(res.Err):
		b.logger.Error("serial write failed", "role", res.Role, "peer", res.Peer, "error", res.Err)
	default:
		b.logger.Warn("connection failed", "role", res.Role, "peer", res.Peer, "outcome", res.Outcome, "error", res.Err)
	}

	if fn := b.cfg.resultHandler; fn != nil {
		fn(res)
	}
}

func (b *Bridge) track(conn net.Conn) uint64 {
	id := b.connSeq.Add(1)
	b.conns.Store(id, conn)
	b.metrics.incActiveConn()

	return id
}

func (b *Bridge) untrack(id uint64) {
	if _, ok := b.conns.LoadAndDelete(id); ok {
		b.metrics.decActiveConn()
	}
}

func (b *Bridge) setDeadline(conn net.Conn) {
	if b.cfg.idleTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(b.cfg.idleTimeout))
	}
}

// Close stops the bridge: listeners and live connections are closed, running
// handlers return, and Run returns. Close is idempotent.
func (b *Bridge) Close() error {
	b.signalShutdown()

	if b.running.Load() {
		<-b.loopDone
	}

	return b.teardown()
}

// signalShutdown unblocks the loop, the accept tasks and any handler blocked
// on a connection.
func (b *Bridge) signalShutdown() {
	b.closeOnce.Do(func() {
		b.shutdown.Store(true)
		close(b.done)
		_ = b.closeListeners()
		b.conns.Range(func(_ uint64, conn net.Conn) bool {
			_ = conn.Close()
			return true
		})
	})
}

func (b *Bridge) teardown() error {
	b.teardownOnce.Do(func() {
		b.signalShutdown()

		b.taskMgr.Stop()
		b.taskMgr.Wait()

		var errs []error
		if b.writer != nil {
			errs = append(errs, b.writer.Close())
		}
		b.teardownErr = errors.Join(errs...)

		b.logger.Info("bridge stopped")
	})

	return b.teardownErr
}

func (b *Bridge) closeListeners() error {
	b.listenMu.Lock()
	defer b.listenMu.Unlock()

	var errs []error
	if b.control != nil {
		errs = append(errs, b.control.Close())
	}
	if b.relay != nil {
		errs = append(errs, b.relay.Close())
	}

	return errors.Join(errs...)
}

func peerAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
