package uart

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-uartbridge/internal/task"
	"github.com/arloliu/go-uartbridge/logger"
)

// DefaultWriterQueueSize is the default number of frames a Writer buffers.
const DefaultWriterQueueSize = 16

// WriterMetrics contains atomic counters for a Writer.
type WriterMetrics struct {
	// FrameCount indicates the number of frames written to the underlying channel.
	FrameCount atomic.Uint64
	// ByteCount indicates the number of bytes written to the underlying channel.
	ByteCount atomic.Uint64
	// ErrCount indicates the number of failed writes.
	ErrCount atomic.Uint64
}

type writeReq struct {
	data []byte
	done chan error
}

// Writer serializes writes from many goroutines onto one Channel.
//
// A single consumer goroutine drains the queue, so frames reach the
// underlying channel whole and in the order Write was called. Write blocks
// until its frame has been written and returns the channel's error.
type Writer struct {
	ch      Channel
	reqs    chan writeReq
	taskMgr *task.Manager
	logger  logger.Logger
	metrics WriterMetrics

	mu     sync.RWMutex
	closed bool
}

var _ Channel = (*Writer)(nil)

// NewWriter starts a Writer in front of ch. queueSize <= 0 selects DefaultWriterQueueSize.
func NewWriter(ch Channel, queueSize int, l logger.Logger) (*Writer, error) {
	if queueSize <= 0 {
		queueSize = DefaultWriterQueueSize
	}
	if l == nil {
		l = logger.GetLogger()
	}

	w := &Writer{
		ch:      ch,
		reqs:    make(chan writeReq, queueSize),
		taskMgr: task.NewManager(context.Background(), l),
		logger:  l,
	}

	if err := w.taskMgr.Go("serialWriter", w.consume); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Writer) consume() {
	for req := range w.reqs {
		err := w.ch.Write(req.data)
		if err != nil {
			w.metrics.ErrCount.Add(1)
			w.logger.Error("serial write failed", "bytes", len(req.data), "error", err)
		} else {
			w.metrics.FrameCount.Add(1)
			w.metrics.ByteCount.Add(uint64(len(req.data)))
		}
		req.done <- err
	}
}

// Write implements Channel.
func (w *Writer) Write(p []byte) error {
	req := writeReq{data: p, done: make(chan error, 1)}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWriterClosed
	}
	w.reqs <- req
	w.mu.RUnlock()

	return <-req.done
}

// Metrics returns the writer's counters.
func (w *Writer) Metrics() *WriterMetrics {
	return &w.metrics
}

// Close stops accepting frames, waits until queued frames are written and
// stops the consumer. It does not close the underlying channel.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.reqs)
	w.mu.Unlock()

	w.taskMgr.Wait()

	return nil
}
