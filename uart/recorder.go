package uart

import (
	"bytes"
	"sync"

	"github.com/arloliu/go-uartbridge/internal/util"
)

// Recorder is an in-memory Channel that keeps every frame written to it.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

var _ Channel = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Write implements Channel. It fails with the error set by FailWith, if any.
func (r *Recorder) Write(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, util.CloneSlice(p, 0))

	return nil
}

// FailWith makes subsequent writes fail with err; nil restores normal operation.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
}

// Frames returns a copy of the frames written so far.
func (r *Recorder) Frames() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := make([][]byte, len(r.frames))
	for i, f := range r.frames {
		frames[i] = util.CloneSlice(f, 0)
	}

	return frames
}

// Bytes returns all written frames concatenated.
func (r *Recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	return bytes.Join(r.frames, nil)
}

// Len returns the number of frames written.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.frames)
}

// Reset discards recorded frames.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = nil
}
