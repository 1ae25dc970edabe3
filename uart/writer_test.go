package uart

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriter_SerializesConcurrentFrames(t *testing.T) {
	require := require.New(t)

	rec := NewRecorder()

	// a channel that would corrupt frames if two writes overlapped
	var inFlight sync.Mutex
	guarded := ChannelFunc(func(p []byte) error {
		if !inFlight.TryLock() {
			return errors.New("overlapping write")
		}
		defer inFlight.Unlock()
		return rec.Write(p)
	})

	w, err := NewWriter(guarded, 4, testLogger())
	require.NoError(err)

	const writers, frames = 8, 50
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range frames {
				if err := w.Write([]byte(fmt.Sprintf("C:%d,%d,0\n", id, j))); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	require.NoError(w.Close())
	require.Equal(writers*frames, rec.Len())
	require.Equal(uint64(writers*frames), w.Metrics().FrameCount.Load())
	require.Zero(w.Metrics().ErrCount.Load())

	for _, f := range rec.Frames() {
		require.True(bytes.HasPrefix(f, []byte("C:")))
		require.True(bytes.HasSuffix(f, []byte("\n")))
	}
}

func TestWriter_PropagatesError(t *testing.T) {
	require := require.New(t)

	rec := NewRecorder()
	ioErr := errors.New("uart fault")
	rec.FailWith(ioErr)

	w, err := NewWriter(rec, 0, testLogger())
	require.NoError(err)
	defer w.Close()

	require.ErrorIs(w.Write([]byte("hello")), ioErr)
	require.Equal(uint64(1), w.Metrics().ErrCount.Load())

	rec.FailWith(nil)
	require.NoError(w.Write([]byte("hello")))
	require.Equal([]byte("hello"), rec.Bytes())
}

func TestWriter_Closed(t *testing.T) {
	require := require.New(t)

	w, err := NewWriter(NewRecorder(), 1, testLogger())
	require.NoError(err)

	require.NoError(w.Close())
	require.NoError(w.Close())
	require.ErrorIs(w.Write([]byte("late")), ErrWriterClosed)
}

func TestRecorder(t *testing.T) {
	require := require.New(t)

	rec := NewRecorder()
	buf := []byte("abc")
	require.NoError(rec.Write(buf))
	buf[0] = 'x'
	require.NoError(rec.Write([]byte("def")))

	require.Equal([][]byte{[]byte("abc"), []byte("def")}, rec.Frames())
	require.Equal("abcdef", string(rec.Bytes()))

	rec.Reset()
	require.Zero(rec.Len())
	require.Empty(rec.Bytes())
}
