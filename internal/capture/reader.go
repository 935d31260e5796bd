package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cwbudde/barlink/dsp/pcm"
)

// ReaderSource reads raw little-endian s16 interleaved PCM from an
// io.Reader, for example a pipe from an external recorder or a file.
//
// A partial block at the end of the stream is reported as
// io.ErrUnexpectedEOF and a clean end as io.EOF; both are terminal.
//
// A blocking file such as os.Stdin cannot be interrupted by Close, so with
// a cancellable context the read runs in a helper goroutine and ReadBlock
// returns ctx.Err() as soon as ctx is done. The pending read is abandoned
// and the source is unusable afterwards.
type ReaderSource struct {
	r    io.Reader
	buf  []byte
	done chan error

	mu        sync.Mutex
	closed    bool
	abandoned bool
}

// NewReaderSource wraps r. If r is also an io.Closer, Close closes it.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// ReadBlock fills dst with the next len(dst) samples.
func (s *ReaderSource) ReadBlock(ctx context.Context, dst []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}

	need := len(dst) * pcm.BytesPerSample
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	if err := s.readFull(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		if s.isClosed() {
			return ErrClosed
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return err
		}
		return fmt.Errorf("capture: read block: %w", err)
	}

	pcm.DecodeS16LE(dst, s.buf)
	return nil
}

// Close marks the source closed and closes the underlying reader when it
// supports it. Calling Close twice is a no-op.
func (s *ReaderSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *ReaderSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.abandoned
}

// readFull fills s.buf, giving up when ctx is done.
func (s *ReaderSource) readFull(ctx context.Context) error {
	if ctx.Done() == nil {
		_, err := io.ReadFull(s.r, s.buf)
		return err
	}

	if s.done == nil {
		s.done = make(chan error, 1)
	}
	buf := s.buf
	go func() {
		_, err := io.ReadFull(s.r, buf)
		s.done <- err
	}()

	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		s.mu.Lock()
		s.abandoned = true
		s.mu.Unlock()
		return ctx.Err()
	}
}
