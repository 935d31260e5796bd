package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"reflect"
	"testing"
	"time"

	"github.com/cwbudde/barlink/dsp/pcm"
)

func encode(samples ...int16) []byte {
	buf := make([]byte, len(samples)*pcm.BytesPerSample)
	pcm.EncodeS16LE(buf, samples)
	return buf
}

func TestReaderSourceBlocks(t *testing.T) {
	src := NewReaderSource(bytes.NewReader(encode(1, -1, 2, -2, 3, -3, 4, -4, 5)))
	ctx := context.Background()
	dst := make([]int16, 4)

	if err := src.ReadBlock(ctx, dst); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !reflect.DeepEqual(dst, []int16{1, -1, 2, -2}) {
		t.Fatalf("block 1=%v", dst)
	}

	if err := src.ReadBlock(ctx, dst); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !reflect.DeepEqual(dst, []int16{3, -3, 4, -4}) {
		t.Fatalf("block 2=%v", dst)
	}

	if err := src.ReadBlock(ctx, dst); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("partial block err=%v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReaderSourceEOF(t *testing.T) {
	src := NewReaderSource(bytes.NewReader(nil))
	if err := src.ReadBlock(context.Background(), make([]int16, 2)); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v, want io.EOF", err)
	}
}

func TestReaderSourceCanceledContext(t *testing.T) {
	src := NewReaderSource(bytes.NewReader(encode(1, 2)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := src.ReadBlock(ctx, make([]int16, 2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

type closeTracker struct {
	io.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func TestReaderSourceClose(t *testing.T) {
	r := &closeTracker{Reader: bytes.NewReader(encode(1, 2))}
	src := NewReaderSource(r)

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if r.closed != 1 {
		t.Fatalf("underlying Close called %d times, want 1", r.closed)
	}

	if err := src.ReadBlock(context.Background(), make([]int16, 2)); !errors.Is(err, ErrClosed) {
		t.Fatalf("err=%v, want ErrClosed", err)
	}
}

func TestStartCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// Four zero bytes followed by 0x0100 little-endian (256).
	src, err := StartCommand([]string{"sh", "-c", `printf '\000\000\000\001'`}, nil)
	if err != nil {
		t.Fatalf("StartCommand: %v", err)
	}
	defer src.Close()

	dst := make([]int16, 2)
	if err := src.ReadBlock(context.Background(), dst); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !reflect.DeepEqual(dst, []int16{0, 256}) {
		t.Fatalf("dst=%v want [0 256]", dst)
	}

	if err := src.ReadBlock(context.Background(), dst); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v, want io.EOF", err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestStartCommandErrors(t *testing.T) {
	if _, err := StartCommand(nil, nil); !errors.Is(err, ErrStreamOpen) {
		t.Fatalf("empty argv err=%v, want ErrStreamOpen", err)
	}

	_, err := StartCommand([]string{"barlink-no-such-recorder"}, nil)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("missing binary err=%v, want ErrDeviceNotFound", err)
	}
}

func TestReaderSourceCancelStalledRead(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	src := NewReaderSource(pr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_, _ = pw.Write(encode(1, 2, 3, 4))
	}()
	dst := make([]int16, 4)
	if err := src.ReadBlock(ctx, dst); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !reflect.DeepEqual(dst, []int16{1, 2, 3, 4}) {
		t.Fatalf("block=%v", dst)
	}

	// Nothing is written now; the read must still return once ctx is done.
	done := make(chan error, 1)
	go func() { done <- src.ReadBlock(ctx, dst) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadBlock did not return after cancel")
	}

	if err := src.ReadBlock(context.Background(), dst); !errors.Is(err, ErrClosed) {
		t.Fatalf("read after abandon err=%v, want ErrClosed", err)
	}
}
