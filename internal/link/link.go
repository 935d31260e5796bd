// Package link drives the serial connection to the bar display.
//
// Opening a port on most Arduino-class boards toggles DTR and resets the
// microcontroller, so Open waits a settle delay before the first write.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/cwbudde/barlink/bars"
)

// Defaults for Config fields left at zero.
const (
	DefaultBaud        = 1_000_000
	DefaultSettle      = 2 * time.Second
	DefaultReadTimeout = 100 * time.Millisecond
)

var (
	// ErrPortOpen reports that the serial port could not be opened. Fatal
	// at startup.
	ErrPortOpen = errors.New("link: cannot open serial port")

	// ErrShortWrite reports a packet that was only partially written.
	ErrShortWrite = errors.New("link: short write")

	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("link: closed")
)

// Config describes the serial port.
type Config struct {
	Port        string
	Baud        int
	Settle      time.Duration
	ReadTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.Settle < 0 {
		c.Settle = 0
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// Port is the subset of serial.Port the link uses.
type Port interface {
	io.WriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens a named port in the given mode.
type Opener func(name string, mode *serial.Mode) (Port, error)

func openSerial(name string, mode *serial.Mode) (Port, error) {
	return serial.Open(name, mode)
}

// Option configures Open.
type Option func(*options)

type options struct {
	opener Opener
}

// WithOpener replaces the serial port opener, mainly for tests.
func WithOpener(fn Opener) Option {
	return func(o *options) {
		if fn != nil {
			o.opener = fn
		}
	}
}

// Link writes level packets to an open port.
type Link struct {
	cfg  Config
	port Port
	buf  []byte

	mu     sync.Mutex
	closed bool
}

// Open opens the port as 8N1 at cfg.Baud and waits cfg.Settle. Cancelling
// ctx during the settle delay closes the port and returns ctx.Err().
func Open(ctx context.Context, cfg Config, opts ...Option) (*Link, error) {
	o := options{opener: openSerial}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cfg = cfg.withDefaults()
	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: no port configured", ErrPortOpen)
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := o.opener(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPortOpen, cfg.Port, err)
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: %s: set read timeout: %w", ErrPortOpen, cfg.Port, err)
	}

	if cfg.Settle > 0 {
		timer := time.NewTimer(cfg.Settle)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			_ = port.Close()
			return nil, ctx.Err()
		}
	}

	return &Link{cfg: cfg, port: port}, nil
}

// Port returns the port name.
func (l *Link) Port() string { return l.cfg.Port }

// Send writes one packet carrying levels.
func (l *Link) Send(levels bars.Levels) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	l.buf = bars.AppendPacket(l.buf[:0], levels)
	n, err := l.port.Write(l.buf)
	if err != nil {
		return fmt.Errorf("link: write %s: %w", l.cfg.Port, err)
	}
	if n != len(l.buf) {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(l.buf))
	}
	return nil
}

// Close closes the port. Further calls are no-ops.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.port.Close()
}
