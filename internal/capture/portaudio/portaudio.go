// Package portaudio captures audio through PortAudio.
//
// Building it requires cgo and the PortAudio development headers
// (portaudio19-dev on Debian, brew install portaudio on macOS).
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/cwbudde/barlink/internal/capture"
)

// Stream is a running PortAudio input stream delivering int16 blocks.
type Stream struct {
	stream *pa.Stream
	buf    []int16
	device capture.Device

	mu     sync.Mutex
	closed bool
}

var _ capture.Source = (*Stream)(nil)

// Open initializes PortAudio, resolves the device and starts an input
// stream. Whatever was acquired before a failure is released again.
func Open(p capture.Params) (*Stream, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize portaudio: %w", capture.ErrDeviceNotFound, err)
	}

	infos, devices, err := enumerate()
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}

	dev, err := capture.Match(capture.FilterInputs(devices, p.HostAPI), p.DeviceID)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}
	info := infos[dev.ID]

	buf := make([]int16, p.BlockLen())
	params := pa.StreamParameters{
		Input: pa.StreamDeviceParameters{
			Device:   info,
			Channels: p.Channels,
			Latency:  info.DefaultHighInputLatency,
		},
		SampleRate:      float64(p.SampleRate),
		FramesPerBuffer: p.ChunkSize,
	}

	stream, err := pa.OpenStream(params, buf)
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("%w: %s: %w", capture.ErrStreamOpen, dev.Name, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = pa.Terminate()
		return nil, fmt.Errorf("%w: start %s: %w", capture.ErrStreamOpen, dev.Name, err)
	}

	return &Stream{stream: stream, buf: buf, device: dev}, nil
}

// Device returns the device the stream captures from.
func (s *Stream) Device() capture.Device { return s.device }

// ReadBlock blocks until PortAudio delivers the next buffer and copies it
// into dst. Input overflow is reported as a transient failure.
func (s *Stream) ReadBlock(ctx context.Context, dst []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(dst) != len(s.buf) {
		return fmt.Errorf("capture: block length %d does not match stream buffer %d", len(dst), len(s.buf))
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return capture.ErrClosed
	}

	if err := s.stream.Read(); err != nil {
		if errors.Is(err, pa.InputOverflowed) || errors.Is(err, pa.OutputUnderflowed) {
			return fmt.Errorf("%w: %w", capture.ErrTransientRead, err)
		}
		return fmt.Errorf("capture: read %s: %w", s.device.Name, err)
	}

	copy(dst, s.buf)
	return nil
}

// Close stops and closes the stream and terminates PortAudio. It is safe to
// call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return errors.Join(s.stream.Stop(), s.stream.Close(), pa.Terminate())
}

// Lister enumerates PortAudio input devices, optionally restricted to one
// host API.
type Lister struct {
	HostAPI string
}

var _ capture.Lister = Lister{}

// Devices lists input-capable devices.
func (l Lister) Devices() ([]capture.Device, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize portaudio: %w", capture.ErrDeviceNotFound, err)
	}
	defer pa.Terminate()

	_, devices, err := enumerate()
	if err != nil {
		return nil, err
	}
	return capture.FilterInputs(devices, l.HostAPI), nil
}

// enumerate returns PortAudio's device table and its capture.Device view.
// Device IDs are PortAudio device indices.
func enumerate() ([]*pa.DeviceInfo, []capture.Device, error) {
	infos, err := pa.Devices()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list devices: %w", capture.ErrDeviceNotFound, err)
	}

	def, _ := pa.DefaultInputDevice()

	devices := make([]capture.Device, len(infos))
	for i, info := range infos {
		d := capture.Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Default:           sameDevice(info, def),
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices[i] = d
	}
	return infos, devices, nil
}

func sameDevice(a, b *pa.DeviceInfo) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return a.Name == b.Name && a.HostApi != nil && b.HostApi != nil && a.HostApi.Name == b.HostApi.Name
}
