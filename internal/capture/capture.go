// Package capture defines the audio capture side of the visualizer: the
// Source a pipeline reads blocks from, device discovery types and the error
// taxonomy shared by every backend.
//
// Backends live next to it: ReaderSource and CommandSource in this package,
// the PortAudio stream in capture/portaudio.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrDeviceNotFound reports an unknown device identifier or a missing
	// capture capability. Fatal at startup.
	ErrDeviceNotFound = errors.New("capture: device not found")

	// ErrStreamOpen reports that a stream could not be started with the
	// requested parameters. Fatal at startup.
	ErrStreamOpen = errors.New("capture: cannot open stream")

	// ErrTransientRead marks a per-block failure (overflow, underflow) after
	// which reading may simply continue with the next block.
	ErrTransientRead = errors.New("capture: transient read failure")

	// ErrClosed is returned by reads on a closed source.
	ErrClosed = errors.New("capture: source closed")
)

// Source delivers fixed-size blocks of interleaved signed 16-bit samples.
type Source interface {
	// ReadBlock fills dst with the next block. It blocks until a full block
	// is available. Errors wrapping ErrTransientRead leave the source usable.
	ReadBlock(ctx context.Context, dst []int16) error

	// Close stops capturing and releases the device.
	Close() error
}

// Lister enumerates capture devices.
type Lister interface {
	Devices() ([]Device, error)
}

// Params describes the stream a backend should open.
type Params struct {
	// DeviceID selects the device: a numeric index, a case-insensitive
	// name fragment, or empty for the backend's default input.
	DeviceID string
	// HostAPI restricts device lookup to host APIs whose name contains it
	// (for example "WASAPI").
	HostAPI    string
	Channels   int
	SampleRate int
	ChunkSize  int
}

// BlockLen returns the interleaved sample count of one block.
func (p Params) BlockLen() int { return p.ChunkSize * p.Channels }

// Device describes a capture-capable endpoint.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// Loopback reports whether the device name suggests it captures the system
// output mix rather than a microphone.
func (d Device) Loopback() bool {
	name := strings.ToLower(d.Name)
	for _, hint := range []string{"loopback", "monitor", "stereo mix", "what u hear"} {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// String formats the device like the listing printed by cmd/barlink.
func (d Device) String() string {
	s := fmt.Sprintf("ID %d: %s (Inputs: %d, %s, %.0f Hz)", d.ID, d.Name, d.MaxInputChannels, d.HostAPI, d.DefaultSampleRate)
	if d.Loopback() {
		s += " [Loopback]"
	}
	if d.Default {
		s += " [Default]"
	}
	return s
}

// FilterInputs returns the devices with at least one input channel whose
// host API contains hostAPI (case-insensitive; empty matches all).
func FilterInputs(devices []Device, hostAPI string) []Device {
	hostAPI = strings.ToLower(hostAPI)
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		if hostAPI != "" && !strings.Contains(strings.ToLower(d.HostAPI), hostAPI) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Match resolves id against devices. A numeric id must equal a device ID;
// otherwise the first device whose name contains id wins. An empty id
// selects the device flagged Default.
func Match(devices []Device, id string) (Device, error) {
	id = strings.TrimSpace(id)

	if id == "" {
		for _, d := range devices {
			if d.Default {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: no default input device", ErrDeviceNotFound)
	}

	if n, err := strconv.Atoi(id); err == nil {
		for _, d := range devices {
			if d.ID == n {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: no input device with id %d", ErrDeviceNotFound, n)
	}

	needle := strings.ToLower(id)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: no input device matching %q", ErrDeviceNotFound, id)
}
