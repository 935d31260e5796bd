// Package config defines the barlink configuration schema and its YAML
// loader.
package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/barlink/bars"
	"github.com/cwbudde/barlink/dsp/window"
	"github.com/cwbudde/barlink/internal/capture"
	"github.com/cwbudde/barlink/internal/link"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Backend selects where PCM blocks come from.
type Backend string

const (
	// BackendPortAudio captures through PortAudio. Stock PortAudio has no
	// WASAPI loopback, so playback is reached through an input that carries
	// it: "Stereo Mix" (or a virtual cable) on Windows, a PulseAudio or
	// PipeWire ".monitor" source on Linux.
	BackendPortAudio Backend = "portaudio"

	// BackendCommand runs an external recorder and reads raw s16le PCM from
	// its stdout. Without an explicit command, parec is used.
	BackendCommand Backend = "command"

	// BackendStdin reads raw s16le PCM from standard input.
	BackendStdin Backend = "stdin"
)

// IsValid reports whether b is a recognised backend.
func (b Backend) IsValid() bool {
	switch b {
	case BackendPortAudio, BackendCommand, BackendStdin:
		return true
	}
	return false
}

// Defaults applied by [Default] and kept for fields missing from a file.
const (
	DefaultBaud       = link.DefaultBaud
	DefaultSampleRate = 48000
	DefaultSettle     = link.DefaultSettle
)

// Duration is a time.Duration that decodes from YAML strings such as "2s".
type Duration time.Duration

// UnmarshalYAML implements [yaml.Unmarshaler].
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML renders d in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the root configuration.
type Config struct {
	// Port is the serial port of the display, e.g. "COM3" or "/dev/ttyUSB0".
	Port string `yaml:"port"`

	// Baud is the serial speed. Default: 1000000.
	Baud int `yaml:"baud"`

	// Settle is the delay after opening the port before the first packet.
	Settle Duration `yaml:"settle"`

	NumBars    int `yaml:"num_bars"`
	// ChunkSize is the FFT length in frames and must be a power of two.
	ChunkSize  int `yaml:"chunk_size"`
	Channels   int `yaml:"channels"`
	SampleRate int `yaml:"sample_rate"`

	// DeviceID names the capture device: a PortAudio index, a device name,
	// or a PulseAudio source for the command backend. Empty means "list
	// devices and exit" for the portaudio backend.
	DeviceID string `yaml:"device_id"`

	SpectrumTruncation int     `yaml:"spectrum_truncation"`
	ScaleDivisor       float64 `yaml:"scale_divisor"`

	// Window is the analysis window ("none", "hann", "hamming", "blackman").
	Window string `yaml:"window"`

	Backend Backend `yaml:"backend"`

	// HostAPI restricts device matching to one PortAudio host API, e.g.
	// "Windows WASAPI".
	HostAPI string `yaml:"host_api"`

	// Command is the argv of the recorder for the command backend.
	Command []string `yaml:"command"`

	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr enables a Prometheus /metrics listener when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`

	// ExitOnWriteError stops the loop on the first failed serial write.
	ExitOnWriteError bool `yaml:"exit_on_write_error"`

	// MaxConsecutiveReadFailures bounds back-to-back transient read errors;
	// zero means unbounded.
	MaxConsecutiveReadFailures int `yaml:"max_consecutive_read_failures"`
}

// Default returns the built-in configuration.
func Default() *Config {
	d := bars.DefaultConfig()
	return &Config{
		Baud:               DefaultBaud,
		Settle:             Duration(DefaultSettle),
		NumBars:            d.NumBars,
		ChunkSize:          d.ChunkSize,
		Channels:           d.Channels,
		SampleRate:         DefaultSampleRate,
		SpectrumTruncation: d.Truncation,
		ScaleDivisor:       d.ScaleDivisor,
		Window:             "none",
		Backend:            BackendPortAudio,
		LogLevel:           LogInfo,
		ExitOnWriteError:   true,
	}
}

// ReducerConfig maps the analysis fields onto a [bars.Config]. The window
// name must already have passed [Validate].
func (c *Config) ReducerConfig() bars.Config {
	w, _ := window.ParseType(c.Window)
	return bars.Config{
		ChunkSize:    c.ChunkSize,
		Channels:     c.Channels,
		NumBars:      c.NumBars,
		Truncation:   c.SpectrumTruncation,
		ScaleDivisor: c.ScaleDivisor,
		Window:       w,
	}
}

// CaptureParams maps the capture fields onto [capture.Params].
func (c *Config) CaptureParams() capture.Params {
	return capture.Params{
		DeviceID:   c.DeviceID,
		HostAPI:    c.HostAPI,
		Channels:   c.Channels,
		SampleRate: c.SampleRate,
		ChunkSize:  c.ChunkSize,
	}
}

// LinkConfig maps the serial fields onto [link.Config].
func (c *Config) LinkConfig() link.Config {
	return link.Config{
		Port:   c.Port,
		Baud:   c.Baud,
		Settle: time.Duration(c.Settle),
	}
}
