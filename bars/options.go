package bars

import "github.com/cwbudde/barlink/dsp/window"

// Defaults match the tuning of the reference display firmware.
const (
	DefaultChunkSize    = 1024
	DefaultChannels     = 2
	DefaultNumBars      = 10
	DefaultTruncation   = 150
	DefaultScaleDivisor = 500.0
)

// Config holds the reduction parameters.
type Config struct {
	// ChunkSize is the number of frames per block and the FFT size.
	ChunkSize int
	// Channels is the interleave factor of incoming blocks.
	Channels int
	// NumBars is the number of output levels.
	NumBars int
	// Truncation is the number of low-frequency bins kept. It is capped at
	// ChunkSize/2+1.
	Truncation int
	// ScaleDivisor divides each band sum before quantization.
	ScaleDivisor float64
	// Window is applied to the mono block before the FFT.
	Window window.Type
}

// Option mutates a Config. Options store values as given; out-of-range
// values are reported by Config.Validate and therefore by NewReducer.
type Option func(*Config)

// DefaultConfig returns the stock reduction parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    DefaultChunkSize,
		Channels:     DefaultChannels,
		NumBars:      DefaultNumBars,
		Truncation:   DefaultTruncation,
		ScaleDivisor: DefaultScaleDivisor,
		Window:       window.TypeRectangular,
	}
}

// WithChunkSize sets the frames per block.
func WithChunkSize(n int) Option {
	return func(cfg *Config) {
		cfg.ChunkSize = n
	}
}

// WithChannels sets the interleave factor.
func WithChannels(n int) Option {
	return func(cfg *Config) {
		cfg.Channels = n
	}
}

// WithNumBars sets the number of output levels.
func WithNumBars(n int) Option {
	return func(cfg *Config) {
		cfg.NumBars = n
	}
}

// WithTruncation sets how many low-frequency bins are kept.
func WithTruncation(n int) Option {
	return func(cfg *Config) {
		cfg.Truncation = n
	}
}

// WithScaleDivisor sets the band sum divisor.
func WithScaleDivisor(d float64) Option {
	return func(cfg *Config) {
		cfg.ScaleDivisor = d
	}
}

// WithWindow selects the analysis window.
func WithWindow(t window.Type) Option {
	return func(cfg *Config) {
		cfg.Window = t
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// BlockLen returns the expected interleaved block length in samples.
func (c Config) BlockLen() int { return c.ChunkSize * c.Channels }

// Bins returns the number of magnitude bins kept after truncation.
func (c Config) Bins() int { return min(c.Truncation, c.ChunkSize/2+1) }
