package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/barlink/dsp/window"
)

// Load reads the YAML configuration file at path on top of [Default] and
// returns the validated result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Fields absent from the document keep their default values. An empty
// document yields [Default].
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// The serial port is not required here because listing devices does not
// need one.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud %d must be positive", cfg.Baud))
	}
	if cfg.Settle < 0 {
		errs = append(errs, fmt.Errorf("settle %v must not be negative", time.Duration(cfg.Settle)))
	}
	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d must be positive", cfg.SampleRate))
	}
	if _, err := window.ParseType(cfg.Window); err != nil {
		errs = append(errs, fmt.Errorf("window %q is invalid; valid values: none, hann, hamming, blackman", cfg.Window))
	} else if err := cfg.ReducerConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	if !cfg.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("backend %q is invalid; valid values: portaudio, command, stdin", cfg.Backend))
	}
	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.MaxConsecutiveReadFailures < 0 {
		errs = append(errs, fmt.Errorf("max_consecutive_read_failures %d must not be negative", cfg.MaxConsecutiveReadFailures))
	}
	if len(cfg.Command) > 0 && cfg.Backend != BackendCommand {
		errs = append(errs, fmt.Errorf("command is only used with backend %q", BackendCommand))
	}

	return errors.Join(errs...)
}
