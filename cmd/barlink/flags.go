package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/cwbudde/barlink/internal/config"
)

// cliFlags holds parsed command-line values. Only flags that were set on the
// command line override the configuration file.
type cliFlags struct {
	fs *flag.FlagSet

	configPath  string
	listDevices bool

	port        string
	baud        int
	settle      time.Duration
	device      string
	backend     string
	hostAPI     string
	numBars     int
	chunk       int
	channels    int
	rate        int
	truncation  int
	divisor     float64
	window      string
	logLevel    string
	metricsAddr string
	keepGoing   bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	d := config.Default()
	c := &cliFlags{fs: flag.NewFlagSet("barlink", flag.ContinueOnError)}
	fs := c.fs
	fs.SetOutput(stderr)

	fs.StringVar(&c.configPath, "config", "", "path to a YAML configuration file")
	fs.BoolVar(&c.listDevices, "list-devices", false, "list capture devices and exit")

	fs.StringVar(&c.port, "port", "", "serial port of the display (COM3, /dev/ttyUSB0)")
	fs.IntVar(&c.baud, "baud", d.Baud, "serial baud rate")
	fs.DurationVar(&c.settle, "settle", time.Duration(d.Settle), "wait after opening the port")
	fs.StringVar(&c.device, "device", "", "capture device id, name or PulseAudio source")
	fs.StringVar(&c.backend, "backend", string(d.Backend), "capture backend: portaudio, command or stdin")
	fs.StringVar(&c.hostAPI, "host-api", "", "restrict PortAudio devices to this host API")
	fs.IntVar(&c.numBars, "bars", d.NumBars, "number of bars")
	fs.IntVar(&c.chunk, "chunk", d.ChunkSize, "frames per block")
	fs.IntVar(&c.channels, "channels", d.Channels, "interleaved channels per frame")
	fs.IntVar(&c.rate, "rate", d.SampleRate, "sample rate in Hz")
	fs.IntVar(&c.truncation, "truncation", d.SpectrumTruncation, "spectrum bins kept before splitting")
	fs.Float64Var(&c.divisor, "divisor", d.ScaleDivisor, "band sum divisor")
	fs.StringVar(&c.window, "window", d.Window, "analysis window: none, hann, hamming, blackman")
	fs.StringVar(&c.logLevel, "log-level", string(d.LogLevel), "log level: debug, info, warn, error")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&c.keepGoing, "keep-going", false, "log serial write errors instead of exiting")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: barlink [flags]\n\n")
		fmt.Fprintf(stderr, "Streams audio spectrum bars to a serial display.\n")
		fmt.Fprintf(stderr, "Flags override values from -config.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  barlink -list-devices\n")
		fmt.Fprintf(stderr, "  barlink -port COM3 -device 7\n")
		fmt.Fprintf(stderr, "  barlink -config barlink.yaml\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "barlink: unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return c, nil
}

// loadConfig reads the configuration file, if any, applies flag overrides
// and validates the result.
func loadConfig(c *cliFlags) (*config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return nil, err
		}
	}
	c.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply copies every explicitly set flag into cfg.
func (c *cliFlags) apply(cfg *config.Config) {
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = c.port
		case "baud":
			cfg.Baud = c.baud
		case "settle":
			cfg.Settle = config.Duration(c.settle)
		case "device":
			cfg.DeviceID = c.device
		case "backend":
			cfg.Backend = config.Backend(c.backend)
		case "host-api":
			cfg.HostAPI = c.hostAPI
		case "bars":
			cfg.NumBars = c.numBars
		case "chunk":
			cfg.ChunkSize = c.chunk
		case "channels":
			cfg.Channels = c.channels
		case "rate":
			cfg.SampleRate = c.rate
		case "truncation":
			cfg.SpectrumTruncation = c.truncation
		case "divisor":
			cfg.ScaleDivisor = c.divisor
		case "window":
			cfg.Window = c.window
		case "log-level":
			cfg.LogLevel = config.LogLevel(c.logLevel)
		case "metrics-addr":
			cfg.MetricsAddr = c.metricsAddr
		case "keep-going":
			cfg.ExitOnWriteError = !c.keepGoing
		}
	})
}
