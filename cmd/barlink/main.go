// Command barlink captures the system audio output, reduces every block to a
// handful of frequency band levels and streams them to a microcontroller
// driving a bar display over a serial port.
//
// Usage:
//
//	barlink [flags]
//
// Examples:
//
//	barlink -list-devices
//	barlink -port COM3 -device 7
//	barlink -config barlink.yaml -log-level debug
//	parec --format=s16le --channels=2 --rate=48000 | barlink -backend stdin -port /dev/ttyUSB0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/barlink/bars"
	"github.com/cwbudde/barlink/internal/capture"
	"github.com/cwbudde/barlink/internal/capture/portaudio"
	"github.com/cwbudde/barlink/internal/config"
	"github.com/cwbudde/barlink/internal/link"
	"github.com/cwbudde/barlink/internal/observe"
	"github.com/cwbudde/barlink/internal/visualizer"
)

// silenceWarnSeconds is how long the input may stay silent before a warning.
const silenceWarnSeconds = 5

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	cli, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// ── Configuration ─────────────────────────────────────────────────────────
	cfg, err := loadConfig(cli)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "barlink: config file %q not found, copy configs/example.yaml to get started\n", cli.configPath)
		} else {
			fmt.Fprintf(os.Stderr, "barlink: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// ── Device discovery ──────────────────────────────────────────────────────
	if cli.listDevices || (cfg.Backend == config.BackendPortAudio && cfg.DeviceID == "") {
		if err := listDevices(os.Stdout, portaudio.Lister{HostAPI: cfg.HostAPI}); err != nil {
			slog.Error("failed to list capture devices", "err", err)
			return 1
		}
		if !cli.listDevices {
			fmt.Println("\nSet device_id (or -device) to one of the IDs above.")
		}
		return 0
	}

	if cfg.Port == "" {
		slog.Error("no serial port configured; set port or -port")
		return 1
	}

	slog.Info("barlink starting",
		"version", version,
		"port", cfg.Port,
		"baud", cfg.Baud,
		"backend", cfg.Backend,
		"device", cfg.DeviceID,
		"bars", cfg.NumBars,
		"chunk", cfg.ChunkSize,
		"rate", cfg.SampleRate,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return stream(ctx, cfg, logger, defaultOpeners())
}

// linkSink is the serial side of the loop.
type linkSink interface {
	visualizer.Sink
	Close() error
}

// openers acquire the two devices stream owns and must release.
type openers struct {
	link   func(ctx context.Context, cfg link.Config) (linkSink, error)
	source func(cfg *config.Config) (capture.Source, error)
}

func defaultOpeners() openers {
	return openers{
		link: func(ctx context.Context, cfg link.Config) (linkSink, error) {
			l, err := link.Open(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
		source: func(cfg *config.Config) (capture.Source, error) {
			return openSource(cfg, os.Stdin, os.Stderr)
		},
	}
}

// stream opens the serial link and then the capture source, runs the
// pipeline until ctx is done or a fatal error occurs, and releases whatever
// it acquired on every path. It returns the process exit code.
func stream(ctx context.Context, cfg *config.Config, logger *slog.Logger, op openers) int {
	// ── Metrics (optional) ────────────────────────────────────────────────────
	if cfg.MetricsAddr != "" {
		shutdown, err := observe.InitProvider(observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			slog.Error("failed to initialise metrics", "err", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("metrics shutdown error", "err", err)
			}
		}()
	}
	metrics, err := observe.DefaultMetrics()
	if err != nil {
		slog.Error("failed to create metric instruments", "err", err)
		return 1
	}

	reducer, err := bars.New(cfg.ReducerConfig())
	if err != nil {
		slog.Error("invalid analysis settings", "err", err)
		return 1
	}

	for _, b := range reducer.Config().Layout(float64(cfg.SampleRate)) {
		slog.Debug("band", "bar", b.Index, "bins", fmt.Sprintf("%d-%d", b.Bins.Start, b.Bins.End), "low_hz", b.LowHz, "high_hz", b.HighHz)
	}

	// ── Serial link ───────────────────────────────────────────────────────────
	slog.Info("opening serial port", "port", cfg.Port, "settle", time.Duration(cfg.Settle))
	lnk, err := op.link(ctx, cfg.LinkConfig())
	if err != nil {
		if ctx.Err() != nil {
			slog.Info("interrupted while waiting for the display")
			return 0
		}
		slog.Error("failed to open serial port", "port", cfg.Port, "err", err)
		return 1
	}
	defer func() {
		if err := lnk.Close(); err != nil {
			slog.Warn("serial close error", "err", err)
		}
	}()

	// ── Capture ───────────────────────────────────────────────────────────────
	src, err := op.source(cfg)
	if err != nil {
		slog.Error("failed to open capture", "backend", cfg.Backend, "device", cfg.DeviceID, "err", err)
		return 1
	}
	defer func() {
		if err := src.Close(); err != nil {
			slog.Warn("capture close error", "err", err)
		}
	}()

	// ── Run ───────────────────────────────────────────────────────────────────
	pipeline := &visualizer.Pipeline{
		Source:  src,
		Reducer: reducer,
		Sink:    lnk,
		Logger:  logger,
		Metrics: metrics,
		Policy: visualizer.Policy{
			ExitOnWriteError:           cfg.ExitOnWriteError,
			MaxConsecutiveReadFailures: cfg.MaxConsecutiveReadFailures,
			SilenceWarnAfter:           silenceWarnSeconds * cfg.SampleRate / cfg.ChunkSize,
			SilenceThreshold:           visualizer.DefaultSilenceThreshold,
		},
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return pipeline.Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return observe.Serve(gctx, cfg.MetricsAddr) })
		slog.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	slog.Info("streaming, press Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		slog.Error("visualizer stopped", "err", err)
		return 1
	}

	if ctx.Err() != nil {
		slog.Info("shutdown signal received, releasing devices")
	}
	return 0
}

// openSource starts the capture backend selected by cfg.
func openSource(cfg *config.Config, stdin io.Reader, stderr io.Writer) (capture.Source, error) {
	switch cfg.Backend {
	case config.BackendPortAudio:
		s, err := portaudio.Open(cfg.CaptureParams())
		if err != nil {
			return nil, err
		}
		slog.Info("capturing", "device", s.Device().String())
		return s, nil
	case config.BackendCommand:
		argv := cfg.Command
		if len(argv) == 0 {
			argv = capture.ParecArgs(cfg.CaptureParams())
		}
		slog.Debug("starting recorder", "argv", argv)
		c, err := capture.StartCommand(argv, stderr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendStdin:
		return capture.NewReaderSource(stdin), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// listDevices prints every capture device l knows about.
func listDevices(w io.Writer, l capture.Lister) error {
	devices, err := l.Devices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "No capture devices found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Available capture devices:"); err != nil {
		return err
	}
	loopback := false
	for _, d := range devices {
		if _, err := fmt.Fprintf(w, "  %s\n", d); err != nil {
			return err
		}
		loopback = loopback || d.Loopback()
	}
	if !loopback {
		_, err := fmt.Fprintln(w, loopbackHint)
		return err
	}
	return nil
}

const loopbackHint = `No device looks like a playback loopback. Enable "Stereo Mix" (Windows),
select a ".monitor" source (PulseAudio/PipeWire), or use -backend command with parec.`

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
