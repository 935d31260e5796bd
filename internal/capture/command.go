package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// ParecArgs returns the PulseAudio recorder invocation for p. DeviceID is
// passed as the source name (for loopback use the sink's ".monitor").
func ParecArgs(p Params) []string {
	args := []string{
		"parec",
		"--format=s16le",
		"--channels=" + strconv.Itoa(p.Channels),
		"--rate=" + strconv.Itoa(p.SampleRate),
		"--latency-msec=10",
	}
	if p.DeviceID != "" {
		args = append(args, "--device="+p.DeviceID)
	}
	return args
}

// CommandSource runs an external recorder that writes raw s16le PCM to its
// standard output and reads blocks from it.
type CommandSource struct {
	*ReaderSource

	cmd  *exec.Cmd
	once sync.Once
	err  error
}

// StartCommand launches argv and returns a source reading its stdout.
// stderr receives the recorder's diagnostics and may be nil.
func StartCommand(argv []string, stderr io.Writer) (*CommandSource, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty capture command", ErrStreamOpen)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamOpen, err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", ErrDeviceNotFound, argv[0], err)
		}
		return nil, fmt.Errorf("%w: start %s: %w", ErrStreamOpen, argv[0], err)
	}

	return &CommandSource{
		ReaderSource: NewReaderSource(stdout),
		cmd:          cmd,
	}, nil
}

// ReadBlock reads the next block from the recorder.
func (s *CommandSource) ReadBlock(ctx context.Context, dst []int16) error {
	return s.ReaderSource.ReadBlock(ctx, dst)
}

// Close stops the recorder and waits for it to exit.
func (s *CommandSource) Close() error {
	s.once.Do(func() {
		closeErr := s.ReaderSource.Close()
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		// Wait reports the kill as an *exec.ExitError; that is the
		// expected way for the recorder to stop.
		waitErr := s.cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			waitErr = nil
		}
		s.err = errors.Join(closeErr, waitErr)
	})
	return s.err
}
