// Command bandinfo prints which FFT bins and frequencies feed each bar.
//
// Usage:
//
//	bandinfo [flags]
//
// Examples:
//
//	bandinfo
//	bandinfo -rate 44100
//	bandinfo -chunk 2048 -bars 16 -truncation 300
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/barlink/bars"
)

func main() {
	d := bars.DefaultConfig()
	chunk := flag.Int("chunk", d.ChunkSize, "frames per block (FFT length)")
	rate := flag.Float64("rate", 48000, "sample rate in Hz")
	numBars := flag.Int("bars", d.NumBars, "number of bars")
	truncation := flag.Int("truncation", d.Truncation, "spectrum bins kept before splitting")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bandinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the bin and frequency range of every bar.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bandinfo -rate 44100\n")
		fmt.Fprintf(os.Stderr, "  bandinfo -chunk 2048 -bars 16 -truncation 300\n")
	}
	flag.Parse()

	cfg, err := layoutConfig(*chunk, *numBars, *truncation, *rate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := printLayout(os.Stdout, cfg, *rate); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// layoutConfig builds the reduction config from flag values and reports
// every invalid one.
func layoutConfig(chunk, numBars, truncation int, rate float64) (bars.Config, error) {
	cfg := bars.DefaultConfig()
	cfg.ChunkSize = chunk
	cfg.NumBars = numBars
	cfg.Truncation = truncation

	err := cfg.Validate()
	if !(rate > 0) {
		err = errors.Join(err, fmt.Errorf("sample rate must be > 0: %v", rate))
	}
	if err != nil {
		return bars.Config{}, err
	}
	return cfg, nil
}

func printLayout(w io.Writer, cfg bars.Config, rate float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Bar\tBins\tWidth\tLow [Hz]\tHigh [Hz]\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "---\t----\t-----\t--------\t---------\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range cfg.Layout(rate) {
		bins := "-"
		if b.Bins.Len() > 0 {
			bins = fmt.Sprintf("%d-%d", b.Bins.Start, b.Bins.End-1)
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%.1f\n",
			b.Index, bins, b.Bins.Len(), b.LowHz, b.HighHz,
		); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	if _, err := fmt.Fprintf(tw, "\nkept %d of %d bins, bin width %.3f Hz\n",
		cfg.Bins(), cfg.ChunkSize/2+1, rate/float64(cfg.ChunkSize)); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
