package spectrum

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/barlink/internal/testutil"
)

func TestMagnitude(t *testing.T) {
	bins := []complex128{3 + 4i, -1 - 1i, 0}

	mag := Magnitude(bins)
	if len(mag) != len(bins) {
		t.Fatalf("Magnitude length mismatch: got=%d want=%d", len(mag), len(bins))
	}

	if math.Abs(mag[0]-5) > 1e-12 {
		t.Fatalf("Magnitude[0]=%f want=5", mag[0])
	}
	if math.Abs(mag[1]-math.Sqrt2) > 1e-12 {
		t.Fatalf("Magnitude[1]=%f want=%f", mag[1], math.Sqrt2)
	}
	if mag[2] != 0 {
		t.Fatalf("Magnitude[2]=%f want=0", mag[2])
	}

	if Magnitude(nil) != nil {
		t.Fatal("Magnitude(nil) should be nil")
	}
}

func TestMagnitudeFromParts(t *testing.T) {
	re := []float64{3, 0, -6}
	im := []float64{4, 2, 8}
	dst := make([]float64, 3)

	MagnitudeFromParts(dst, re, im)
	testutil.RequireSliceNearlyEqual(t, dst, []float64{5, 2, 10}, 1e-12)
}

// naiveRealDFT is the O(n^2) reference for |X[k]|, k in [0, n/2].
func naiveRealDFT(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n/2+1)
	for k := range out {
		var acc complex128
		for i, v := range x {
			angle := -2 * math.Pi * float64((k*i)%n) / float64(n)
			acc += complex(v, 0) * cmplx.Exp(complex(0, angle))
		}
		out[k] = cmplx.Abs(acc)
	}
	return out
}

func TestRealAnalyzerMatchesNaiveDFT(t *testing.T) {
	for _, size := range []int{8, 64, 256, 1024, 2048, 4096} {
		a, err := NewRealAnalyzer(size)
		if err != nil {
			t.Fatalf("NewRealAnalyzer(%d): %v", size, err)
		}

		x := testutil.DeterministicNoise(int64(size), 1000, size)
		got, err := a.Magnitudes(nil, x)
		if err != nil {
			t.Fatalf("Magnitudes: %v", err)
		}

		testutil.RequireSliceNearlyEqual(t, got, naiveRealDFT(x), 1e-6)
	}
}

func TestRealAnalyzerBinCount(t *testing.T) {
	a, err := NewRealAnalyzer(1024)
	if err != nil {
		t.Fatalf("NewRealAnalyzer: %v", err)
	}
	if a.Size() != 1024 || a.Bins() != 513 {
		t.Fatalf("size=%d bins=%d, want 1024/513", a.Size(), a.Bins())
	}

	mag, err := a.Magnitudes(nil, make([]float64, 1024))
	if err != nil {
		t.Fatalf("Magnitudes: %v", err)
	}
	if len(mag) != 513 {
		t.Fatalf("len=%d want 513", len(mag))
	}
	for i, v := range mag {
		if v != 0 {
			t.Fatalf("silence bin %d = %v, want 0", i, v)
		}
	}
}

func TestRealAnalyzerSinePeak(t *testing.T) {
	const (
		size = 1024
		rate = 48000.0
		bin  = 37
		amp  = 1000.0
	)

	a, err := NewRealAnalyzer(size)
	if err != nil {
		t.Fatalf("NewRealAnalyzer: %v", err)
	}

	x := testutil.DeterministicSine(BinFrequency(bin, size, rate), rate, amp, size)
	mag, err := a.Magnitudes(nil, x)
	if err != nil {
		t.Fatalf("Magnitudes: %v", err)
	}

	want := amp * size / 2
	if math.Abs(mag[bin]-want) > 1e-6*want {
		t.Fatalf("peak=%f want=%f", mag[bin], want)
	}
	for k, v := range mag {
		if k != bin && v > 1e-6*want {
			t.Fatalf("leakage at bin %d: %f", k, v)
		}
	}
}

func TestRealAnalyzerReusesDestination(t *testing.T) {
	a, err := NewRealAnalyzer(16)
	if err != nil {
		t.Fatalf("NewRealAnalyzer: %v", err)
	}

	dst := make([]float64, 0, 32)
	out, err := a.Magnitudes(dst, testutil.Ones(16))
	if err != nil {
		t.Fatalf("Magnitudes: %v", err)
	}
	if &out[0] != &dst[:1][0] {
		t.Fatal("expected destination backing array to be reused")
	}
	if math.Abs(out[0]-16) > 1e-9 {
		t.Fatalf("DC=%f want 16", out[0])
	}
}

func TestRealAnalyzerErrors(t *testing.T) {
	for _, size := range []int{-8, 0, 12, 1000, 1023, 1536, 6144} {
		if _, err := NewRealAnalyzer(size); !errors.Is(err, ErrSize) {
			t.Fatalf("NewRealAnalyzer(%d) err=%v, want ErrSize", size, err)
		}
	}

	a, err := NewRealAnalyzer(32)
	if err != nil {
		t.Fatalf("NewRealAnalyzer: %v", err)
	}
	_, err = a.Magnitudes(nil, make([]float64, 31))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err=%v, want ErrLengthMismatch", err)
	}
}

func TestBinFrequency(t *testing.T) {
	if got := BinFrequency(1, 1024, 48000); math.Abs(got-46.875) > 1e-12 {
		t.Fatalf("BinFrequency=%f want 46.875", got)
	}
	if got := BinFrequency(3, 0, 48000); got != 0 {
		t.Fatalf("BinFrequency with zero size=%f want 0", got)
	}
}
