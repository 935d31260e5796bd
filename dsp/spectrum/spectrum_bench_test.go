package spectrum

import (
	"testing"

	"github.com/cwbudde/barlink/internal/testutil"
)

func BenchmarkMagnitude(b *testing.B) {
	sizes := []struct {
		name string
		size int
	}{
		{"64", 64},
		{"513", 513},
		{"4K", 4096},
	}

	for _, testCase := range sizes {
		b.Run(testCase.name, func(b *testing.B) {
			inData := make([]complex128, testCase.size)
			for i := range inData {
				inData[i] = complex(float64(i)/10.0, float64(testCase.size-i)/10.0)
			}

			b.SetBytes(int64(testCase.size * 16)) // complex128 = 16 bytes
			b.ResetTimer()

			for range b.N {
				_ = Magnitude(inData)
			}
		})
	}
}

func BenchmarkRealAnalyzer(b *testing.B) {
	for _, size := range []int{256, 1024, 4096} {
		a, err := NewRealAnalyzer(size)
		if err != nil {
			b.Fatalf("NewRealAnalyzer: %v", err)
		}
		x := testutil.DeterministicNoise(1, 1, size)
		dst := make([]float64, a.Bins())

		b.Run(testutil.SizeName(size), func(b *testing.B) {
			b.SetBytes(int64(size * 8))
			b.ResetTimer()

			for range b.N {
				if _, err := a.Magnitudes(dst, x); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
