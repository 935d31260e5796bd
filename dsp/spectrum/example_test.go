package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/barlink/dsp/spectrum"
)

func ExampleMagnitude() {
	bins := []complex128{1 + 0i, 0 + 1i, -1 + 0i}
	mag := spectrum.Magnitude(bins)
	fmt.Printf("%.1f %.1f %.1f\n", mag[0], mag[1], mag[2])
	// Output:
	// 1.0 1.0 1.0
}

func ExampleSplitEven() {
	for _, r := range spectrum.SplitEven(10, 4) {
		fmt.Print(r.Len(), " ")
	}
	fmt.Println()
	// Output:
	// 3 3 2 2
}

func ExampleRealAnalyzer_Magnitudes() {
	a, err := spectrum.NewRealAnalyzer(8)
	if err != nil {
		fmt.Println(err)
		return
	}
	mag, _ := a.Magnitudes(nil, []float64{1, 1, 1, 1, 1, 1, 1, 1})
	fmt.Printf("%d bins, DC=%.0f\n", len(mag), mag[0])
	// Output:
	// 5 bins, DC=8
}
