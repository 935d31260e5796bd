package window_test

import (
	"fmt"

	"github.com/cwbudde/barlink/dsp/window"
)

func ExampleGenerate() {
	w := window.Generate(window.TypeHann, 5)
	fmt.Printf("%.2f %.2f %.2f %.2f %.2f\n", w[0], w[1], w[2], w[3], w[4])
	// Output:
	// 0.00 0.50 1.00 0.50 0.00
}

func ExampleParseType() {
	t, _ := window.ParseType("Blackman")
	fmt.Println(t)
	// Output:
	// blackman
}
