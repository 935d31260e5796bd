package spectrum

import (
	"reflect"
	"testing"
)

func TestSplitEven(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  []int
	}{
		{"even", 150, 10, []int{15, 15, 15, 15, 15, 15, 15, 15, 15, 15}},
		{"remainder", 13, 4, []int{4, 3, 3, 3}},
		{"remainder first", 17, 5, []int{4, 4, 3, 3, 3}},
		{"fewer bins than parts", 3, 5, []int{1, 1, 1, 0, 0}},
		{"empty", 0, 3, []int{0, 0, 0}},
		{"single", 7, 1, []int{7}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ranges := SplitEven(tc.n, tc.parts)
			if len(ranges) != tc.parts {
				t.Fatalf("len=%d want %d", len(ranges), tc.parts)
			}

			got := make([]int, len(ranges))
			next := 0
			for i, r := range ranges {
				if r.Start != next {
					t.Fatalf("range %d starts at %d, want %d", i, r.Start, next)
				}
				got[i] = r.Len()
				next = r.End
			}
			if next != tc.n {
				t.Fatalf("ranges cover %d bins, want %d", next, tc.n)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("sizes=%v want %v", got, tc.want)
			}
		})
	}
}

func TestSplitEvenInvalidParts(t *testing.T) {
	if SplitEven(10, 0) != nil {
		t.Fatal("expected nil for zero parts")
	}
	if SplitEven(10, -2) != nil {
		t.Fatal("expected nil for negative parts")
	}
}

func TestSumRanges(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7}
	ranges := SplitEven(len(values), 3)

	got := SumRanges(nil, values, ranges)
	want := []float64{1 + 2 + 3, 4 + 5, 6 + 7}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sums=%v want %v", got, want)
	}
}

func TestSumRangesClipsAndEmpty(t *testing.T) {
	values := []float64{1, 1}
	ranges := []Range{{0, 1}, {1, 5}, {5, 5}}

	got := SumRanges(make([]float64, 0, 3), values, ranges)
	want := []float64{1, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sums=%v want %v", got, want)
	}
}
