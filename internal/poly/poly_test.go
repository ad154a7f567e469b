package poly

import (
	"math"
	"testing"
)

func TestTerms(t *testing.T) {
	cases := map[int]int{2: 10, 3: 20, 4: 35}
	for order, want := range cases {
		if got := Terms(order); got != want {
			t.Errorf("Terms(%d) = %d, want %d", order, got, want)
		}
	}
}

func TestExpandBiasFirst(t *testing.T) {
	for _, order := range []int{2, 3, 4} {
		f := Expand(0.3, 0.4, 0.5, order)
		if f[0] != 1 {
			t.Errorf("order %d: first term = %v, want bias 1", order, f[0])
		}
		if len(f) != Terms(order) {
			t.Errorf("order %d: len = %d, want %d", order, len(f), Terms(order))
		}
	}
}

func TestExpandKnownValues(t *testing.T) {
	l, r, g := 2.0, 3.0, 5.0
	f := Expand(l, r, g, 4)
	want := []float64{
		1, 2, 3, 5,
		4, 9, 25, 6, 10, 15,
		8, 27, 125, 12, 20, 18, 50, 45, 75, 30,
		16, 81, 625, 24, 40, 54, 250, 135, 375, 36, 100, 225, 60, 90, 150,
	}
	if len(f) != len(want) {
		t.Fatalf("len = %d, want %d", len(f), len(want))
	}
	for i := range want {
		if math.Abs(f[i]-want[i]) > 1e-12 {
			t.Errorf("term %d = %v, want %v", i, f[i], want[i])
		}
	}
}

// The batched matrix expansion must agree element-for-element with the
// scalar expansion for every supported order.
func TestExpandMatrixMatchesScalar(t *testing.T) {
	triples := [][3]float64{
		{0, 0, 0},
		{1, 1, 1},
		{0.25, 0.5, 0.75},
		{0.9, 0.1, 0.33},
	}
	for _, order := range []int{2, 3, 4} {
		x := ExpandMatrix(triples, order)
		rows, cols := x.Dims()
		if rows != len(triples) || cols != Terms(order) {
			t.Fatalf("order %d: dims = %dx%d, want %dx%d", order, rows, cols, len(triples), Terms(order))
		}
		for i, v := range triples {
			single := Expand(v[0], v[1], v[2], order)
			for j := range single {
				if x.At(i, j) != single[j] {
					t.Errorf("order %d row %d term %d: matrix %v != scalar %v",
						order, i, j, x.At(i, j), single[j])
				}
			}
		}
	}
}

func TestValidOrder(t *testing.T) {
	for order, want := range map[int]bool{1: false, 2: true, 3: true, 4: true, 5: false} {
		if got := ValidOrder(order); got != want {
			t.Errorf("ValidOrder(%d) = %v, want %v", order, got, want)
		}
	}
}
