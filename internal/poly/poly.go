// Package poly expands chromaticity triples into the monomial feature basis
// used by the color-transform fit.
//
// The same scalar expansion backs both the batched design-matrix build and
// the per-node evaluation during LUT rasterization. Term ordering is part of
// the model contract: a coefficient matrix is only meaningful against the
// exact ordering it was fitted with.
package poly

import "gonum.org/v1/gonum/mat"

// Supported polynomial orders.
const (
	MinOrder = 2
	MaxOrder = 4
)

// Terms returns the number of features produced for the given order,
// including the leading bias term.
func Terms(order int) int {
	switch {
	case order >= 4:
		return 35
	case order == 3:
		return 20
	default:
		return 10
	}
}

// ValidOrder reports whether order is a supported expansion order.
func ValidOrder(order int) bool {
	return order >= MinOrder && order <= MaxOrder
}

// ExpandInto writes the feature vector for (l, r, g) into dst, which must
// have length Terms(order). The layout is:
//
//	order 2: [1, L, r, g, L², r², g², Lr, Lg, rg]
//	order 3: + [L³, r³, g³, L²r, L²g, Lr², Lg², r²g, rg², Lrg]
//	order 4: + [L⁴, r⁴, g⁴, L³r, L³g, Lr³, Lg³, r³g, rg³, L²r², L²g², r²g², L²rg, Lr²g, Lrg²]
func ExpandInto(dst []float64, l, r, g float64, order int) {
	dst[0] = 1
	dst[1] = l
	dst[2] = r
	dst[3] = g
	dst[4] = l * l
	dst[5] = r * r
	dst[6] = g * g
	dst[7] = l * r
	dst[8] = l * g
	dst[9] = r * g
	if order < 3 {
		return
	}
	dst[10] = l * l * l
	dst[11] = r * r * r
	dst[12] = g * g * g
	dst[13] = l * l * r
	dst[14] = l * l * g
	dst[15] = l * r * r
	dst[16] = l * g * g
	dst[17] = r * r * g
	dst[18] = r * g * g
	dst[19] = l * r * g
	if order < 4 {
		return
	}
	l2, r2, g2 := l*l, r*r, g*g
	dst[20] = l2 * l2
	dst[21] = r2 * r2
	dst[22] = g2 * g2
	dst[23] = l2 * l * r
	dst[24] = l2 * l * g
	dst[25] = l * r2 * r
	dst[26] = l * g2 * g
	dst[27] = r2 * r * g
	dst[28] = r * g2 * g
	dst[29] = l2 * r2
	dst[30] = l2 * g2
	dst[31] = r2 * g2
	dst[32] = l2 * r * g
	dst[33] = l * r2 * g
	dst[34] = l * r * g2
}

// Expand returns a freshly allocated feature vector for (l, r, g).
func Expand(l, r, g float64, order int) []float64 {
	dst := make([]float64, Terms(order))
	ExpandInto(dst, l, r, g, order)
	return dst
}

// ExpandMatrix builds the design matrix for a batch of (L, r, g) triples:
// one row per input triple, Terms(order) columns. Rows are produced by the
// same scalar expansion used at evaluation time.
func ExpandMatrix(lrg [][3]float64, order int) *mat.Dense {
	x := mat.NewDense(len(lrg), Terms(order), nil)
	for i, v := range lrg {
		ExpandInto(x.RawRowView(i), v[0], v[1], v[2], order)
	}
	return x
}
