// Package colorspace provides the color basis conversions shared by the
// polynomial fitter and the LUT rasterizer.
//
// Fitting happens in a chromaticity-plus-luminance basis (L, r, g) rather
// than raw RGB: near the neutral axis R≈G≈B, so RGB monomials become nearly
// collinear and the least-squares system degenerates. Normalising out the
// brightness keeps the basis well conditioned. The same scalar conversion is
// used on both the fitting path and the per-node rasterization path so the
// model is always evaluated in the space it was trained in.
package colorspace

import "math"

// Eps protects the chromaticity denominator against pure black (R+G+B == 0).
const Eps = 1e-6

// LRG converts an RGB triple in [0,1] to the (L, r, g) fitting basis:
//
//	L = (R+G+B)/3    luminance
//	r = R/(R+G+B)    red chromaticity
//	g = G/(R+G+B)    green chromaticity
//
// The result is finite for any finite input.
func LRG(r, g, b float64) (l, cr, cg float64) {
	s := r + g + b + Eps
	return s / 3.0, r / s, g / s
}

// HSV converts an RGB triple in [0,1] to hue/saturation/value, each in [0,1].
// Hue 0 is red; an achromatic input has hue and saturation 0.
func HSV(r, g, b float64) (h, s, v float64) {
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	v = maxc
	if maxc == minc || maxc == 0 {
		return 0, 0, v
	}
	d := maxc - minc
	s = d / maxc
	switch maxc {
	case r:
		h = (g - b) / d
	case g:
		h = 2.0 + (b-r)/d
	default:
		h = 4.0 + (r-g)/d
	}
	h = h / 6.0
	h -= math.Floor(h)
	return h, s, v
}
