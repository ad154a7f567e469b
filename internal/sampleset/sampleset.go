// Package sampleset holds the RGB correspondence samples consumed by the
// color-transform fitter. A Set pairs a source (RAW-rendered) color with the
// target (camera JPEG) color observed for the same pixel or patch.
package sampleset

import (
	"fmt"
	"math"
)

// DefaultBrightnessThreshold filters near-black background pixels: a sample
// is kept only if its source R+G+B exceeds this. Matches the black backdrop
// used on calibration gradient charts (roughly a 1% sum threshold).
const DefaultBrightnessThreshold = 0.03

// Set is an ordered collection of (source, target) RGB correspondences.
// Order carries no meaning for the fit; it exists only so uniform stride
// subsampling is deterministic.
type Set struct {
	Src [][3]float64
	Tgt [][3]float64
}

// New returns an empty Set with capacity for n samples.
func New(n int) *Set {
	return &Set{
		Src: make([][3]float64, 0, n),
		Tgt: make([][3]float64, 0, n),
	}
}

// Len returns the number of samples.
func (s *Set) Len() int { return len(s.Src) }

// Append adds one correspondence.
func (s *Set) Append(src, tgt [3]float64) {
	s.Src = append(s.Src, src)
	s.Tgt = append(s.Tgt, tgt)
}

// Merge appends all samples from other.
func (s *Set) Merge(other *Set) {
	s.Src = append(s.Src, other.Src...)
	s.Tgt = append(s.Tgt, other.Tgt...)
}

// Stride returns a uniform stride subsample capped at max samples. The
// stride is deterministic (every k-th sample), not random, so repeated runs
// over the same input fit on identical data. If the set already fits within
// max the receiver is returned unchanged.
func (s *Set) Stride(max int) *Set {
	if max <= 0 || s.Len() <= max {
		return s
	}
	step := s.Len() / max
	if step < 1 {
		step = 1
	}
	out := New(s.Len()/step + 1)
	for i := 0; i < s.Len(); i += step {
		out.Append(s.Src[i], s.Tgt[i])
	}
	return out
}

// Validate checks the Set invariants: equal lengths and finite components
// within [0,1] on both sides.
func (s *Set) Validate() error {
	if len(s.Src) != len(s.Tgt) {
		return fmt.Errorf("sample count mismatch: %d source vs %d target", len(s.Src), len(s.Tgt))
	}
	for i := range s.Src {
		for c := 0; c < 3; c++ {
			for _, v := range [2]float64{s.Src[i][c], s.Tgt[i][c]} {
				if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
					return fmt.Errorf("sample %d channel %d out of range: %v", i, c, v)
				}
			}
		}
	}
	return nil
}
