// Package lut rasterizes a fitted color model onto a uniform RGB grid and
// reads and writes the .cube interchange format.
package lut

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/trussc/profilegen/internal/fit"
	"github.com/trussc/profilegen/internal/poly"
)

// LUT3D is a uniform N×N×N lookup table of output RGB triples in [0,1].
// Written once by Rasterize and immutable afterwards.
type LUT3D struct {
	Size int
	data [][3]float64 // index (r*Size + g)*Size + b
}

// New allocates an all-zero LUT of the given grid size.
func New(size int) *LUT3D {
	return &LUT3D{Size: size, data: make([][3]float64, size*size*size)}
}

// At returns the output triple at integer grid coordinates.
func (l *LUT3D) At(r, g, b int) [3]float64 {
	return l.data[(r*l.Size+g)*l.Size+b]
}

// Set stores the output triple at integer grid coordinates.
func (l *LUT3D) Set(r, g, b int, v [3]float64) {
	l.data[(r*l.Size+g)*l.Size+b] = v
}

// Rasterize evaluates the model at every node of a size³ grid. Node (i,j,k)
// receives the model output for input (i/(size-1), j/(size-1), k/(size-1)),
// clipped to [0,1] per channel. The grid corners follow the same formula as
// interior nodes; the result is not forced to be an identity at black or
// white.
//
// Each node is independent, so red-index planes are sharded across
// GOMAXPROCS-bounded workers writing disjoint cells.
func Rasterize(m *fit.Model, size int) (*LUT3D, error) {
	if size < 2 {
		return nil, fmt.Errorf("LUT size must be at least 2, got %d", size)
	}
	l := New(size)
	scale := float64(size - 1)

	workers := runtime.NumCPU()
	if workers > size {
		workers = size
	}

	var wg sync.WaitGroup
	planes := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			features := make([]float64, poly.Terms(m.Order))
			for ri := range planes {
				r := float64(ri) / scale
				for gi := 0; gi < size; gi++ {
					g := float64(gi) / scale
					for bi := 0; bi < size; bi++ {
						b := float64(bi) / scale
						out := m.ApplyWith(features, r, g, b)
						for c := 0; c < 3; c++ {
							if out[c] < 0 {
								out[c] = 0
							} else if out[c] > 1 {
								out[c] = 1
							}
						}
						l.Set(ri, gi, bi, out)
					}
				}
			}
		}()
	}
	for ri := 0; ri < size; ri++ {
		planes <- ri
	}
	close(planes)
	wg.Wait()
	return l, nil
}
