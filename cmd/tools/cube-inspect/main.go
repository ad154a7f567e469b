// Package main provides an inspection tool for .cube LUT files.
// It parses each file, reports its dimensions and how far the table deviates
// from the identity transform, and exits non-zero on malformed input.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/trussc/profilegen/internal/lut"
)

var quiet = flag.Bool("quiet", false, "Only report parse failures")

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.cube> [...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	failures := 0
	for _, path := range flag.Args() {
		if err := inspect(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failures++
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func inspect(path string) error {
	grid, title, err := lut.ReadCubeFile(path)
	if err != nil {
		return err
	}
	if *quiet {
		return nil
	}

	mean, max := identityDeviation(grid)
	black := grid.At(0, 0, 0)
	white := grid.At(grid.Size-1, grid.Size-1, grid.Size-1)

	fmt.Printf("%s\n", path)
	fmt.Printf("  title:      %q\n", title)
	fmt.Printf("  size:       %d (%d entries)\n", grid.Size, grid.Size*grid.Size*grid.Size)
	fmt.Printf("  black node: %.6f %.6f %.6f\n", black[0], black[1], black[2])
	fmt.Printf("  white node: %.6f %.6f %.6f\n", white[0], white[1], white[2])
	fmt.Printf("  identity deviation: mean %.6f, max %.6f\n", mean, max)
	return nil
}

// identityDeviation measures the mean and maximum Euclidean distance between
// each LUT node and the identity mapping of its grid position.
func identityDeviation(grid *lut.LUT3D) (mean, max float64) {
	n := grid.Size
	denom := float64(n - 1)
	var sum float64
	for r := 0; r < n; r++ {
		for g := 0; g < n; g++ {
			for b := 0; b < n; b++ {
				v := grid.At(r, g, b)
				dr := v[0] - float64(r)/denom
				dg := v[1] - float64(g)/denom
				db := v[2] - float64(b)/denom
				d := math.Sqrt(dr*dr + dg*dg + db*db)
				sum += d
				if d > max {
					max = d
				}
			}
		}
	}
	mean = sum / float64(n*n*n)
	return mean, max
}
