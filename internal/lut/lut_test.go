package lut

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/trussc/profilegen/internal/fit"
	"github.com/trussc/profilegen/internal/sampleset"
)

func identityModel(t *testing.T, order int) *fit.Model {
	t.Helper()
	const steps = 10
	set := sampleset.New(steps * steps * steps)
	for i := 0; i < steps; i++ {
		for j := 0; j < steps; j++ {
			for k := 0; k < steps; k++ {
				c := [3]float64{
					float64(i) / float64(steps-1),
					float64(j) / float64(steps-1),
					float64(k) / float64(steps-1),
				}
				set.Append(c, c)
			}
		}
	}
	p := fit.DefaultParams()
	p.Order = order
	p.ClipRounds = 0
	res, err := fit.Fit(set, p)
	if err != nil {
		t.Fatal(err)
	}
	return res.Model
}

func TestRasterizeIdentity(t *testing.T) {
	m := identityModel(t, 3)
	l, err := Rasterize(m, 17)
	if err != nil {
		t.Fatal(err)
	}
	scale := float64(l.Size - 1)
	for r := 0; r < l.Size; r++ {
		for g := 0; g < l.Size; g++ {
			for b := 0; b < l.Size; b++ {
				v := l.At(r, g, b)
				want := [3]float64{float64(r) / scale, float64(g) / scale, float64(b) / scale}
				for c := 0; c < 3; c++ {
					if math.Abs(v[c]-want[c]) > 1e-3 {
						t.Fatalf("node (%d,%d,%d) = %v, want %v", r, g, b, v, want)
					}
				}
			}
		}
	}
}

func TestRasterizeGrayscaleMidpoint(t *testing.T) {
	// Grayscale samples with a small midpoint lift: the rasterized LUT's
	// center node must carry the lift.
	set := sampleset.New(300)
	for i := 0; i < 100; i++ {
		set.Append([3]float64{0, 0, 0}, [3]float64{0, 0, 0})
		set.Append([3]float64{1, 1, 1}, [3]float64{1, 1, 1})
		set.Append([3]float64{0.5, 0.5, 0.5}, [3]float64{0.52, 0.52, 0.52})
	}
	p := fit.DefaultParams()
	p.Order = 2
	p.ClipRounds = 0
	res, err := fit.Fit(set, p)
	if err != nil {
		t.Fatal(err)
	}

	const size = 33
	l, err := Rasterize(res.Model, size)
	if err != nil {
		t.Fatal(err)
	}
	mid := l.At((size-1)/2, (size-1)/2, (size-1)/2)
	for c := 0; c < 3; c++ {
		if math.Abs(mid[c]-0.52) > 0.01 {
			t.Errorf("midpoint node = %v, want ~0.52", mid)
		}
	}
}

func TestRasterizeClipsToUnitRange(t *testing.T) {
	// A fit against lifted targets extrapolates past 1.0 near white; the
	// rasterizer must clip.
	set := sampleset.New(200)
	for i := 0; i < 200; i++ {
		v := float64(i%20) / 19.0
		lifted := v + 0.2
		if lifted > 1 {
			lifted = 1
		}
		set.Append([3]float64{v, v, v}, [3]float64{lifted, lifted, lifted})
	}
	p := fit.DefaultParams()
	p.Order = 2
	p.ClipRounds = 0
	res, err := fit.Fit(set, p)
	if err != nil {
		t.Fatal(err)
	}
	l, err := Rasterize(res.Model, 9)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < l.Size; r++ {
		for g := 0; g < l.Size; g++ {
			for b := 0; b < l.Size; b++ {
				v := l.At(r, g, b)
				for c := 0; c < 3; c++ {
					if v[c] < 0 || v[c] > 1 {
						t.Fatalf("node (%d,%d,%d) = %v outside [0,1]", r, g, b, v)
					}
				}
			}
		}
	}
}

func TestRasterizeRejectsTinyGrid(t *testing.T) {
	m := identityModel(t, 2)
	if _, err := Rasterize(m, 1); err == nil {
		t.Error("size 1 accepted, want error")
	}
}

func TestWriteCubeHeaderAndOrdering(t *testing.T) {
	l := New(2)
	// Distinct value per node so ordering is visible in the output.
	for r := 0; r < 2; r++ {
		for g := 0; g < 2; g++ {
			for b := 0; b < 2; b++ {
				l.Set(r, g, b, [3]float64{float64(r), float64(g), float64(b)})
			}
		}
	}
	var buf bytes.Buffer
	if err := l.WriteCube(&buf, "Test LUT"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	want := []string{
		`TITLE "Test LUT"`,
		"LUT_3D_SIZE 2",
		"DOMAIN_MIN 0.0 0.0 0.0",
		"DOMAIN_MAX 1.0 1.0 1.0",
		"",
		"0.000000 0.000000 0.000000", // r=0 g=0 b=0
		"1.000000 0.000000 0.000000", // r=1 g=0 b=0: red varies fastest
		"0.000000 1.000000 0.000000", // r=0 g=1 b=0
		"1.000000 1.000000 0.000000",
		"0.000000 0.000000 1.000000", // b=1 plane: blue varies slowest
		"1.000000 0.000000 1.000000",
		"0.000000 1.000000 1.000000",
		"1.000000 1.000000 1.000000",
	}
	for i, w := range want {
		if i >= len(lines) || lines[i] != w {
			t.Fatalf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestCubeRoundTrip(t *testing.T) {
	m := identityModel(t, 3)
	orig, err := Rasterize(m, 9)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := orig.WriteCube(&buf, "RoundTrip"); err != nil {
		t.Fatal(err)
	}
	parsed, title, err := ReadCube(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if title != "RoundTrip" {
		t.Errorf("title = %q, want RoundTrip", title)
	}
	if parsed.Size != orig.Size {
		t.Fatalf("size = %d, want %d", parsed.Size, orig.Size)
	}
	for r := 0; r < orig.Size; r++ {
		for g := 0; g < orig.Size; g++ {
			for b := 0; b < orig.Size; b++ {
				a, bb := orig.At(r, g, b), parsed.At(r, g, b)
				for c := 0; c < 3; c++ {
					// Values survive the 6-decimal text representation.
					if math.Abs(a[c]-bb[c]) > 5e-7 {
						t.Fatalf("node (%d,%d,%d): %v vs %v", r, g, b, a, bb)
					}
				}
			}
		}
	}
}

func TestReadCubeErrors(t *testing.T) {
	cases := map[string]string{
		"no header":      "0.5 0.5 0.5\n",
		"bad size":       "LUT_3D_SIZE banana\n",
		"size too large": "LUT_3D_SIZE 9999\n",
		"short line":     "LUT_3D_SIZE 2\n0.5 0.5\n",
		"bad component":  "LUT_3D_SIZE 2\n0.5 x 0.5\n",
		"truncated":      "LUT_3D_SIZE 2\n0.5 0.5 0.5\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := ReadCube(strings.NewReader(input)); err == nil {
				t.Errorf("input %q accepted, want error", input)
			}
		})
	}
}

func TestReadCubeIgnoresComments(t *testing.T) {
	input := "# generated for testing\nLUT_3D_SIZE 2\nDOMAIN_MIN 0.0 0.0 0.0\nDOMAIN_MAX 1.0 1.0 1.0\n\n" +
		strings.Repeat("0.250000 0.500000 0.750000\n", 8)
	l, _, err := ReadCube(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if v := l.At(1, 1, 1); v != [3]float64{0.25, 0.5, 0.75} {
		t.Errorf("node value = %v", v)
	}
}
