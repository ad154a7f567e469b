package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ResidualHistogram renders the distribution of final inlier residual norms
// to a PNG at path. An empty residual slice is an error; the histogram would
// be meaningless.
func ResidualHistogram(path string, residuals []float64) error {
	if len(residuals) == 0 {
		return fmt.Errorf("no residuals to plot")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating plot dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Inlier Residual Distribution"
	p.X.Label.Text = "residual (RGB distance)"
	p.Y.Label.Text = "samples"

	vals := make(plotter.Values, len(residuals))
	copy(vals, residuals)
	h, err := plotter.NewHist(vals, 60)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving residual histogram: %w", err)
	}
	return nil
}
