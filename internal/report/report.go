// Package report renders fitting diagnostics: per-group HTML reports with
// coverage and error charts, residual histogram images, and a small HTTP
// dashboard over the profile database.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/trussc/profilegen/internal/coverage"
	"github.com/trussc/profilegen/internal/fit"
)

// Summary carries the per-group numbers shown in a report.
type Summary struct {
	Name        string
	SampleCount int
	InlierCount int
	Rounds      int
	Rank        int
	MAE         float64
	RMSE        float64
	ChannelMAE  [3]float64
	Warnings    []string
}

// FromResult builds a Summary from a fit result.
func FromResult(name string, res *fit.Result) Summary {
	return Summary{
		Name:        name,
		SampleCount: res.SampleCount,
		InlierCount: res.InlierCount,
		Rounds:      res.Rounds,
		Rank:        res.Rank,
		MAE:         res.MAE,
		RMSE:        res.RMSE,
		ChannelMAE:  res.ChannelMAE,
		Warnings:    res.Warnings,
	}
}

// RenderFitReport writes an HTML page with the hue coverage histogram, the
// tonal distribution and the per-channel error bars for one fitted group.
func RenderFitReport(w io.Writer, sum Summary, hist *coverage.Histogram, advisories []string) error {
	page := components.NewPage()
	page.AddCharts(
		hueChart(hist, advisories),
		valueChart(hist),
		errorChart(sum),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering report for %s: %w", sum.Name, err)
	}
	return nil
}

// WriteFitReport renders the group report to path, creating parent
// directories as needed.
func WriteFitReport(path string, sum Summary, hist *coverage.Histogram, advisories []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := RenderFitReport(f, sum, hist, advisories); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func hueChart(hist *coverage.Histogram, advisories []string) *charts.Bar {
	totals := hist.HueTotals()
	x := make([]string, coverage.HueBins)
	y := make([]opts.BarData, coverage.HueBins)
	for i := 0; i < coverage.HueBins; i++ {
		x[i] = coverage.HueName(i)
		y[i] = opts.BarData{Value: totals[i]}
	}

	subtitle := "no coverage gaps detected"
	if len(advisories) > 0 {
		subtitle = fmt.Sprintf("%d advisories: %s", len(advisories), advisories[0])
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Hue Coverage", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("samples", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func valueChart(hist *coverage.Histogram) *charts.Bar {
	x := []string{"Shadows", "Low mids", "High mids", "Highlights"}
	y := make([]opts.BarData, coverage.ValBins)
	for vi := 0; vi < coverage.ValBins; vi++ {
		total := 0
		for hi := 0; hi < coverage.HueBins; hi++ {
			for si := 0; si < coverage.SatBins; si++ {
				total += hist.Counts[hi][si][vi]
			}
		}
		y[vi] = opts.BarData{Value: total}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Tonal Distribution", Subtitle: fmt.Sprintf("%d samples analyzed", hist.Samples)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("samples", y)
	return bar
}

func errorChart(sum Summary) *charts.Bar {
	x := []string{"MAE", "RMSE", "MAE Red", "MAE Green", "MAE Blue"}
	y := []opts.BarData{
		{Value: sum.MAE},
		{Value: sum.RMSE},
		{Value: sum.ChannelMAE[0]},
		{Value: sum.ChannelMAE[1]},
		{Value: sum.ChannelMAE[2]},
	}

	subtitle := fmt.Sprintf("%s: %d/%d inliers, %d rounds, rank %d",
		sum.Name, sum.InlierCount, sum.SampleCount, sum.Rounds, sum.Rank)
	if len(sum.Warnings) > 0 {
		subtitle += fmt.Sprintf(" (%s)", sum.Warnings[0])
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Fit Error", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("error", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}
