package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/trussc/profilegen/internal/coverage"
	"github.com/trussc/profilegen/internal/fit"
	"github.com/trussc/profilegen/internal/lut"
	"github.com/trussc/profilegen/internal/pairs"
	"github.com/trussc/profilegen/internal/profiledb"
	"github.com/trussc/profilegen/internal/rawproc"
	"github.com/trussc/profilegen/internal/report"
	"github.com/trussc/profilegen/internal/sampleset"
	"github.com/trussc/profilegen/internal/scan"
)

type groupOptions struct {
	params              fit.Params
	lutSize             int
	brightnessThreshold float64
	outputDir           string
	reportDir           string
	dryRun              bool
	force               bool
	db                  *profiledb.DB
}

type groupResult struct {
	name       string
	cubePath   string
	fit        *fit.Result
	advisories []string
}

// processGroup runs the full pipeline for one camera/style group: develop
// each RAW, extract correspondences, fit the transform, rasterize the LUT
// and persist the outcome. A failed pair is logged and skipped; the group
// fails only when no pair yields samples.
func processGroup(ctx context.Context, g scan.Group, opts groupOptions) (groupResult, error) {
	log.Printf("processing %s (%d pairs)", g.Name(), len(g.Pairs))

	merged := sampleset.New(0)
	for _, pair := range g.Pairs {
		if ctx.Err() != nil {
			return groupResult{}, ctx.Err()
		}
		set, err := extractPair(ctx, pair, opts.brightnessThreshold)
		if err != nil {
			log.Printf("  pair %s: %v", filepath.Base(pair.RawPath), err)
			continue
		}
		log.Printf("  pair %s: %d samples", filepath.Base(pair.RawPath), set.Len())
		merged.Merge(set)
	}
	if merged.Len() == 0 {
		return groupResult{}, fmt.Errorf("no usable samples in group %s", g.Name())
	}

	hist := coverage.Build(merged.Src)
	advisories := hist.Advisories()

	res, err := fit.Fit(merged, opts.params)
	if err != nil {
		return groupResult{}, fmt.Errorf("fitting %s: %w", g.Name(), err)
	}

	out := groupResult{name: g.Name(), fit: res, advisories: advisories}

	if !opts.dryRun {
		cubePath := filepath.Join(opts.outputDir, g.Model, g.Style+".cube")
		if _, err := os.Stat(cubePath); err == nil && !opts.force {
			return groupResult{}, fmt.Errorf("%s already exists (use -force to overwrite)", cubePath)
		}

		grid, err := lut.Rasterize(res.Model, opts.lutSize)
		if err != nil {
			return groupResult{}, fmt.Errorf("rasterizing %s: %w", g.Name(), err)
		}
		if err := grid.WriteCubeFile(cubePath, g.Name()); err != nil {
			return groupResult{}, err
		}
		out.cubePath = cubePath

		if opts.db != nil {
			id, err := opts.db.RecordProfile(&profiledb.Profile{
				Model:       g.Model,
				Style:       g.Style,
				CubePath:    cubePath,
				PolyOrder:   opts.params.Order,
				LUTSize:     opts.lutSize,
				SampleCount: res.SampleCount,
				InlierCount: res.InlierCount,
				ClipRounds:  res.Rounds,
				Rank:        res.Rank,
				MAE:         res.MAE,
				RMSE:        res.RMSE,
				ChannelMAE:  res.ChannelMAE,
				Warnings:    res.Warnings,
			})
			if err != nil {
				return groupResult{}, err
			}
			if err := opts.db.RecordCoverageGaps(id, advisories); err != nil {
				return groupResult{}, err
			}
		}
	}

	if opts.reportDir != "" {
		sum := report.FromResult(g.Name(), res)
		htmlPath := filepath.Join(opts.reportDir, g.Name()+".html")
		if err := report.WriteFitReport(htmlPath, sum, hist, advisories); err != nil {
			log.Printf("  report for %s: %v", g.Name(), err)
		}
		pngPath := filepath.Join(opts.reportDir, g.Name()+"-residuals.png")
		if err := report.ResidualHistogram(pngPath, res.Residuals); err != nil {
			log.Printf("  residual plot for %s: %v", g.Name(), err)
		}
	}

	return out, nil
}

// extractPair develops one RAW and extracts correspondence samples against
// its JPEG sibling, or against the embedded preview when no sibling exists.
func extractPair(ctx context.Context, pair scan.Pair, brightnessThreshold float64) (*sampleset.Set, error) {
	src, err := rawproc.RenderImage(ctx, pair.RawPath)
	if err != nil {
		return nil, err
	}

	var tgt image.Image
	if pair.JPEGPath != "" {
		tgt, err = rawproc.DecodeFile(pair.JPEGPath)
	} else {
		tgt, err = rawproc.ExtractPreview(ctx, pair.RawPath)
	}
	if err != nil {
		return nil, err
	}

	set, err := pairs.ExtractSamples(src, tgt, brightnessThreshold)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("extracted samples for %s: %w", pair.RawPath, err)
	}
	return set, nil
}
