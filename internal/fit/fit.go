// Package fit builds a polynomial color-transform model from RAW→JPEG pixel
// correspondences using least squares with iterative sigma clipping.
//
// Calibration photos are never perfectly aligned between the RAW rendering
// and the camera JPEG: lens-correction differences, chromatic aberration and
// resampling shift edges by a few pixels, producing grossly wrong
// correspondences along color boundaries. The fitter refits in rounds,
// discarding samples whose residual exceeds a multiple of the current inlier
// population's standard deviation, with a hard survivor floor so clipping
// can never starve the regression.
package fit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/trussc/profilegen/internal/colorspace"
	"github.com/trussc/profilegen/internal/poly"
	"github.com/trussc/profilegen/internal/sampleset"
)

// floorMin is the absolute lower bound on surviving samples, independent of
// the configured survivor fraction.
const floorMin = 100

// reportResidualCap bounds how many final residuals are retained on the
// Result for diagnostic plotting.
const reportResidualCap = 100000

// Params configures a fit.
type Params struct {
	// Order is the polynomial expansion order (2, 3 or 4).
	Order int
	// SigmaK is the sigma-clip multiplier: samples with residual greater
	// than SigmaK times the inlier residual standard deviation are dropped.
	SigmaK float64
	// ClipRounds is the maximum number of clipping rounds. Zero disables
	// clipping entirely.
	ClipRounds int
	// MinSurvivorPct is the fraction of the fitting set that must survive
	// clipping, floored at 100 samples absolute.
	MinSurvivorPct float64
	// MaxSamples caps the fitting set size via uniform stride subsampling.
	MaxSamples int
}

// DefaultParams returns the calibration defaults.
func DefaultParams() Params {
	return Params{
		Order:          3,
		SigmaK:         1.5,
		ClipRounds:     3,
		MinSurvivorPct: 0.10,
		MaxSamples:     1000000,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if !poly.ValidOrder(p.Order) {
		return fmt.Errorf("polynomial order must be %d..%d, got %d", poly.MinOrder, poly.MaxOrder, p.Order)
	}
	if p.SigmaK <= 0 {
		return fmt.Errorf("sigma multiplier must be positive, got %v", p.SigmaK)
	}
	if p.ClipRounds < 0 {
		return fmt.Errorf("clip rounds must be non-negative, got %d", p.ClipRounds)
	}
	if p.MinSurvivorPct < 0 || p.MinSurvivorPct > 1 {
		return fmt.Errorf("survivor fraction must be in [0,1], got %v", p.MinSurvivorPct)
	}
	return nil
}

// InsufficientDataError reports that too few samples exist to determine the
// polynomial coefficients. It is fatal for the affected group; there is no
// point retrying the same computation on the same input.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient samples for fit: have %d, need at least %d", e.Have, e.Need)
}

// Model is a fitted coefficient matrix mapping expanded chromaticity
// features to target RGB, one column per output channel. Immutable once
// returned.
type Model struct {
	Order int
	Coef  *mat.Dense // poly.Terms(Order) × 3
}

// Apply evaluates the model at a single RGB point in [0,1]. The input is
// converted to the (L, r, g) fitting basis with the same scalar transform
// used to build the design matrix, so train and apply can never diverge.
func (m *Model) Apply(r, g, b float64) [3]float64 {
	return m.ApplyWith(make([]float64, poly.Terms(m.Order)), r, g, b)
}

// ApplyWith is Apply with a caller-provided feature buffer of length
// poly.Terms(m.Order), for hot loops.
func (m *Model) ApplyWith(features []float64, r, g, b float64) [3]float64 {
	l, cr, cg := colorspace.LRG(r, g, b)
	poly.ExpandInto(features, l, cr, cg, m.Order)
	var out [3]float64
	for c := 0; c < 3; c++ {
		acc := 0.0
		for i, f := range features {
			acc += f * m.Coef.At(i, c)
		}
		out[c] = acc
	}
	return out
}

// BlackPoint returns the constant-term row of the model, i.e. the output
// offset applied to every color.
func (m *Model) BlackPoint() [3]float64 {
	return [3]float64{m.Coef.At(0, 0), m.Coef.At(0, 1), m.Coef.At(0, 2)}
}

// Result carries the fitted model and fit diagnostics.
type Result struct {
	Model *Model

	// SampleCount is the size of the subsampled fitting set (N_initial).
	SampleCount int
	// InlierCount is the number of samples in the final fit.
	InlierCount int
	// Rounds is the number of clipping rounds actually executed.
	Rounds int
	// Rank is the observed rank of the final least-squares system.
	Rank int

	MAE        float64
	RMSE       float64
	ChannelMAE [3]float64

	// Residuals holds the final inlier residual norms (capped for
	// reporting; uniform stride beyond reportResidualCap).
	Residuals []float64

	// Warnings collects non-fatal diagnostics: rank deficiency and
	// degenerate clip-floor saturation.
	Warnings []string
}

// Fit produces a Model from the sample set. The set is subsampled to
// p.MaxSamples with a deterministic uniform stride before fitting.
//
// Datasets smaller than the survivor floor skip clipping entirely and fit
// on everything. Rank deficiency is not fatal: the solve falls back to the
// minimum-norm solution and the observed rank is reported in a warning.
func Fit(set *sampleset.Set, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sample set: %w", err)
	}

	sub := set.Stride(p.MaxSamples)
	n := sub.Len()
	terms := poly.Terms(p.Order)
	if n < terms {
		return nil, &InsufficientDataError{Have: n, Need: terms}
	}

	lrg := make([][3]float64, n)
	for i, s := range sub.Src {
		l, cr, cg := colorspace.LRG(s[0], s[1], s[2])
		lrg[i] = [3]float64{l, cr, cg}
	}
	x := poly.ExpandMatrix(lrg, p.Order)
	y := mat.NewDense(n, 3, nil)
	for i, t := range sub.Tgt {
		y.SetRow(i, t[:])
	}

	res := &Result{SampleCount: n}
	floor := survivorFloor(n, p.MinSurvivorPct)
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	inliers := n

	if n > floor {
		for round := 0; round < p.ClipRounds; round++ {
			model, _, err := solveMasked(x, y, mask, inliers, p.Order)
			if err != nil {
				return nil, err
			}
			resid, idx := maskedResiduals(x, y, mask, inliers, model)
			sigma := popStdDev(resid)
			threshold := p.SigmaK * sigma

			keep := 0
			for _, rv := range resid {
				if rv <= threshold {
					keep++
				}
			}
			res.Rounds = round + 1

			if keep < floor {
				// Floor protection: keep exactly the floor-many samples
				// with smallest residuals and stop clipping.
				order := make([]int, len(resid))
				for i := range order {
					order[i] = i
				}
				sort.Slice(order, func(a, b int) bool { return resid[order[a]] < resid[order[b]] })
				for i := range mask {
					mask[i] = false
				}
				for _, j := range order[:floor] {
					mask[idx[j]] = true
				}
				inliers = floor
				if round == 0 {
					res.Warnings = append(res.Warnings,
						fmt.Sprintf("clip floor saturated on first round: kept %d of %d samples (very noisy input)", floor, n))
				}
				break
			}

			for j, rv := range resid {
				if rv > threshold {
					mask[idx[j]] = false
				}
			}
			inliers = keep
		}
	}

	model, rank, err := solveMasked(x, y, mask, inliers, p.Order)
	if err != nil {
		return nil, err
	}
	res.Model = model
	res.InlierCount = inliers
	res.Rank = rank
	if rank < terms {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("rank deficient fit: rank %d of %d terms (minimum-norm solution)", rank, terms))
	}

	resid, _ := maskedResiduals(x, y, mask, inliers, model)
	fillQuality(res, x, y, mask, model)
	res.Residuals = capResiduals(resid)
	return res, nil
}

// survivorFloor returns max(floorMin, pct·n).
func survivorFloor(n int, pct float64) int {
	f := int(pct * float64(n))
	if f < floorMin {
		f = floorMin
	}
	return f
}

// solveMasked performs the least-squares solve over the masked-in rows,
// returning the model and the observed rank. Rank-deficient systems are
// solved in the minimum-norm sense rather than failing.
func solveMasked(x, y *mat.Dense, mask []bool, inliers int, order int) (*Model, int, error) {
	terms := poly.Terms(order)
	xi := mat.NewDense(inliers, terms, nil)
	yi := mat.NewDense(inliers, 3, nil)
	row := 0
	for i, in := range mask {
		if !in {
			continue
		}
		xi.SetRow(row, x.RawRowView(i))
		yi.SetRow(row, y.RawRowView(i))
		row++
	}

	var svd mat.SVD
	if ok := svd.Factorize(xi, mat.SVDThin); !ok {
		return nil, 0, errors.New("SVD factorization failed")
	}
	larger := inliers
	if terms > larger {
		larger = terms
	}
	rcond := float64(larger) * 2.220446049250313e-16
	rank := svd.Rank(rcond)
	coef := mat.NewDense(terms, 3, nil)
	if rank > 0 {
		svd.SolveTo(coef, yi, rank)
	}
	return &Model{Order: order, Coef: coef}, rank, nil
}

// maskedResiduals computes the Euclidean RGB residual norm for every
// masked-in sample. Returns the residuals and the original sample index of
// each entry.
func maskedResiduals(x, y *mat.Dense, mask []bool, inliers int, m *Model) ([]float64, []int) {
	terms := poly.Terms(m.Order)
	resid := make([]float64, 0, inliers)
	idx := make([]int, 0, inliers)
	for i, in := range mask {
		if !in {
			continue
		}
		features := x.RawRowView(i)
		var sum float64
		for c := 0; c < 3; c++ {
			acc := 0.0
			for t := 0; t < terms; t++ {
				acc += features[t] * m.Coef.At(t, c)
			}
			d := acc - y.At(i, c)
			sum += d * d
		}
		resid = append(resid, math.Sqrt(sum))
		idx = append(idx, i)
	}
	return resid, idx
}

// fillQuality computes MAE, RMSE and per-channel MAE over the inlier set.
func fillQuality(res *Result, x, y *mat.Dense, mask []bool, m *Model) {
	terms := poly.Terms(m.Order)
	var absSum, sqSum float64
	var chAbs [3]float64
	count := 0
	for i, in := range mask {
		if !in {
			continue
		}
		features := x.RawRowView(i)
		for c := 0; c < 3; c++ {
			acc := 0.0
			for t := 0; t < terms; t++ {
				acc += features[t] * m.Coef.At(t, c)
			}
			d := acc - y.At(i, c)
			absSum += math.Abs(d)
			sqSum += d * d
			chAbs[c] += math.Abs(d)
		}
		count++
	}
	if count == 0 {
		return
	}
	total := float64(count * 3)
	res.MAE = absSum / total
	res.RMSE = math.Sqrt(sqSum / total)
	for c := 0; c < 3; c++ {
		res.ChannelMAE[c] = chAbs[c] / float64(count)
	}
}

// popStdDev is the population standard deviation.
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// capResiduals stride-subsamples residuals for reporting.
func capResiduals(resid []float64) []float64 {
	if len(resid) <= reportResidualCap {
		return resid
	}
	step := len(resid) / reportResidualCap
	out := make([]float64, 0, reportResidualCap+1)
	for i := 0; i < len(resid); i += step {
		out = append(out, resid[i])
	}
	return out
}
