// Package coverage reports qualitative gaps in a calibration sample set's
// spread over hue/saturation/value space. Its advisories guide additional
// calibration photography; they never block LUT construction.
package coverage

import (
	"fmt"

	"github.com/trussc/profilegen/internal/colorspace"
)

// Histogram bin counts. 12 hue sectors of 30°, 4 saturation bands, 4 value
// bands.
const (
	HueBins = 12
	SatBins = 4
	ValBins = 4
)

// maxSamples caps the analyzed subset; coverage is qualitative and does not
// need every pixel.
const maxSamples = 200000

// Advisory thresholds as fractions of the uniform-expected count.
const (
	hueThreshold      = 0.2
	extremesThreshold = 0.2
	grayThreshold     = 0.3
)

// hueNames labels the 12 hue sectors, red first.
var hueNames = [HueBins]string{
	"Red", "Orange", "Yellow", "Chartreuse", "Green", "Spring",
	"Cyan", "Azure", "Blue", "Violet", "Magenta", "Rose",
}

// HueName returns the label of hue sector i.
func HueName(i int) string { return hueNames[i] }

// Histogram is a fixed-size HSV occupancy histogram of source samples.
type Histogram struct {
	Counts  [HueBins][SatBins][ValBins]int
	Samples int
}

// Build bins a uniform-stride subset of the source colors into HSV space.
func Build(src [][3]float64) *Histogram {
	h := &Histogram{}
	step := 1
	if len(src) > maxSamples {
		step = len(src) / maxSamples
	}
	for i := 0; i < len(src); i += step {
		hue, sat, val := colorspace.HSV(src[i][0], src[i][1], src[i][2])
		h.Counts[binIndex(hue, HueBins)][binIndex(sat, SatBins)][binIndex(val, ValBins)]++
		h.Samples++
	}
	return h
}

func binIndex(v float64, bins int) int {
	i := int(v * float64(bins))
	if i < 0 {
		return 0
	}
	if i >= bins {
		return bins - 1
	}
	return i
}

// HueTotals sums counts per hue sector across saturation and value.
func (h *Histogram) HueTotals() [HueBins]int {
	var totals [HueBins]int
	for hi := 0; hi < HueBins; hi++ {
		for si := 0; si < SatBins; si++ {
			for vi := 0; vi < ValBins; vi++ {
				totals[hi] += h.Counts[hi][si][vi]
			}
		}
	}
	return totals
}

// Advisories returns human-readable descriptions of under-sampled regions:
// sparse hue sectors, saturated darks, saturated brights and the neutral
// band. An empty slice means coverage looks adequate.
func (h *Histogram) Advisories() []string {
	if h.Samples == 0 {
		return []string{"no samples to analyze"}
	}
	expected := float64(h.Samples) / float64(HueBins*SatBins*ValBins)
	var out []string

	totals := h.HueTotals()
	for hi := 0; hi < HueBins; hi++ {
		if float64(totals[hi]) < expected*SatBins*ValBins*hueThreshold {
			out = append(out, fmt.Sprintf("Low coverage: %s hues", hueNames[hi]))
		}
	}

	// High-saturation (upper half) extremes at the darkest and brightest
	// value bands.
	var darks, brights int
	for hi := 0; hi < HueBins; hi++ {
		for si := SatBins / 2; si < SatBins; si++ {
			darks += h.Counts[hi][si][0]
			brights += h.Counts[hi][si][ValBins-1]
		}
	}
	if float64(darks) < expected*HueBins*(SatBins/2)*extremesThreshold {
		out = append(out, "Low coverage: saturated dark tones")
	}
	if float64(brights) < expected*HueBins*(SatBins/2)*extremesThreshold {
		out = append(out, "Low coverage: saturated bright tones")
	}

	var gray int
	for hi := 0; hi < HueBins; hi++ {
		for vi := 0; vi < ValBins; vi++ {
			gray += h.Counts[hi][0][vi]
		}
	}
	if float64(gray) < expected*HueBins*ValBins*grayThreshold {
		out = append(out, "Low coverage: neutral/grayscale tones")
	}
	return out
}
