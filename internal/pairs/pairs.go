// Package pairs extracts RGB correspondence samples from an aligned pair of
// images: the neutral RAW rendering as source and the camera JPEG as target.
//
// The two renderings never match pixel-for-pixel at the edges (lens
// correction, resampling), so extraction center-crops to the middle of the
// frame where alignment is best; the robust fitter downstream absorbs the
// residual misalignment.
package pairs

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"

	"github.com/trussc/profilegen/internal/sampleset"
)

// ExtractSamples produces correspondence samples from a source/target image
// pair. The target is resampled to the source dimensions when they differ
// (embedded previews are smaller than the full rendering), both images are
// center-cropped to an (h/2)×(h/2) square, and near-black background pixels
// are dropped by the brightness threshold on the source sum R+G+B.
func ExtractSamples(src, tgt image.Image, brightnessThreshold float64) (*sampleset.Set, error) {
	sb := src.Bounds()
	if sb.Dx() < 4 || sb.Dy() < 4 {
		return nil, fmt.Errorf("source image too small: %dx%d", sb.Dx(), sb.Dy())
	}

	tb := tgt.Bounds()
	if tb.Dx() != sb.Dx() || tb.Dy() != sb.Dy() {
		tgt = resize.Resize(uint(sb.Dx()), uint(sb.Dy()), tgt, resize.Lanczos3)
		tb = tgt.Bounds()
	}

	// Center square crop of half the frame height.
	cropSize := sb.Dy() / 2
	if cropSize > sb.Dx() {
		cropSize = sb.Dx()
	}
	sx0 := sb.Min.X + (sb.Dx()-cropSize)/2
	sy0 := sb.Min.Y + (sb.Dy()-cropSize)/2
	tx0 := tb.Min.X + (tb.Dx()-cropSize)/2
	ty0 := tb.Min.Y + (tb.Dy()-cropSize)/2

	set := sampleset.New(cropSize * cropSize)
	for y := 0; y < cropSize; y++ {
		for x := 0; x < cropSize; x++ {
			s := rgbAt(src, sx0+x, sy0+y)
			if s[0]+s[1]+s[2] <= brightnessThreshold {
				continue
			}
			set.Append(s, rgbAt(tgt, tx0+x, ty0+y))
		}
	}
	return set, nil
}

func rgbAt(img image.Image, x, y int) [3]float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return [3]float64{
		float64(r) / 65535.0,
		float64(g) / 65535.0,
		float64(b) / 65535.0,
	}
}
