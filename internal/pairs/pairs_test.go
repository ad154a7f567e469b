package pairs

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func uniformImage(w, h int, r, g, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func gradientImage(w, h int, lift float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 0.2 + 0.6*float64(x)/float64(w-1)
			v += lift
			if v > 1 {
				v = 1
			}
			c := uint8(math.Round(v * 255))
			img.SetRGBA(x, y, color.RGBA{R: c, G: c, B: c, A: 255})
		}
	}
	return img
}

func TestExtractSamplesAlignedPair(t *testing.T) {
	src := gradientImage(64, 64, 0)
	tgt := gradientImage(64, 64, 0.1)

	set, err := ExtractSamples(src, tgt, 0.03)
	if err != nil {
		t.Fatalf("ExtractSamples: %v", err)
	}
	if got, want := set.Len(), 32*32; got != want {
		t.Fatalf("sample count = %d, want %d", got, want)
	}
	for i := range set.Src {
		d := set.Tgt[i][0] - set.Src[i][0]
		if math.Abs(d-0.1) > 0.01 {
			t.Fatalf("sample %d: target-source delta = %.4f, want ~0.1", i, d)
		}
	}
}

func TestExtractSamplesBrightnessFilter(t *testing.T) {
	src := uniformImage(64, 64, 0, 0, 0)
	tgt := uniformImage(64, 64, 128, 128, 128)

	set, err := ExtractSamples(src, tgt, 0.03)
	if err != nil {
		t.Fatalf("ExtractSamples: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("black source produced %d samples, want 0", set.Len())
	}
}

func TestExtractSamplesResizesTarget(t *testing.T) {
	src := uniformImage(64, 64, 128, 102, 77)
	tgt := uniformImage(32, 32, 153, 128, 102)

	set, err := ExtractSamples(src, tgt, 0.03)
	if err != nil {
		t.Fatalf("ExtractSamples: %v", err)
	}
	if got, want := set.Len(), 32*32; got != want {
		t.Fatalf("sample count = %d, want %d", got, want)
	}
	for i := range set.Tgt {
		for c := 0; c < 3; c++ {
			want := []float64{153.0 / 255, 128.0 / 255, 102.0 / 255}[c]
			if math.Abs(set.Tgt[i][c]-want) > 0.02 {
				t.Fatalf("sample %d channel %d = %.4f, want ~%.4f", i, c, set.Tgt[i][c], want)
			}
		}
	}
}

func TestExtractSamplesRejectsTinyImages(t *testing.T) {
	src := uniformImage(2, 2, 128, 128, 128)
	if _, err := ExtractSamples(src, src, 0.03); err == nil {
		t.Error("expected error for tiny source image")
	}
}
