// Package rawproc develops RAW captures into linear reference renderings by
// shelling out to LibRaw's dcraw_emu, and extracts embedded JPEG previews via
// exiftool. Both binaries are external dependencies; Available reports
// whether they can be found before a run starts.
package rawproc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	_ "image/jpeg"

	"golang.org/x/image/tiff"
)

// dcrawArgs renders with camera white balance, sRGB output, no auto
// brightening and no rotation, writing a TIFF next to the input.
var dcrawArgs = []string{"-w", "-o", "1", "-W", "-t", "0", "-T"}

// Available reports whether the external binaries needed for RAW development
// are on PATH. The returned error names the first missing one.
func Available() error {
	for _, bin := range []string{"dcraw_emu", "exiftool"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("required binary %s not found on PATH: %w", bin, err)
		}
	}
	return nil
}

// RenderImage develops rawPath with dcraw_emu and decodes the resulting
// TIFF. The RAW file is copied to a scratch directory first so the rendering
// never writes next to the originals.
func RenderImage(ctx context.Context, rawPath string) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "profilegen-raw-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	scratch := filepath.Join(tmpDir, filepath.Base(rawPath))
	if err := copyFile(rawPath, scratch); err != nil {
		return nil, err
	}

	args := append(append([]string{}, dcrawArgs...), scratch)
	cmd := exec.CommandContext(ctx, "dcraw_emu", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("dcraw_emu %s: %w (%s)", rawPath, err, strings.TrimSpace(stderr.String()))
	}

	tiffPath, err := renderedTIFF(tmpDir, filepath.Base(rawPath))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(tiffPath)
	if err != nil {
		return nil, fmt.Errorf("opening rendered TIFF: %w", err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding rendered TIFF for %s: %w", rawPath, err)
	}
	return img, nil
}

// renderedTIFF locates the TIFF dcraw_emu wrote for rawName in dir. Output
// naming varies between LibRaw versions (input.DNG.tiff vs input.tiff), so
// any new .tiff file other than the input itself is accepted.
func renderedTIFF(dir, rawName string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading scratch dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if name == rawName || e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".tiff") || strings.EqualFold(filepath.Ext(name), ".tif") {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("dcraw_emu produced no TIFF output for %s", rawName)
}

// previewTags are tried in order; cameras differ in which embedded preview
// tag carries the full-size rendering.
var previewTags = []string{"-JpgFromRaw", "-PreviewImage", "-OtherImage"}

// ExtractPreview pulls the embedded camera JPEG out of a RAW file. Used in
// place of a JPEG sibling when shooting RAW-only.
func ExtractPreview(ctx context.Context, rawPath string) (image.Image, error) {
	for _, tag := range previewTags {
		out, err := exec.CommandContext(ctx, "exiftool", "-b", tag, rawPath).Output()
		if err != nil || len(out) == 0 {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(out))
		if err != nil {
			continue
		}
		return img, nil
	}
	return nil, fmt.Errorf("no usable embedded preview in %s", rawPath)
}

// DecodeFile decodes a JPEG (or any registered format) from disk.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
