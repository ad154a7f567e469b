// Package exifmeta reads camera identification metadata from image files by
// shelling out to exiftool. Only the handful of tags needed for profile
// grouping are extracted: the camera model and the maker-specific color
// style tag.
package exifmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Fields holds the raw tag values pulled from a single file. Zero values mean
// the tag was absent.
type Fields struct {
	Make  string
	Model string

	// Maker-specific color style tags; at most one is normally present.
	SigmaStyle string // Unknown_0x003d (Sigma color mode)
	NikonStyle string // PictureControlName
	CanonStyle string // PictureStyle
	FujiStyle  string // FilmMode
	SonyStyle  string // CreativeStyle
}

var styleTags = []string{
	"-Make", "-Model",
	"-Unknown_0x003d", "-PictureControlName", "-PictureStyle",
	"-FilmMode", "-CreativeStyle",
}

// Read runs exiftool on path and returns the extracted fields. A missing tag
// is not an error; a missing exiftool binary or unreadable file is.
func Read(ctx context.Context, path string) (Fields, error) {
	args := append([]string{"-j", "-u"}, styleTags...)
	args = append(args, path)
	out, err := exec.CommandContext(ctx, "exiftool", args...).Output()
	if err != nil {
		return Fields{}, fmt.Errorf("exiftool %s: %w", path, err)
	}
	return parseExifJSON(out)
}

func parseExifJSON(data []byte) (Fields, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return Fields{}, fmt.Errorf("parsing exiftool output: %w", err)
	}
	if len(records) == 0 {
		return Fields{}, fmt.Errorf("exiftool output contained no records")
	}
	rec := records[0]
	return Fields{
		Make:       tagString(rec, "Make"),
		Model:      tagString(rec, "Model"),
		SigmaStyle: tagString(rec, "Unknown_0x003d"),
		NikonStyle: tagString(rec, "PictureControlName"),
		CanonStyle: tagString(rec, "PictureStyle"),
		FujiStyle:  tagString(rec, "FilmMode"),
		SonyStyle:  tagString(rec, "CreativeStyle"),
	}, nil
}

// tagString coerces an exiftool JSON value to a trimmed string. exiftool
// emits numbers for some enum tags, so non-strings are formatted rather
// than rejected.
func tagString(rec map[string]any, key string) string {
	v, ok := rec[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// CameraModel returns the sanitized camera model name, suitable for use in
// file names: spaces become underscores and path separators are dropped.
// Returns "Unknown" when no model tag was present.
func (f Fields) CameraModel() string {
	m := strings.TrimSpace(f.Model)
	if m == "" {
		return "Unknown"
	}
	m = strings.ReplaceAll(m, "/", "")
	m = strings.ReplaceAll(m, "\\", "")
	m = strings.Join(strings.Fields(m), "_")
	if m == "" {
		return "Unknown"
	}
	return m
}

// ColorStyle returns the camera color style, checking maker tags in a fixed
// precedence order. Returns "Default" when no style tag was present.
func (f Fields) ColorStyle() string {
	for _, s := range []string{f.SigmaStyle, f.NikonStyle, f.CanonStyle, f.FujiStyle, f.SonyStyle} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		s = strings.ReplaceAll(s, "/", "")
		s = strings.ReplaceAll(s, "\\", "")
		return strings.Join(strings.Fields(s), "_")
	}
	return "Default"
}
