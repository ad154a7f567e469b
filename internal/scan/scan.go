// Package scan discovers RAW capture files under a directory tree, matches
// each to its out-of-camera JPEG sibling, and groups the resulting pairs by
// camera model and color style so each group can be fitted into one profile.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/trussc/profilegen/internal/exifmeta"
)

// rawExtensions are the RAW container formats recognized during discovery,
// lowercase without the dot.
var rawExtensions = map[string]bool{
	"dng": true,
	"arw": true,
	"cr2": true,
	"cr3": true,
	"nef": true,
	"raf": true,
	"orf": true,
	"rw2": true,
	"pef": true,
	"x3f": true,
}

var jpegSuffixes = []string{".JPG", ".jpg", ".JPEG", ".jpeg"}

// Pair is one RAW capture and its camera JPEG. JPEGPath is empty when the
// scanner was configured to accept embedded previews and no sibling exists.
type Pair struct {
	RawPath  string
	JPEGPath string
}

// Group is the set of pairs shot on one camera with one color style.
type Group struct {
	Model string
	Style string
	Pairs []Pair
}

// Name returns the group's profile-friendly identifier, e.g. "fp_L-Standard".
func (g Group) Name() string {
	return g.Model + "-" + g.Style
}

// Scanner walks a directory for RAW/JPEG pairs. ReadMeta is the metadata
// reader, overridable for tests; it defaults to exifmeta.Read.
type Scanner struct {
	// ReadMeta reads grouping metadata for a RAW file.
	ReadMeta func(ctx context.Context, path string) (exifmeta.Fields, error)

	// AllowEmbedded keeps RAW files with no JPEG sibling; the caller is
	// expected to extract the embedded preview instead.
	AllowEmbedded bool
}

// Scan walks root and returns pair groups sorted by model then style.
// Metadata read failures demote the file to the Unknown/Default group rather
// than aborting the scan.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Group, error) {
	readMeta := s.ReadMeta
	if readMeta == nil {
		readMeta = exifmeta.Read
	}

	var rawFiles []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if rawExtensions[ext] {
			rawFiles = append(rawFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(rawFiles)

	groups := make(map[string]*Group)
	for _, raw := range rawFiles {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		jpeg := siblingJPEG(raw)
		if jpeg == "" && !s.AllowEmbedded {
			log.Printf("scan: no JPEG sibling for %s, skipping", raw)
			continue
		}

		meta, err := readMeta(ctx, raw)
		if err != nil {
			log.Printf("scan: metadata read failed for %s: %v", raw, err)
			meta = exifmeta.Fields{}
		}

		model, style := meta.CameraModel(), meta.ColorStyle()
		key := model + "\x00" + style
		g, ok := groups[key]
		if !ok {
			g = &Group{Model: model, Style: style}
			groups[key] = g
		}
		g.Pairs = append(g.Pairs, Pair{RawPath: raw, JPEGPath: jpeg})
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].Style < out[j].Style
	})
	return out, nil
}

// siblingJPEG returns the camera JPEG matching a RAW file's stem, or "" when
// none exists.
func siblingJPEG(rawPath string) string {
	stem := strings.TrimSuffix(rawPath, filepath.Ext(rawPath))
	for _, suffix := range jpegSuffixes {
		candidate := stem + suffix
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
