package lut

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxCubeSize bounds accepted grid sizes when parsing; a 256³ table is far
// beyond anything cameras or grading tools exchange.
const maxCubeSize = 256

// WriteCube serializes the LUT in the .cube text format. Data lines run with
// the red index varying fastest and blue slowest, which is what grading
// tools expect; reordering silently corrupts colors downstream.
func (l *LUT3D) WriteCube(w io.Writer, title string) error {
	bw := bufio.NewWriter(w)
	if title != "" {
		fmt.Fprintf(bw, "TITLE %q\n", title)
	}
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", l.Size)
	fmt.Fprintf(bw, "DOMAIN_MIN 0.0 0.0 0.0\n")
	fmt.Fprintf(bw, "DOMAIN_MAX 1.0 1.0 1.0\n")
	fmt.Fprintf(bw, "\n")
	for b := 0; b < l.Size; b++ {
		for g := 0; g < l.Size; g++ {
			for r := 0; r < l.Size; r++ {
				v := l.At(r, g, b)
				fmt.Fprintf(bw, "%.6f %.6f %.6f\n", v[0], v[1], v[2])
			}
		}
	}
	return bw.Flush()
}

// WriteCubeFile writes the LUT to path, creating parent directories.
func (l *LUT3D) WriteCubeFile(path, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := l.WriteCube(f, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCube parses a .cube file written by WriteCube (or any tool following
// the same conventions). Returns the LUT and the TITLE string, if present.
func ReadCube(r io.Reader) (*LUT3D, string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024)

	var (
		l     *LUT3D
		title string
		size  int
		idx   int
	)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		switch fields[0] {
		case "TITLE":
			title = strings.Trim(strings.TrimSpace(strings.TrimPrefix(text, "TITLE")), `"`)
			continue
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, "", fmt.Errorf("line %d: malformed LUT_3D_SIZE", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 || n > maxCubeSize {
				return nil, "", fmt.Errorf("line %d: invalid LUT size %q", line, fields[1])
			}
			size = n
			l = New(size)
			continue
		case "DOMAIN_MIN", "DOMAIN_MAX", "LUT_1D_SIZE":
			continue
		}

		// Data line.
		if l == nil {
			return nil, "", fmt.Errorf("line %d: data before LUT_3D_SIZE", line)
		}
		if len(fields) != 3 {
			return nil, "", fmt.Errorf("line %d: expected 3 components, got %d", line, len(fields))
		}
		var v [3]float64
		for c := 0; c < 3; c++ {
			f, err := strconv.ParseFloat(fields[c], 64)
			if err != nil {
				return nil, "", fmt.Errorf("line %d: bad component %q: %w", line, fields[c], err)
			}
			v[c] = f
		}
		total := size * size * size
		if idx >= total {
			return nil, "", fmt.Errorf("line %d: more than %d data lines", line, total)
		}
		// R fastest, B slowest.
		ri := idx % size
		gi := (idx / size) % size
		bi := idx / (size * size)
		l.Set(ri, gi, bi, v)
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, "", err
	}
	if l == nil {
		return nil, "", fmt.Errorf("no LUT_3D_SIZE header found")
	}
	if total := size * size * size; idx != total {
		return nil, "", fmt.Errorf("expected %d data lines, got %d", total, idx)
	}
	return l, title, nil
}

// ReadCubeFile parses a .cube file from disk.
func ReadCubeFile(path string) (*LUT3D, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return ReadCube(f)
}
