package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig represents the root configuration for profile fitting
// parameters. All fields are pointers so a partial JSON file can override
// just the values it names; the Get* methods supply defaults for the rest.
type TuningConfig struct {
	// Regression params
	PolyOrder      *int     `json:"poly_order,omitempty"`
	SigmaK         *float64 `json:"sigma_k,omitempty"`
	ClipRounds     *int     `json:"clip_rounds,omitempty"`
	MinSurvivorPct *float64 `json:"min_survivor_pct,omitempty"`
	MaxFitSamples  *int     `json:"max_fit_samples,omitempty"`

	// Extraction params
	BrightnessThreshold *float64 `json:"brightness_threshold,omitempty"`

	// Output params
	LUTSize *int `json:"lut_size,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.PolyOrder != nil {
		if *c.PolyOrder < 2 || *c.PolyOrder > 4 {
			return fmt.Errorf("poly_order must be 2, 3 or 4, got %d", *c.PolyOrder)
		}
	}

	if c.SigmaK != nil && *c.SigmaK <= 0 {
		return fmt.Errorf("sigma_k must be positive, got %f", *c.SigmaK)
	}

	if c.ClipRounds != nil && *c.ClipRounds < 0 {
		return fmt.Errorf("clip_rounds must be non-negative, got %d", *c.ClipRounds)
	}

	if c.MinSurvivorPct != nil {
		if *c.MinSurvivorPct <= 0 || *c.MinSurvivorPct > 1 {
			return fmt.Errorf("min_survivor_pct must be in (0, 1], got %f", *c.MinSurvivorPct)
		}
	}

	if c.MaxFitSamples != nil && *c.MaxFitSamples < 1 {
		return fmt.Errorf("max_fit_samples must be positive, got %d", *c.MaxFitSamples)
	}

	if c.BrightnessThreshold != nil && *c.BrightnessThreshold < 0 {
		return fmt.Errorf("brightness_threshold must be non-negative, got %f", *c.BrightnessThreshold)
	}

	if c.LUTSize != nil {
		if *c.LUTSize < 2 || *c.LUTSize > 256 {
			return fmt.Errorf("lut_size must be between 2 and 256, got %d", *c.LUTSize)
		}
	}

	return nil
}

// GetPolyOrder returns the poly_order value or the default.
func (c *TuningConfig) GetPolyOrder() int {
	if c.PolyOrder == nil {
		return 3
	}
	return *c.PolyOrder
}

// GetSigmaK returns the sigma_k value or the default.
func (c *TuningConfig) GetSigmaK() float64 {
	if c.SigmaK == nil {
		return 1.5
	}
	return *c.SigmaK
}

// GetClipRounds returns the clip_rounds value or the default.
func (c *TuningConfig) GetClipRounds() int {
	if c.ClipRounds == nil {
		return 3
	}
	return *c.ClipRounds
}

// GetMinSurvivorPct returns the min_survivor_pct value or the default.
func (c *TuningConfig) GetMinSurvivorPct() float64 {
	if c.MinSurvivorPct == nil {
		return 0.10
	}
	return *c.MinSurvivorPct
}

// GetMaxFitSamples returns the max_fit_samples value or the default.
func (c *TuningConfig) GetMaxFitSamples() int {
	if c.MaxFitSamples == nil {
		return 1000000
	}
	return *c.MaxFitSamples
}

// GetBrightnessThreshold returns the brightness_threshold value or the default.
func (c *TuningConfig) GetBrightnessThreshold() float64 {
	if c.BrightnessThreshold == nil {
		return 0.03
	}
	return *c.BrightnessThreshold
}

// GetLUTSize returns the lut_size value or the default.
func (c *TuningConfig) GetLUTSize() int {
	if c.LUTSize == nil {
		return 64
	}
	return *c.LUTSize
}
