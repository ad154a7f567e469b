package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	if got := cfg.GetPolyOrder(); got != 3 {
		t.Errorf("GetPolyOrder = %d, want 3", got)
	}
	if got := cfg.GetSigmaK(); got != 1.5 {
		t.Errorf("GetSigmaK = %v, want 1.5", got)
	}
	if got := cfg.GetClipRounds(); got != 3 {
		t.Errorf("GetClipRounds = %d, want 3", got)
	}
	if got := cfg.GetMinSurvivorPct(); got != 0.10 {
		t.Errorf("GetMinSurvivorPct = %v, want 0.10", got)
	}
	if got := cfg.GetMaxFitSamples(); got != 1000000 {
		t.Errorf("GetMaxFitSamples = %d, want 1000000", got)
	}
	if got := cfg.GetBrightnessThreshold(); got != 0.03 {
		t.Errorf("GetBrightnessThreshold = %v, want 0.03", got)
	}
	if got := cfg.GetLUTSize(); got != 64 {
		t.Errorf("GetLUTSize = %d, want 64", got)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{"poly_order": 4, "lut_size": 33}`)
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if got := cfg.GetPolyOrder(); got != 4 {
		t.Errorf("GetPolyOrder = %d, want 4", got)
	}
	if got := cfg.GetLUTSize(); got != 33 {
		t.Errorf("GetLUTSize = %d, want 33", got)
	}
	// Unset fields fall back to defaults.
	if got := cfg.GetSigmaK(); got != 1.5 {
		t.Errorf("GetSigmaK = %v, want 1.5", got)
	}
}

func TestLoadConfigRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected error for non-.json extension")
	}
}

func TestLoadConfigRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"poly_order": }`)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	bad := []string{
		`{"poly_order": 5}`,
		`{"poly_order": 1}`,
		`{"sigma_k": 0}`,
		`{"sigma_k": -1.5}`,
		`{"clip_rounds": -1}`,
		`{"min_survivor_pct": 0}`,
		`{"min_survivor_pct": 1.5}`,
		`{"max_fit_samples": 0}`,
		`{"brightness_threshold": -0.1}`,
		`{"lut_size": 1}`,
		`{"lut_size": 512}`,
	}
	for _, body := range bad {
		path := writeConfig(t, body)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Errorf("expected validation error for %s", body)
		}
	}
}
