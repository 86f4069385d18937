package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestWindowShiftClamped(t *testing.T) {
	cfg := Default()
	cfg.WindowShift = 5.0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.WindowShift != 0.5 {
		t.Errorf("expected WindowShift clamped to 0.5, got %v", cfg.WindowShift)
	}

	cfg.WindowShift = -5.0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.WindowShift != -0.5 {
		t.Errorf("expected WindowShift clamped to -0.5, got %v", cfg.WindowShift)
	}
}

func TestUnknownProgressionModeRejected(t *testing.T) {
	cfg := Default()
	cfg.ProgressionSimilarityMode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown ProgressionSimilarityMode")
	}
}

func TestPresetsLoad(t *testing.T) {
	for _, name := range []string{"default", "jazz", "rock", "classical", "electronic", "acoustic"} {
		cfg, err := WithPreset(name)
		if err != nil {
			t.Fatalf("preset %q: %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q failed to validate: %v", name, err)
		}
	}
}

func TestUnknownPresetErrors(t *testing.T) {
	if _, err := WithPreset("dubstep"); err == nil {
		t.Error("expected error for unknown preset")
	}
}
