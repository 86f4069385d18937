package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// presetOverride mirrors a subset of Config fields that a named genre
// preset may override. Omitted fields leave the base default alone; a
// field given explicitly, even as zero, replaces it.
//
// Grounded on other_examples/2bcc32ce_ako-backing-tracks/parser/parser.go's
// yaml.v3-backed declarative table format.
type presetOverride struct {
	SimilarityThreshold            *float64 `yaml:"similarity_threshold"`
	ProgressionSimilarityThreshold *float64 `yaml:"progression_similarity_threshold"`
	MergeChromaThreshold           *float64 `yaml:"merge_chroma_threshold"`
	MinSectionDurationSec          *float64 `yaml:"min_section_duration_sec"`
	ExactChromaThreshold           *float64 `yaml:"exact_chroma_threshold"`
	MinSectionsStop                *int     `yaml:"min_sections_stop"`
	MicroMergeBar                  *int     `yaml:"micro_merge_bar"`
}

type presetsDocument struct {
	Presets map[string]presetOverride `yaml:"presets"`
}

var loadedPresets = mustLoadPresets()

func mustLoadPresets() presetsDocument {
	var doc presetsDocument
	if err := yaml.Unmarshal(presetsYAML, &doc); err != nil {
		panic(fmt.Sprintf("config: malformed embedded presets.yaml: %v", err))
	}
	return doc
}

// PresetNames returns the recognized template names, per spec.md §6's
// `template` option.
func PresetNames() []string {
	names := make([]string, 0, len(loadedPresets.Presets))
	for name := range loadedPresets.Presets {
		names = append(names, name)
	}
	return names
}

// WithPreset returns Default() with the named genre preset's overrides
// applied. An unknown name returns an error; "default"/"" returns the
// unmodified default.
func WithPreset(name string) (Config, error) {
	cfg := Default()
	if name == "" {
		name = "default"
	}
	cfg.Template = name

	override, ok := loadedPresets.Presets[name]
	if !ok {
		return Config{}, fmt.Errorf("config: unknown template %q", name)
	}

	if override.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *override.SimilarityThreshold
	}
	if override.ProgressionSimilarityThreshold != nil {
		cfg.ProgressionSimilarityThreshold = *override.ProgressionSimilarityThreshold
	}
	if override.MergeChromaThreshold != nil {
		cfg.MergeChromaThreshold = *override.MergeChromaThreshold
	}
	if override.MinSectionDurationSec != nil {
		cfg.MinSectionDurationSec = *override.MinSectionDurationSec
	}
	if override.ExactChromaThreshold != nil {
		cfg.ExactChromaThreshold = *override.ExactChromaThreshold
	}
	if override.MinSectionsStop != nil {
		cfg.MinSectionsStop = *override.MinSectionsStop
	}
	if override.MicroMergeBar != nil {
		cfg.MicroMergeBar = *override.MicroMergeBar
	}

	return cfg, nil
}
