package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedTemplate is one starter checklist item from the seed file. Pointer
// fields stay nil when the file omits them.
type SeedTemplate struct {
	Label         string  `yaml:"label"`
	WeekNumber    *int    `yaml:"week_number"`
	DueOffsetDays *int    `yaml:"due_offset_days"`
	Required      bool    `yaml:"required"`
	Visibility    string  `yaml:"visibility"`
	SortOrder     *int    `yaml:"sort_order"`
	Notes         *string `yaml:"notes"`
}

// seedFile is the top-level shape of seed.yaml.
type seedFile struct {
	Templates []SeedTemplate `yaml:"templates"`
}

// LoadSeed reads the seed template file. Labels must be unique within the
// file; seeding is keyed on them.
func LoadSeed(path string) ([]SeedTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Templates))
	for _, t := range f.Templates {
		if t.Label == "" {
			return nil, fmt.Errorf("seed template with empty label")
		}
		if _, dup := seen[t.Label]; dup {
			return nil, fmt.Errorf("duplicate seed template label %q", t.Label)
		}
		seen[t.Label] = struct{}{}
	}

	return f.Templates, nil
}
