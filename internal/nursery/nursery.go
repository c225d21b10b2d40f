// Package nursery loads and generates plant varieties. Every variety leaving
// the nursery has passed validation; bad files fail at load time with a
// *plants.ValidationError naming each offending variety and rule.
package nursery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/flowergarden/internal/plants"
)

// File is the on-disk variety definition format (JSON or YAML).
type File struct {
	Seed      *int64          `json:"seed,omitempty" yaml:"seed,omitempty"`
	Varieties []VarietyConfig `json:"varieties" yaml:"varieties"`
}

// VarietyConfig is one variety entry; Count expands into that many distinct
// instances (default 1).
type VarietyConfig struct {
	Name                 string             `json:"name" yaml:"name"`
	Radius               float64            `json:"radius" yaml:"radius"` // Whole number; 2.0 reads as 2
	Species              string             `json:"species" yaml:"species"`
	NutrientCoefficients map[string]float64 `json:"nutrient_coefficients" yaml:"nutrient_coefficients"`
	Count                *int               `json:"count,omitempty" yaml:"count,omitempty"`
}

// Catalog is the result of loading a variety file.
type Catalog struct {
	Seed      *int64
	Varieties []*plants.Variety
}

// LoadFile reads a variety file. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func LoadFile(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read varieties: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yamlToJSON(raw)
		if err != nil {
			return Catalog{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cat, err := Load(raw)
	if err != nil {
		return Catalog{}, fmt.Errorf("load %s: %w", path, err)
	}
	slog.Debug("varieties loaded", "path", path, "count", len(cat.Varieties))
	return cat, nil
}

// Load parses and validates a JSON variety document.
func Load(data []byte) (Catalog, error) {
	sch, err := schema()
	if err != nil {
		return Catalog{}, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Catalog{}, fmt.Errorf("decode json: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return Catalog{}, fmt.Errorf("schema: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return Catalog{}, fmt.Errorf("decode varieties: %w", err)
	}
	return Build(f)
}

// Build validates every entry of f and expands counts. All problems across
// the whole file are collected into one *plants.ValidationError.
func Build(f File) (Catalog, error) {
	cat := Catalog{Seed: f.Seed}
	verr := &plants.ValidationError{}

	for i, vc := range f.Varieties {
		prefix := fmt.Sprintf("varieties[%d]", i)

		v, err := vc.variety()
		if err != nil {
			if ve, ok := err.(*plants.ValidationError); ok {
				for _, issue := range ve.Issues {
					verr.Add(prefix + ": " + issue)
				}
			} else {
				verr.Add(fmt.Sprintf("%s: variety '%s': %v", prefix, vc.Name, err))
			}
			continue
		}

		count := 1
		if vc.Count != nil {
			count = *vc.Count
		}
		if count < 0 {
			verr.Add(fmt.Sprintf("%s: variety '%s': count %d must not be negative", prefix, vc.Name, count))
			continue
		}

		// The first instance is the validated one; the rest are rebuilt so
		// each count yields its own variety.
		for j := 0; j < count; j++ {
			if j == 0 {
				cat.Varieties = append(cat.Varieties, v)
				continue
			}
			dup, _ := plants.NewVariety(v.Name(), v.Radius(), v.Species(), v.Coefficients())
			cat.Varieties = append(cat.Varieties, dup)
		}
	}

	if verr.HasIssues() {
		return Catalog{}, verr
	}
	return cat, nil
}

func (vc VarietyConfig) variety() (*plants.Variety, error) {
	sp, err := plants.ParseSpecies(vc.Species)
	if err != nil {
		return nil, err
	}

	coeffs := make(map[plants.Nutrient]float64, len(vc.NutrientCoefficients))
	for k, c := range vc.NutrientCoefficients {
		n, err := plants.ParseNutrient(k)
		if err != nil {
			return nil, err
		}
		coeffs[n] = c
	}
	if vc.Radius != math.Trunc(vc.Radius) {
		err := &plants.ValidationError{}
		err.Add(fmt.Sprintf("variety '%s': radius %g must be a whole number", vc.Name, vc.Radius))
		return nil, err
	}
	return plants.NewVariety(vc.Name, int(vc.Radius), sp, coeffs)
}

// yamlToJSON re-encodes a YAML document as JSON so both formats go through
// the same schema check.
func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
