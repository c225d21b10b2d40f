package nursery

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/flowergarden/internal/plants"
)

const validJSON = `{
  "seed": 7,
  "varieties": [
    {
      "name": "Red Rhodo",
      "radius": 2,
      "species": "RHODODENDRON",
      "nutrient_coefficients": {"R": 3.0, "G": -1.0, "B": -1.0},
      "count": 3
    },
    {
      "name": "Tiny Geranium",
      "radius": 1,
      "species": "GERANIUM",
      "nutrient_coefficients": {"R": -0.5, "G": 2.0, "B": -0.5}
    }
  ]
}`

const validYAML = `
varieties:
  - name: Big Begonia
    radius: 3
    species: BEGONIA
    nutrient_coefficients: {R: -1.0, G: -1.0, B: 4.0}
    count: 2
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	cat, err := LoadFile(writeFile(t, "config.json", validJSON))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cat.Seed == nil || *cat.Seed != 7 {
		t.Fatalf("seed = %v, want 7", cat.Seed)
	}
	if len(cat.Varieties) != 4 {
		t.Fatalf("got %d varieties, want 4 (3 + 1)", len(cat.Varieties))
	}
	for i := 0; i < 3; i++ {
		v := cat.Varieties[i]
		if v.Name() != "Red Rhodo" || v.Radius() != 2 || v.Species() != plants.SpeciesRhododendron {
			t.Errorf("variety %d = %v", i, v)
		}
		if v.Coefficient(plants.NutrientR) != 3 {
			t.Errorf("variety %d R coefficient = %g", i, v.Coefficient(plants.NutrientR))
		}
	}
	if cat.Varieties[0] == cat.Varieties[1] {
		t.Error("count should yield distinct variety instances")
	}
	if cat.Varieties[3].Species() != plants.SpeciesGeranium {
		t.Errorf("last variety species = %s", cat.Varieties[3].Species())
	}
}

func TestLoadFile_YAML(t *testing.T) {
	cat, err := LoadFile(writeFile(t, "config.yaml", validYAML))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cat.Seed != nil {
		t.Errorf("seed = %v, want nil", *cat.Seed)
	}
	if len(cat.Varieties) != 2 {
		t.Fatalf("got %d varieties, want 2", len(cat.Varieties))
	}
	if cat.Varieties[0].Coefficient(plants.NutrientB) != 4 {
		t.Errorf("B coefficient = %g, want 4", cat.Varieties[0].Coefficient(plants.NutrientB))
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"not json":          `{`,
		"no varieties":      `{"seed": 1}`,
		"unknown species":   `{"varieties":[{"name":"x","radius":1,"species":"TULIP","nutrient_coefficients":{"R":1,"G":-0.1,"B":-0.1}}]}`,
		"missing nutrient":  `{"varieties":[{"name":"x","radius":1,"species":"RHODODENDRON","nutrient_coefficients":{"R":1,"G":-0.1}}]}`,
		"extra nutrient":    `{"varieties":[{"name":"x","radius":1,"species":"RHODODENDRON","nutrient_coefficients":{"R":1,"G":-0.1,"B":-0.1,"Y":1}}]}`,
		"fractional radius": `{"varieties":[{"name":"x","radius":1.5,"species":"RHODODENDRON","nutrient_coefficients":{"R":1,"G":-0.1,"B":-0.1}}]}`,
		"negative count":    `{"varieties":[{"name":"x","radius":1,"species":"RHODODENDRON","nutrient_coefficients":{"R":1,"G":-0.1,"B":-0.1},"count":-1}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load([]byte(doc)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_SemanticViolationsCollected(t *testing.T) {
	doc := `{"varieties":[
	  {"name":"ok","radius":1,"species":"GERANIUM","nutrient_coefficients":{"R":-0.5,"G":2,"B":-0.5}},
	  {"name":"huge","radius":4,"species":"GERANIUM","nutrient_coefficients":{"R":-0.5,"G":2,"B":-0.5}},
	  {"name":"hungry","radius":1,"species":"BEGONIA","nutrient_coefficients":{"R":-1,"G":-1,"B":1}}
	]}`

	_, err := Load([]byte(doc))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *plants.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *plants.ValidationError, got %T: %v", err, err)
	}
	if len(verr.Issues) != 2 {
		t.Fatalf("got %d issues, want 2: %v", len(verr.Issues), verr.Issues)
	}
	if !strings.Contains(verr.Issues[0], "varieties[1]") || !strings.Contains(verr.Issues[0], "huge") {
		t.Errorf("first issue does not identify the variety: %s", verr.Issues[0])
	}
	if !strings.Contains(verr.Issues[1], "varieties[2]") || !strings.Contains(verr.Issues[1], "must be positive") {
		t.Errorf("second issue does not identify the rule: %s", verr.Issues[1])
	}
}

func TestLoad_WholeFloatRadius(t *testing.T) {
	doc := `{"varieties":[{"name":"wide","radius":2.0,"species":"GERANIUM","nutrient_coefficients":{"R":-0.5,"G":2,"B":-0.5}}]}`
	cat, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.Varieties) != 1 || cat.Varieties[0].Radius() != 2 {
		t.Fatalf("varieties = %v", cat.Varieties)
	}
}

func TestBuild_FractionalRadiusIsValidationIssue(t *testing.T) {
	f := File{Varieties: []VarietyConfig{{
		Name:                 "half",
		Radius:               1.5,
		Species:              "BEGONIA",
		NutrientCoefficients: map[string]float64{"R": -0.5, "G": -0.5, "B": 2},
	}}}
	_, err := Build(f)

	var verr *plants.ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 {
		t.Fatalf("expected one validation issue, got %v", err)
	}
	if !strings.Contains(verr.Issues[0], "varieties[0]") || !strings.Contains(verr.Issues[0], "whole number") {
		t.Errorf("issue = %s", verr.Issues[0])
	}
}

func TestLoadFile_WrapsValidationError(t *testing.T) {
	doc := `{"varieties":[{"name":"bad","radius":2,"species":"RHODODENDRON","nutrient_coefficients":{"R":5,"G":1,"B":-1}}]}`
	_, err := LoadFile(writeFile(t, "bad.json", doc))

	var verr *plants.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected wrapped *plants.ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "must consume G") {
		t.Errorf("error does not mention the rule: %v", err)
	}
}

func TestLoad_ZeroCount(t *testing.T) {
	doc := `{"varieties":[{"name":"none","radius":1,"species":"GERANIUM","nutrient_coefficients":{"R":-0.5,"G":2,"B":-0.5},"count":0}]}`
	cat, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cat.Varieties) != 0 {
		t.Fatalf("got %d varieties, want 0", len(cat.Varieties))
	}
}

func TestGenerateRandom(t *testing.T) {
	vs, err := GenerateRandom(200, rand.New(rand.NewSource(91)))
	if err != nil {
		t.Fatalf("GenerateRandom: %v", err)
	}
	if len(vs) != 200 {
		t.Fatalf("got %d varieties, want 200", len(vs))
	}

	for _, v := range vs {
		limit := float64(2 * v.Radius())
		sum := 0.0
		for _, n := range plants.AllNutrients {
			c := v.Coefficient(n)
			sum += c
			if c < -limit || c > limit {
				t.Errorf("%s: coefficient %s = %g out of bounds", v.Name(), n, c)
			}
			if c != plants.Round2(c) {
				t.Errorf("%s: coefficient %s = %g not rounded", v.Name(), n, c)
			}
		}
		if sum <= 0 {
			t.Errorf("%s: net production %g", v.Name(), sum)
		}
	}
	if !strings.HasSuffix(vs[0].Name(), "_1") || !strings.HasSuffix(vs[199].Name(), "_200") {
		t.Errorf("unexpected names %s, %s", vs[0].Name(), vs[199].Name())
	}
}

func TestGenerateRandom_Deterministic(t *testing.T) {
	a, _ := GenerateRandom(20, rand.New(rand.NewSource(5)))
	b, _ := GenerateRandom(20, rand.New(rand.NewSource(5)))
	for i := range a {
		if a[i].String() != b[i].String() {
			t.Fatalf("variety %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}
