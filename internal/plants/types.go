// Package plants provides the entity model: nutrients, species, validated
// varieties and the mutable plant instances that carry nutrient inventories.
package plants

import (
	"fmt"
	"math"
)

// Nutrient is one of the three micronutrients tracked per plant.
type Nutrient uint8

const (
	NutrientR Nutrient = iota
	NutrientG
	NutrientB

	numNutrients = 3
)

// AllNutrients lists every nutrient in canonical order. All multi-nutrient
// loops iterate in this order so float accumulation is reproducible.
var AllNutrients = [numNutrients]Nutrient{NutrientR, NutrientG, NutrientB}

// String returns the single-letter nutrient code.
func (n Nutrient) String() string {
	switch n {
	case NutrientR:
		return "R"
	case NutrientG:
		return "G"
	case NutrientB:
		return "B"
	default:
		return fmt.Sprintf("Nutrient(%d)", uint8(n))
	}
}

// ParseNutrient maps a single-letter code to its nutrient.
func ParseNutrient(s string) (Nutrient, error) {
	switch s {
	case "R":
		return NutrientR, nil
	case "G":
		return NutrientG, nil
	case "B":
		return NutrientB, nil
	}
	return 0, fmt.Errorf("unknown nutrient %q", s)
}

// Species determines which nutrient a plant produces.
type Species uint8

const (
	SpeciesRhododendron Species = iota // Produces R
	SpeciesGeranium                    // Produces G
	SpeciesBegonia                     // Produces B
)

// AllSpecies lists every species in canonical order.
var AllSpecies = [...]Species{SpeciesRhododendron, SpeciesGeranium, SpeciesBegonia}

// Produces returns the nutrient produced by the species.
func (s Species) Produces() Nutrient {
	switch s {
	case SpeciesRhododendron:
		return NutrientR
	case SpeciesGeranium:
		return NutrientG
	case SpeciesBegonia:
		return NutrientB
	default:
		panic(fmt.Sprintf("plants: unknown species %d", uint8(s)))
	}
}

// String returns the upper-case species name used in variety files.
func (s Species) String() string {
	switch s {
	case SpeciesRhododendron:
		return "RHODODENDRON"
	case SpeciesGeranium:
		return "GERANIUM"
	case SpeciesBegonia:
		return "BEGONIA"
	default:
		return fmt.Sprintf("Species(%d)", uint8(s))
	}
}

// ParseSpecies maps an upper-case species name to its species.
func ParseSpecies(s string) (Species, error) {
	for _, sp := range AllSpecies {
		if sp.String() == s {
			return sp, nil
		}
	}
	return 0, fmt.Errorf("unknown species %q", s)
}

// Position is a point in the continuous garden plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two positions.
func Distance(a, b Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
