package nursery

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/talgya/flowergarden/internal/plants"
)

// maxAttempts bounds the retries for one random variety. Rounding can push a
// marginal draw to zero net production, which validation rejects.
const maxAttempts = 100

// GenerateRandom creates count random valid varieties drawn from rng.
// Produced coefficients are uniform in [0.2, 2r]; the two consumed
// coefficients are bounded so net production stays positive. All values are
// rounded to 2 decimals.
func GenerateRandom(count int, rng *rand.Rand) ([]*plants.Variety, error) {
	out := make([]*plants.Variety, 0, count)
	for i := 0; i < count; i++ {
		sp := plants.AllSpecies[rng.Intn(len(plants.AllSpecies))]
		radius := 1 + rng.Intn(3)
		name := fmt.Sprintf("%s_%d", strings.ToLower(sp.String()), i+1)

		var v *plants.Variety
		var err error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			v, err = plants.NewVariety(name, radius, sp, randomCoefficients(rng, sp, radius))
			if err == nil {
				break
			}
		}
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func randomCoefficients(rng *rand.Rand, sp plants.Species, radius int) map[plants.Nutrient]float64 {
	limit := float64(2 * radius)

	produced := uniform(rng, 0.2, limit)
	budget := produced - 0.1

	consumed1 := uniform(rng, 0.1, min(budget*0.6, limit))
	consumed2 := uniform(rng, 0.1, min(budget-consumed1, limit))

	coeffs := make(map[plants.Nutrient]float64, len(plants.AllNutrients))
	first := true
	for _, n := range plants.AllNutrients {
		switch {
		case n == sp.Produces():
			coeffs[n] = plants.Round2(produced)
		case first:
			coeffs[n] = plants.Round2(-consumed1)
			first = false
		default:
			coeffs[n] = plants.Round2(-consumed2)
		}
	}
	return coeffs
}

// uniform draws from [a, b], accepting b < a like a linear interpolation.
func uniform(rng *rand.Rand, a, b float64) float64 {
	return a + (b-a)*rng.Float64()
}
