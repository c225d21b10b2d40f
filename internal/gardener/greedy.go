package gardener

import (
	"context"
	"math"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

// DefaultGreedyStep is the candidate lattice spacing used by the registry.
const DefaultGreedyStep = 0.5

// Greedy places the largest varieties first, each at the legal lattice
// position with the best placement score. Ties go to the first candidate in
// scan order, so results are deterministic.
type Greedy struct {
	step float64
}

func NewGreedy(step float64) *Greedy {
	if step <= 0 {
		step = DefaultGreedyStep
	}
	return &Greedy{step: step}
}

func (gr *Greedy) Cultivate(ctx context.Context, g *garden.Garden, varieties []*plants.Variety) error {
	candidates := grid(g, gr.step)

	for _, v := range largestFirst(varieties) {
		if err := ctx.Err(); err != nil {
			return err
		}

		best := math.Inf(-1)
		var bestPos garden.Position
		found := false
		for _, pos := range candidates {
			if !g.CanPlace(v, pos) {
				continue
			}
			if s := placementScore(g, v, pos); s > best {
				best, bestPos, found = s, pos, true
			}
		}
		if !found {
			continue
		}
		g.AddPlant(v, bestPos)
	}
	return nil
}

// placementScore rates how good pos is for v given the plants already in g.
// Each trading partner in reach adds one point plus a closeness bonus, each
// distinct partner species adds half a point, and positions whose reach
// spills over the garden edge are penalised.
func placementScore(g *garden.Garden, v *plants.Variety, pos garden.Position) float64 {
	score := 0.0
	seen := make(map[plants.Species]bool, len(plants.AllSpecies))

	for _, p := range g.Plants() {
		sp := p.Variety().Species()
		if sp == v.Species() {
			continue
		}
		reach := float64(v.Radius() + p.Variety().Radius())
		d := plants.Distance(pos, p.Position())
		if d >= reach {
			continue
		}
		score += 1 + (reach-d)/reach
		if !seen[sp] {
			seen[sp] = true
			score += 0.5
		}
	}

	r := float64(v.Radius())
	margin := min(pos.X, g.Width()-pos.X, pos.Y, g.Height()-pos.Y)
	if margin < r {
		score -= 0.5 * (r - margin) / r
	}
	return score
}
