// Package gardener holds placement strategies. A gardener receives an empty
// garden and the nursery's varieties and places as many plants as it likes
// through Garden.AddPlant, which rejects illegal positions.
// Strategies own their wall-clock budget and watch ctx for it.
package gardener

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

// Gardener places plants into a garden before the simulation starts.
type Gardener interface {
	Cultivate(ctx context.Context, g *garden.Garden, varieties []*plants.Variety) error
}

// Factory builds a gardener from a seed.
type Factory func(seed int64) Gardener

var registry = map[string]Factory{
	"random":   func(seed int64) Gardener { return NewRandom(seed) },
	"triangle": func(int64) Gardener { return NewTriangle() },
	"greedy":   func(int64) Gardener { return NewGreedy(DefaultGreedyStep) },
	"noise":    func(seed int64) Gardener { return NewNoise(seed) },
}

// New looks up a gardener by name.
func New(name string, seed int64) (Gardener, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown gardener %q (known: %v)", name, Names())
	}
	return f(seed), nil
}

// Names lists the registered gardeners in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bySpecies splits varieties by species, keeping input order within a group.
func bySpecies(varieties []*plants.Variety) map[plants.Species][]*plants.Variety {
	groups := make(map[plants.Species][]*plants.Variety, len(plants.AllSpecies))
	for _, v := range varieties {
		groups[v.Species()] = append(groups[v.Species()], v)
	}
	return groups
}

// largestFirst returns a copy of varieties ordered by radius descending.
// The sort is stable so equal radii keep their input order.
func largestFirst(varieties []*plants.Variety) []*plants.Variety {
	out := slices.Clone(varieties)
	slices.SortStableFunc(out, func(a, b *plants.Variety) int {
		return b.Radius() - a.Radius()
	})
	return out
}

// grid returns candidate positions on a square lattice covering the garden,
// edges included.
func grid(g *garden.Garden, step float64) []garden.Position {
	var out []garden.Position
	for x := 0.0; x <= g.Width()+1e-9; x += step {
		for y := 0.0; y <= g.Height()+1e-9; y += step {
			out = append(out, garden.Position{X: min(x, g.Width()), Y: min(y, g.Height())})
		}
	}
	return out
}
