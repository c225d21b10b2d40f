package gardener

import (
	"context"
	"math"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

const (
	triangleSide    = 1.1 // Side of a cluster, in mean radii
	clusterSpacing  = 2.1 // Distance between cluster origins, in mean radii
	triangleOriginX = 0.25
	triangleOriginY = 0.25
)

// Triangle tiles the garden with three-species clusters: one rhododendron,
// one geranium and one begonia at the corners of an equilateral triangle.
// Every cluster places its three plants so each can trade with both others.
type Triangle struct{}

func NewTriangle() *Triangle { return &Triangle{} }

func (t *Triangle) Cultivate(ctx context.Context, g *garden.Garden, varieties []*plants.Variety) error {
	groups := bySpecies(varieties)

	total, n := 0, 0
	for _, sp := range plants.AllSpecies {
		if len(groups[sp]) > 0 {
			total += groups[sp][0].Radius()
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(total) / float64(n)
	side := avg * triangleSide
	spacing := avg * clusterSpacing

	// Corner offsets in AllSpecies order.
	corners := [3]garden.Position{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side / 2, Y: side * math.Sin(math.Pi/3)},
	}
	next := make(map[plants.Species]int, len(plants.AllSpecies))

	nx := int((g.Width()-triangleOriginX)/spacing) + 1
	ny := int((g.Height()-triangleOriginY)/spacing) + 1
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			cx := float64(i)*spacing + triangleOriginX
			cy := float64(j)*spacing + triangleOriginY

			for k, sp := range plants.AllSpecies {
				group := groups[sp]
				if next[sp] >= len(group) {
					continue
				}
				pos := garden.Position{X: cx + corners[k].X, Y: cy + corners[k].Y}
				if _, ok := g.AddPlant(group[next[sp]], pos); ok {
					next[sp]++
				}
			}
		}
	}
	return nil
}
