package gardener

import (
	"context"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

const (
	noiseStep        = 0.5
	noiseOctaves     = 3
	noiseFrequency   = 0.15
	noisePersistence = 0.5
	partnerPull      = 0.25 // Score per trading partner in reach
)

// Noise gives every species its own simplex noise field and plants each
// variety where its field peaks, nudged towards trading partners. The fields
// make species settle in patches whose borders are where trading happens.
type Noise struct {
	fields [3]opensimplex.Noise
}

func NewNoise(seed int64) *Noise {
	n := &Noise{}
	for i := range n.fields {
		n.fields[i] = opensimplex.NewNormalized(seed + int64(i))
	}
	return n
}

func (n *Noise) Cultivate(ctx context.Context, g *garden.Garden, varieties []*plants.Variety) error {
	candidates := grid(g, noiseStep)

	for _, v := range varieties {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := n.fields[v.Species().Produces()]

		best := math.Inf(-1)
		var bestPos garden.Position
		found := false
		for _, pos := range candidates {
			if !g.CanPlace(v, pos) {
				continue
			}
			s := octaveNoise(field, pos.X, pos.Y, noiseOctaves, noiseFrequency, noisePersistence)
			s += partnerPull * float64(partnersInReach(g, v, pos))
			if s > best {
				best, bestPos, found = s, pos, true
			}
		}
		if found {
			g.AddPlant(v, bestPos)
		}
	}
	return nil
}

// octaveNoise sums several noise octaves, each at double the frequency and
// persistence times the amplitude of the previous one. The result is
// normalised back to the field's range.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func partnersInReach(g *garden.Garden, v *plants.Variety, pos garden.Position) int {
	count := 0
	for _, p := range g.Plants() {
		if p.Variety().Species() == v.Species() {
			continue
		}
		if plants.Distance(pos, p.Position()) < float64(v.Radius()+p.Variety().Radius()) {
			count++
		}
	}
	return count
}
