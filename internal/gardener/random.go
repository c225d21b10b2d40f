package gardener

import (
	"context"
	"math/rand"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

// Random tries each variety once at a uniformly random position.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Cultivate(ctx context.Context, g *garden.Garden, varieties []*plants.Variety) error {
	for _, v := range varieties {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos := garden.Position{
			X: r.rng.Float64() * g.Width(),
			Y: r.rng.Float64() * g.Height(),
		}
		g.AddPlant(v, pos)
	}
	return nil
}
