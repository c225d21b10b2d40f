// Package garden provides the bounded planting area, placement legality and
// the interaction graph between placed plants.
package garden

import (
	"fmt"
	"slices"

	"github.com/talgya/flowergarden/internal/plants"
)

// Default garden dimensions.
const (
	DefaultWidth  = 16.0
	DefaultHeight = 10.0
)

// Position is re-exported so strategies need only import garden.
type Position = plants.Position

// Garden owns every placed plant in insertion order.
type Garden struct {
	width  float64
	height float64
	plants []*plants.Plant
}

// New creates an empty garden with the given bounds.
func New(width, height float64) *Garden {
	return &Garden{width: width, height: height}
}

// NewDefault creates an empty 16×10 garden.
func NewDefault() *Garden {
	return New(DefaultWidth, DefaultHeight)
}

func (g *Garden) Width() float64  { return g.width }
func (g *Garden) Height() float64 { return g.height }

// Plants returns the placed plants in insertion order. The slice is clipped
// so appends by the caller never alias the garden's storage.
func (g *Garden) Plants() []*plants.Plant {
	return slices.Clip(g.plants)
}

// Len returns the number of placed plants.
func (g *Garden) Len() int {
	return len(g.plants)
}

// Plant returns the plant in slot id, or nil if the slot is empty.
func (g *Garden) Plant(id int) *plants.Plant {
	if id < 0 || id >= len(g.plants) {
		return nil
	}
	return g.plants[id]
}

// WithinBounds reports whether pos lies in [0,width]×[0,height].
func (g *Garden) WithinBounds(pos Position) bool {
	return 0 <= pos.X && pos.X <= g.width && 0 <= pos.Y && pos.Y <= g.height
}

// CanPlace reports whether a plant of variety v may be placed at pos.
// Spacing is gated by the candidate's radius only: every existing plant must
// be at least v.Radius() away, whatever its own radius.
func (g *Garden) CanPlace(v *plants.Variety, pos Position) bool {
	if !g.WithinBounds(pos) {
		return false
	}
	minDist := float64(v.Radius())
	for _, existing := range g.plants {
		if plants.Distance(pos, existing.Position()) < minDist {
			return false
		}
	}
	return true
}

// AddPlant places a new plant. It returns (nil, false) with no side effects
// when the position is illegal.
func (g *Garden) AddPlant(v *plants.Variety, pos Position) (*plants.Plant, bool) {
	if !g.CanPlace(v, pos) {
		return nil, false
	}
	p := plants.NewPlant(len(g.plants), v, pos)
	g.plants = append(g.plants, p)
	return p, true
}

// Interacts reports whether a and b exchange nutrients: different species
// and closer than the sum of their radii.
func Interacts(a, b *plants.Plant) bool {
	if a == b || a.Variety().Species() == b.Variety().Species() {
		return false
	}
	reach := float64(a.Variety().Radius() + b.Variety().Radius())
	return plants.Distance(a.Position(), b.Position()) < reach
}

// Interacting returns every plant that interacts with p, in insertion order.
func (g *Garden) Interacting(p *plants.Plant) []*plants.Plant {
	var out []*plants.Plant
	for _, other := range g.plants {
		if Interacts(p, other) {
			out = append(out, other)
		}
	}
	return out
}

// Pair is one interacting couple, oriented in discovery order.
type Pair struct {
	A *plants.Plant
	B *plants.Plant
}

// pairKey identifies an unordered pair by slot handles.
type pairKey struct{ lo, hi int }

func keyOf(a, b *plants.Plant) pairKey {
	if a.ID() < b.ID() {
		return pairKey{a.ID(), b.ID()}
	}
	return pairKey{b.ID(), a.ID()}
}

// AllInteractions returns every interacting pair exactly once. Pairs are
// discovered by walking plants in insertion order, then each plant's
// partners in insertion order.
func (g *Garden) AllInteractions() []Pair {
	var pairs []Pair
	seen := make(map[pairKey]bool)
	for _, p := range g.plants {
		for _, partner := range g.Interacting(p) {
			k := keyOf(p, partner)
			if seen[k] {
				continue
			}
			seen[k] = true
			pairs = append(pairs, Pair{A: p, B: partner})
		}
	}
	return pairs
}

// TotalGrowth sums the size of every plant in insertion order.
func (g *Garden) TotalGrowth() float64 {
	total := 0.0
	for _, p := range g.plants {
		total += p.Size()
	}
	return total
}

// String returns a summary of the garden.
func (g *Garden) String() string {
	return fmt.Sprintf("Garden(%gx%g, plants=%d)", g.width, g.height, len(g.plants))
}
