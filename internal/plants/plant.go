package plants

import "fmt"

// Plant is a placed instance of a variety with its own nutrient reservoirs.
// Plants are created by the garden and never removed.
type Plant struct {
	id       int
	variety  *Variety
	position Position

	size      float64
	inventory [numNutrients]float64
}

// NewPlant creates a plant with half-full reservoirs. The id is the slot
// handle the garden assigns; callers outside the garden rarely need this.
func NewPlant(id int, variety *Variety, pos Position) *Plant {
	p := &Plant{id: id, variety: variety, position: pos}
	half := p.ReservoirCapacity() / 2
	for _, n := range AllNutrients {
		p.inventory[n] = half
	}
	return p
}

func (p *Plant) ID() int            { return p.id }
func (p *Plant) Variety() *Variety  { return p.variety }
func (p *Plant) Position() Position { return p.position }
func (p *Plant) Size() float64      { return p.size }

// ReservoirCapacity is the per-nutrient storage ceiling (10 × radius).
func (p *Plant) ReservoirCapacity() float64 {
	return float64(10 * p.variety.radius)
}

// MaxSize is the size ceiling (100 × radius²).
func (p *Plant) MaxSize() float64 {
	r := p.variety.radius
	return float64(100 * r * r)
}

// ProducedNutrient is the nutrient this plant's species makes.
func (p *Plant) ProducedNutrient() Nutrient {
	return p.variety.species.Produces()
}

// Inventory returns the stored amount of a nutrient.
func (p *Plant) Inventory(n Nutrient) float64 {
	return p.inventory[n]
}

// SetInventory overwrites a reservoir level, clamped to [0, capacity].
// Used by fixtures and tooling; the simulation never calls it.
func (p *Plant) SetInventory(n Nutrient, amount float64) {
	p.inventory[n] = clamp(amount, 0, p.ReservoirCapacity())
}

// Produce applies every coefficient at once, or none of them if any
// reservoir would go negative. Results are capped at capacity.
func (p *Plant) Produce() bool {
	for _, n := range AllNutrients {
		if p.inventory[n]+p.variety.coefficients[n] < 0 {
			return false
		}
	}

	capacity := p.ReservoirCapacity()
	for _, n := range AllNutrients {
		p.inventory[n] = min(capacity, p.inventory[n]+p.variety.coefficients[n])
	}
	return true
}

// Grow spends radius units of every nutrient to add radius to the size.
// Requires every reservoir to hold at least 2 × radius and size < max size.
// Returns the growth added (0 when not permitted).
func (p *Plant) Grow() float64 {
	r := float64(p.variety.radius)
	if p.size >= p.MaxSize() {
		return 0
	}
	for _, n := range AllNutrients {
		if p.inventory[n] < 2*r {
			return 0
		}
	}

	for _, n := range AllNutrients {
		p.inventory[n] -= r
	}
	p.size += r
	return r
}

// OfferAmount is a quarter of the produced nutrient, rounded to 2 decimals.
func (p *Plant) OfferAmount() float64 {
	return Round2(p.inventory[p.ProducedNutrient()] / 4)
}

// GiveNutrient removes amount of the produced nutrient. The exchange
// protocol guarantees the reservoir covers it; anything else is a defect.
func (p *Plant) GiveNutrient(amount float64) {
	n := p.ProducedNutrient()
	if amount > p.inventory[n] {
		panic(fmt.Sprintf("plants: plant %d gives %g %s but holds %g", p.id, amount, n, p.inventory[n]))
	}
	p.inventory[n] -= amount
}

// ReceiveNutrient adds amount of n, capped at capacity.
func (p *Plant) ReceiveNutrient(n Nutrient, amount float64) {
	p.inventory[n] = min(p.ReservoirCapacity(), p.inventory[n]+amount)
}

func (p *Plant) String() string {
	return fmt.Sprintf("Plant(#%d %s at %.2f,%.2f size=%.1f)", p.id, p.variety.name, p.position.X, p.position.Y, p.size)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
