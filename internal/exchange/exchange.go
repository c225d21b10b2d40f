// Package exchange implements the evening nutrient trade between interacting
// plants. One call to Execute is one trading round.
package exchange

import (
	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

// Transfer is one applied bilateral trade.
type Transfer struct {
	A      *plants.Plant
	B      *plants.Plant
	Amount float64
}

// Exchange runs trading rounds over a garden.
type Exchange struct {
	garden *garden.Garden

	// Per-round scratch, indexed by plant slot.
	partners []int
	offers   []float64
}

// New creates an exchange bound to g.
func New(g *garden.Garden) *Exchange {
	return &Exchange{garden: g}
}

// Execute runs one trading round and returns the transfers applied, in order.
//
// The pair set, partner counts and per-partner offers are all fixed from the
// state before any transfer. A plant gives at most offer/partners per pair, so
// across all its pairs it never gives more than its total offer.
func (x *Exchange) Execute() []Transfer {
	pairs := x.garden.AllInteractions()
	x.computeOffers(pairs)
	if len(pairs) == 0 {
		return nil
	}

	var eligible []garden.Pair
	for _, pr := range pairs {
		if shouldExchange(pr.A, pr.B) {
			eligible = append(eligible, pr)
		}
	}

	transfers := make([]Transfer, 0, len(eligible))
	for _, pr := range eligible {
		amount := min(x.offers[pr.A.ID()], x.offers[pr.B.ID()])
		if amount <= 0 {
			continue
		}
		trade(pr.A, pr.B, amount)
		transfers = append(transfers, Transfer{A: pr.A, B: pr.B, Amount: amount})
	}
	return transfers
}

// OfferPerPartner returns the offer cached for plant slot id in the most
// recent round.
func (x *Exchange) OfferPerPartner(id int) float64 {
	if id < 0 || id >= len(x.offers) {
		return 0
	}
	return x.offers[id]
}

func (x *Exchange) computeOffers(pairs []garden.Pair) {
	n := x.garden.Len()
	x.partners = resize(x.partners, n)
	x.offers = resize(x.offers, n)

	for _, pr := range pairs {
		x.partners[pr.A.ID()]++
		x.partners[pr.B.ID()]++
	}
	for id, p := range x.garden.Plants() {
		x.offers[id] = p.OfferAmount() / float64(max(1, x.partners[id]))
	}
}

// shouldExchange requires both plants to hold more of what they make than
// of what the partner makes.
func shouldExchange(a, b *plants.Plant) bool {
	na := a.ProducedNutrient()
	nb := b.ProducedNutrient()
	return a.Inventory(na) > a.Inventory(nb) && b.Inventory(nb) > b.Inventory(na)
}

func trade(a, b *plants.Plant, amount float64) {
	na := a.ProducedNutrient()
	nb := b.ProducedNutrient()

	a.GiveNutrient(amount)
	a.ReceiveNutrient(nb, amount)

	b.GiveNutrient(amount)
	b.ReceiveNutrient(na, amount)
}

func resize[T int | float64](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	clear(s)
	return s
}
