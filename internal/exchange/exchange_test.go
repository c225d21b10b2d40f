package exchange

import (
	"math/rand"
	"testing"

	"github.com/talgya/flowergarden/internal/garden"
	"github.com/talgya/flowergarden/internal/plants"
)

func variety(t *testing.T, name string, radius int, sp plants.Species, r, g, b float64) *plants.Variety {
	t.Helper()
	v, err := plants.NewVariety(name, radius, sp, map[plants.Nutrient]float64{
		plants.NutrientR: r, plants.NutrientG: g, plants.NutrientB: b,
	})
	if err != nil {
		t.Fatalf("NewVariety(%s): %v", name, err)
	}
	return v
}

type setup struct {
	garden   *garden.Garden
	exchange *Exchange
	rhodo    *plants.Variety // radius 2
	geranium *plants.Variety // radius 1
	begonia  *plants.Variety // radius 3
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	g := garden.New(16, 10)
	return &setup{
		garden:   g,
		exchange: New(g),
		rhodo:    variety(t, "rhodo", 2, plants.SpeciesRhododendron, 3, -1, -1),
		geranium: variety(t, "geranium", 1, plants.SpeciesGeranium, -0.5, 2, -0.5),
		begonia:  variety(t, "begonia", 3, plants.SpeciesBegonia, -1, -1, 4),
	}
}

func (s *setup) add(t *testing.T, v *plants.Variety, x, y float64) *plants.Plant {
	t.Helper()
	p, ok := s.garden.AddPlant(v, garden.Position{X: x, Y: y})
	if !ok {
		t.Fatalf("AddPlant(%s, %g,%g) rejected", v.Name(), x, y)
	}
	return p
}

func expect(t *testing.T, p *plants.Plant, n plants.Nutrient, want float64) {
	t.Helper()
	if got := p.Inventory(n); got != want {
		t.Errorf("%s %s = %g, want %g", p.Variety().Name(), n, got, want)
	}
}

func TestExecute_SimpleExchange(t *testing.T) {
	s := newSetup(t)
	a := s.add(t, s.rhodo, 5, 5)
	b := s.add(t, s.geranium, 7, 5)
	a.SetInventory(plants.NutrientR, 12) // offers 3.0
	b.SetInventory(plants.NutrientG, 8)  // offers 2.0

	transfers := s.exchange.Execute()

	if len(transfers) != 1 || transfers[0].Amount != 2 {
		t.Fatalf("transfers = %+v, want one of 2.0", transfers)
	}
	expect(t, a, plants.NutrientR, 10)
	expect(t, a, plants.NutrientG, 12)
	expect(t, b, plants.NutrientG, 6)
	expect(t, b, plants.NutrientR, 7)
}

func TestExecute_UsesMinimumOffer(t *testing.T) {
	s := newSetup(t)
	a := s.add(t, s.rhodo, 5, 5)
	b := s.add(t, s.geranium, 7, 5)
	a.SetInventory(plants.NutrientR, 18)
	a.SetInventory(plants.NutrientG, 4)
	b.SetInventory(plants.NutrientG, 4)
	b.SetInventory(plants.NutrientR, 3)

	s.exchange.Execute()

	expect(t, a, plants.NutrientR, 17)
	expect(t, b, plants.NutrientG, 3)
}

func TestExecute_NoExchangeWithoutSurplus(t *testing.T) {
	s := newSetup(t)
	a := s.add(t, s.rhodo, 5, 5)
	b := s.add(t, s.geranium, 7, 5)
	a.SetInventory(plants.NutrientR, 0)
	b.SetInventory(plants.NutrientG, 8)

	if got := s.exchange.Execute(); len(got) != 0 {
		t.Fatalf("transfers = %+v, want none", got)
	}
	expect(t, a, plants.NutrientR, 0)
	expect(t, a, plants.NutrientG, 10)
	expect(t, a, plants.NutrientB, 10)
}

func TestExecute_SurplusIsStrict(t *testing.T) {
	s := newSetup(t)
	a := s.add(t, s.rhodo, 5, 5)
	s.add(t, s.geranium, 7, 5)
	a.SetInventory(plants.NutrientR, 10) // equal to G: no surplus

	if got := s.exchange.Execute(); len(got) != 0 {
		t.Fatalf("transfers = %+v, want none", got)
	}
}

func TestExecute_ReceiveIsCapped(t *testing.T) {
	s := newSetup(t)
	a := s.add(t, s.rhodo, 5, 5)
	b := s.add(t, s.geranium, 7, 5)
	a.SetInventory(plants.NutrientR, 20)
	a.SetInventory(plants.NutrientG, 19.5)
	b.SetInventory(plants.NutrientG, 8)

	s.exchange.Execute()

	expect(t, a, plants.NutrientR, 18)
	expect(t, a, plants.NutrientG, 20)
}

func TestExecute_NoPartnersNoOffer(t *testing.T) {
	s := newSetup(t)
	a := s.add(t, s.rhodo, 5, 5)
	s.add(t, s.geranium, 15, 5)
	a.SetInventory(plants.NutrientR, 12)

	if got := s.exchange.Execute(); len(got) != 0 {
		t.Fatalf("isolated plants traded: %+v", got)
	}
	// Offer divided by max(1, 0) partners.
	if got := s.exchange.OfferPerPartner(a.ID()); got != 3 {
		t.Fatalf("offer per partner = %g, want 3", got)
	}
	expect(t, a, plants.NutrientR, 12)
}

func TestExecute_OfferSplitAcrossPartners(t *testing.T) {
	s := newSetup(t)
	rhodo := s.add(t, s.rhodo, 5, 5)
	ger := s.add(t, s.geranium, 6.5, 5)
	beg := s.add(t, s.begonia, 5, 9)

	rhodo.SetInventory(plants.NutrientR, 16) // offers 4.0, 2.0 per partner
	ger.SetInventory(plants.NutrientG, 10)   // offers 2.5, one partner
	beg.SetInventory(plants.NutrientB, 20)   // offers 5.0, one partner

	transfers := s.exchange.Execute()

	if got := s.exchange.OfferPerPartner(rhodo.ID()); got != 2 {
		t.Errorf("rhodo offer per partner = %g, want 2", got)
	}
	if got := s.exchange.OfferPerPartner(ger.ID()); got != 2.5 {
		t.Errorf("geranium offer per partner = %g, want 2.5", got)
	}
	if got := s.exchange.OfferPerPartner(beg.ID()); got != 5 {
		t.Errorf("begonia offer per partner = %g, want 5", got)
	}

	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	if transfers[0].B != ger || transfers[1].B != beg {
		t.Fatal("transfers not applied in discovery order")
	}
	expect(t, rhodo, plants.NutrientR, 12)
	expect(t, rhodo, plants.NutrientG, 12)
	expect(t, rhodo, plants.NutrientB, 12)
	expect(t, ger, plants.NutrientG, 8)
	expect(t, ger, plants.NutrientR, 7)
	expect(t, beg, plants.NutrientB, 18)
	expect(t, beg, plants.NutrientR, 17)
}

func TestExecute_PartnerCountIncludesIneligiblePairs(t *testing.T) {
	s := newSetup(t)
	rhodo := s.add(t, s.rhodo, 5, 5)
	ger := s.add(t, s.geranium, 6.5, 5)
	beg := s.add(t, s.begonia, 5, 9)

	rhodo.SetInventory(plants.NutrientR, 16)
	ger.SetInventory(plants.NutrientG, 10)
	beg.SetInventory(plants.NutrientB, 12) // 12 < R 15: begonia has no surplus

	transfers := s.exchange.Execute()

	if len(transfers) != 1 || transfers[0].B != ger {
		t.Fatalf("transfers = %+v, want only rhodo-geranium", transfers)
	}
	expect(t, rhodo, plants.NutrientR, 14)
	expect(t, beg, plants.NutrientB, 12)
}

func TestExecute_EligibilityFixedBeforeTransfers(t *testing.T) {
	s := newSetup(t)
	rhodo := s.add(t, s.rhodo, 5, 5)
	ger := s.add(t, s.geranium, 6.5, 5)
	beg := s.add(t, s.begonia, 5, 9)

	rhodo.SetInventory(plants.NutrientR, 11) // offers 2.75, 1.375 per partner
	ger.SetInventory(plants.NutrientG, 10)
	beg.SetInventory(plants.NutrientB, 20)

	transfers := s.exchange.Execute()

	// After the first trade rhodo holds R 9.625 < B 10, but the second pair
	// was already selected and still trades.
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	expect(t, rhodo, plants.NutrientR, 8.25)
	expect(t, rhodo, plants.NutrientG, 11.375)
	expect(t, rhodo, plants.NutrientB, 11.375)
}

func TestExecute_SameSpeciesNeverTrade(t *testing.T) {
	s := newSetup(t)
	a := s.add(t, s.geranium, 5, 5)
	b := s.add(t, s.geranium, 6, 5)
	a.SetInventory(plants.NutrientG, 10)
	b.SetInventory(plants.NutrientG, 10)

	if got := s.exchange.Execute(); len(got) != 0 {
		t.Fatalf("same-species plants traded: %+v", got)
	}
}

func TestExecute_GivingNeverExceedsOffer(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	species := plants.AllSpecies

	for trial := 0; trial < 50; trial++ {
		g := garden.New(16, 10)
		x := New(g)

		for i := 0; i < 200; i++ {
			radius := 1 + rng.Intn(3)
			sp := species[rng.Intn(len(species))]
			coeffs := map[plants.Nutrient]float64{}
			for _, n := range plants.AllNutrients {
				coeffs[n] = -0.1
			}
			coeffs[sp.Produces()] = float64(radius)
			v, err := plants.NewVariety("v", radius, sp, coeffs)
			if err != nil {
				t.Fatal(err)
			}
			p, ok := g.AddPlant(v, garden.Position{X: rng.Float64() * 16, Y: rng.Float64() * 10})
			if !ok {
				continue
			}
			for _, n := range plants.AllNutrients {
				p.SetInventory(n, rng.Float64()*p.ReservoirCapacity())
			}
		}

		offers := make([]float64, g.Len())
		for id, p := range g.Plants() {
			offers[id] = p.OfferAmount()
		}

		given := make([]float64, g.Len())
		for _, tr := range x.Execute() {
			given[tr.A.ID()] += tr.Amount
			given[tr.B.ID()] += tr.Amount
		}

		for id, p := range g.Plants() {
			if given[id] > offers[id]+1e-9 {
				t.Fatalf("trial %d: plant %d gave %g, offer was %g", trial, id, given[id], offers[id])
			}
			for _, n := range plants.AllNutrients {
				if inv := p.Inventory(n); inv < 0 || inv > p.ReservoirCapacity() {
					t.Fatalf("trial %d: plant %d %s = %g out of range", trial, id, n, inv)
				}
			}
		}
	}
}
