package engine

import (
	"github.com/talgya/flowergarden/internal/plants"
)

// Stats tracks aggregate garden statistics.
type Stats struct {
	Turn          int            `json:"turn"`
	Plants        int            `json:"plants"`
	TotalGrowth   float64        `json:"total_growth"`
	AvgSize       float64        `json:"avg_size"`
	AvgFill       float64        `json:"avg_fill"`    // Mean reservoir fill, 0.0–1.0
	FullyGrown    int            `json:"fully_grown"` // Plants at max size
	Interactions  int            `json:"interactions"`
	SpeciesCounts map[string]int `json:"species_counts"`
}

// Stats computes the current statistics of the simulated garden.
func (e *Engine) Stats() Stats {
	st := Stats{
		Turn:          e.turn,
		SpeciesCounts: make(map[string]int, len(plants.AllSpecies)),
		Interactions:  len(e.garden.AllInteractions()),
	}

	totalFill := 0.0
	for _, p := range e.garden.Plants() {
		st.Plants++
		st.TotalGrowth += p.Size()
		st.SpeciesCounts[p.Variety().Species().String()]++
		if p.Size() >= p.MaxSize() {
			st.FullyGrown++
		}
		for _, n := range plants.AllNutrients {
			totalFill += p.Inventory(n) / p.ReservoirCapacity()
		}
	}

	if st.Plants > 0 {
		st.AvgSize = st.TotalGrowth / float64(st.Plants)
		st.AvgFill = totalFill / float64(st.Plants*len(plants.AllNutrients))
	}
	return st
}
