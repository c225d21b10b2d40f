// Package engine provides the turn loop: daytime production, evening
// exchange and overnight growth, strictly in that order across the garden.
package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/talgya/flowergarden/internal/exchange"
	"github.com/talgya/flowergarden/internal/garden"
)

// Phase is a step of the turn state machine.
type Phase uint8

const (
	PhaseProduce  Phase = iota // Every plant produces
	PhaseExchange              // One trading round
	PhaseGrow                  // Every plant tries to grow
)

// next returns the phase that must follow p. Grow wraps to Produce, which
// closes the turn.
func (p Phase) next() Phase {
	switch p {
	case PhaseProduce:
		return PhaseExchange
	case PhaseExchange:
		return PhaseGrow
	case PhaseGrow:
		return PhaseProduce
	default:
		panic(fmt.Sprintf("engine: unknown phase %d", uint8(p)))
	}
}

func (p Phase) String() string {
	switch p {
	case PhaseProduce:
		return "produce"
	case PhaseExchange:
		return "exchange"
	case PhaseGrow:
		return "grow"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// TurnReport summarises one completed turn.
type TurnReport struct {
	Turn        int     `json:"turn"`
	Growth      float64 `json:"growth"`       // Size added this turn
	TotalGrowth float64 `json:"total_growth"` // Garden size after the turn
	Produced    int     `json:"produced"`     // Plants whose production ran
	Trades      int     `json:"trades"`       // Transfers applied
	Grown       int     `json:"grown"`        // Plants that grew
}

// Engine drives a garden through turns.
type Engine struct {
	garden   *garden.Garden
	exchange *exchange.Exchange

	turn    int
	phase   Phase
	history []float64

	// In-progress turn accounting.
	current TurnReport

	// OnTurn is called after every completed turn, if set.
	OnTurn func(TurnReport)
}

// New creates an engine over g at turn 0.
func New(g *garden.Garden) *Engine {
	return &Engine{
		garden:   g,
		exchange: exchange.New(g),
		phase:    PhaseProduce,
	}
}

// Garden returns the simulated garden.
func (e *Engine) Garden() *garden.Garden { return e.garden }

// Turn returns the number of completed turns.
func (e *Engine) Turn() int { return e.turn }

// Phase returns the phase the next step will run.
func (e *Engine) Phase() Phase { return e.phase }

// GrowthHistory returns the total garden growth after each completed turn.
func (e *Engine) GrowthHistory() []float64 {
	return slices.Clone(e.history)
}

// RunTurn advances the state machine through all three phases and returns
// the growth added during the turn.
func (e *Engine) RunTurn() float64 {
	e.current = TurnReport{Turn: e.turn + 1}
	for {
		e.step()
		if e.phase == PhaseProduce {
			break
		}
	}

	total := e.garden.TotalGrowth()
	e.history = append(e.history, total)
	e.turn++

	report := e.current
	report.TotalGrowth = total
	slog.Debug("turn complete",
		"turn", report.Turn,
		"growth", fmt.Sprintf("%.2f", report.Growth),
		"total", fmt.Sprintf("%.2f", total),
		"trades", report.Trades,
	)
	if e.OnTurn != nil {
		e.OnTurn(report)
	}
	return report.Growth
}

// RunSimulation runs exactly turns turns and returns the full history.
func (e *Engine) RunSimulation(turns int) []float64 {
	for i := 0; i < turns; i++ {
		e.RunTurn()
	}
	return e.GrowthHistory()
}

// step runs the current phase over the whole garden, then advances.
func (e *Engine) step() {
	switch e.phase {
	case PhaseProduce:
		e.current.Produced = e.daytimeProduction()
	case PhaseExchange:
		e.current.Trades = len(e.exchange.Execute())
	case PhaseGrow:
		e.current.Growth, e.current.Grown = e.overnightGrowth()
	}
	e.phase = e.phase.next()
}

func (e *Engine) daytimeProduction() int {
	produced := 0
	for _, p := range e.garden.Plants() {
		if p.Produce() {
			produced++
		}
	}
	return produced
}

func (e *Engine) overnightGrowth() (float64, int) {
	growth := 0.0
	grown := 0
	for _, p := range e.garden.Plants() {
		if g := p.Grow(); g > 0 {
			growth += g
			grown++
		}
	}
	return growth, grown
}
