// Package engine provides the yearly population simulation: the cohort store,
// the transition rules and the loop that runs them to a fixed horizon.
package engine

import (
	"fmt"
	"log/slog"
)

// Engine drives the simulation forward one year at a time.
type Engine struct {
	Year    int // Next year to run
	Horizon int // Total number of years; the engine stops before Year == Horizon
	Running bool

	// OnYear runs one year. A non-nil error stops the engine.
	OnYear func(year int) error
}

// NewEngine creates an engine that runs years 0 through horizon-1.
func NewEngine(horizon int) *Engine {
	return &Engine{Horizon: horizon}
}

// Run advances through every remaining year. It returns the first error
// reported by OnYear.
func (e *Engine) Run() error {
	e.Running = true
	defer func() { e.Running = false }()
	slog.Info("simulation engine started", "year", e.Year, "horizon", e.Horizon)

	for e.Year < e.Horizon {
		if err := e.step(); err != nil {
			slog.Error("simulation engine halted", "year", e.Year, "error", err)
			return err
		}
	}

	slog.Info("simulation engine stopped", "year", e.Year)
	return nil
}

// step advances the simulation by one year.
func (e *Engine) step() error {
	if e.OnYear != nil {
		if err := e.OnYear(e.Year); err != nil {
			return fmt.Errorf("year %d: %w", e.Year, err)
		}
	}
	e.Year++
	return nil
}

// Drive wires sim into the engine. When check is set, the population
// invariants are verified after every year.
func (e *Engine) Drive(sim *Simulation, check bool) {
	e.OnYear = func(year int) error {
		sim.RunYear(year)
		if check {
			return sim.Cohorts.Check(year)
		}
		return nil
	}
}
