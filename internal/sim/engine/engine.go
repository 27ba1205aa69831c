// Package engine owns the two state transitions of the simulation: Reduce
// applies one player action, Tick advances one week.
//
// Both are pure. They never write to the state they receive, they never read
// the clock, and every random draw comes from an RNG derived from the state's
// seed and tick. Two runs that start from the same seed and apply the same
// sequence of actions and ticks produce identical states.
package engine

import (
	"fmt"

	"onepersonleft.ai/internal/sim/actions"
	"onepersonleft.ai/internal/sim/model"
	"onepersonleft.ai/internal/sim/tuning"
)

type Engine struct {
	t tuning.Tuning
}

// New validates t and returns an engine that owns a private copy of it.
func New(t tuning.Tuning) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{t: t.Clone()}, nil
}

// Tuning returns a copy of the tables the engine was built with.
func (e *Engine) Tuning() tuning.Tuning { return e.t.Clone() }

// Step applies a the way a player issues it: ADVANCE_TICK advances one week,
// every other action goes through Reduce.
func (e *Engine) Step(s model.State, a actions.Action) model.State {
	if _, ok := a.(actions.AdvanceTickAction); ok {
		return e.Tick(s)
	}
	return e.Reduce(s, a)
}

var defaultEngine = mustDefault()

func mustDefault() *Engine {
	e, err := New(tuning.Defaults())
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns the engine built from tuning.Defaults().
func Default() *Engine { return defaultEngine }

func NewState(seed string) model.State                   { return defaultEngine.NewState(seed) }
func Reduce(s model.State, a actions.Action) model.State { return defaultEngine.Reduce(s, a) }
func Tick(s model.State) model.State                     { return defaultEngine.Tick(s) }
