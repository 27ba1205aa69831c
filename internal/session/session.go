// Package session holds the one mutable reference to a running game.
//
// The engine is pure; something still has to own "the current state" and feed
// actions to it one at a time in the order the player issued them. A Session
// does that, serializes concurrent callers with a mutex, and journals every
// step so a run can be replayed and checked.
package session

import (
	"sync"

	"onepersonleft.ai/internal/share"
	"onepersonleft.ai/internal/sim/actions"
	"onepersonleft.ai/internal/sim/engine"
	"onepersonleft.ai/internal/sim/model"
)

type Session struct {
	e *engine.Engine

	mu      sync.Mutex
	origin  model.State
	state   model.State
	journal []actions.Action
}

// New starts a fresh game for seed. An empty seed uses engine.DefaultSeed.
func New(e *engine.Engine, seed string) *Session {
	s := &Session{e: e}
	s.reset(e.NewState(seed))
	return s
}

func (s *Session) reset(st model.State) {
	s.origin = st
	s.state = st.Clone()
	s.journal = nil
}

// State returns a copy of the current state.
func (s *Session) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Apply runs one action. ADVANCE_TICK advances a week, as Advance does. A nil
// action is not journaled.
func (s *Session) Apply(a actions.Action) model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		return s.state.Clone()
	}
	return s.step(a)
}

// Advance runs one tick.
func (s *Session) Advance() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(actions.AdvanceTick())
}

// AdvanceN runs n ticks under one lock so no action lands between them.
func (s *Session) AdvanceN(n int) model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.step(actions.AdvanceTick())
	}
	return s.state.Clone()
}

func (s *Session) step(a actions.Action) model.State {
	s.state = s.e.Step(s.state, a)
	s.journal = append(s.journal, a)
	return s.state.Clone()
}

// Reset discards the current game and starts a fresh one.
func (s *Session) Reset(seed string) model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(s.e.NewState(seed))
	return s.state.Clone()
}

// Load replaces the game with the one in token. On error the current game is
// left untouched and the caller decides whether to fall back.
func (s *Session) Load(token string) error {
	st, err := share.Decode(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(st)
	return nil
}

// LoadOrFresh loads token, or starts a fresh game for seed when the token does
// not decode. The decode error is returned alongside the fresh state so the
// caller can report it.
func (s *Session) LoadOrFresh(token, seed string) (model.State, error) {
	if err := s.Load(token); err != nil {
		return s.Reset(seed), err
	}
	return s.State(), nil
}

// Share encodes the current state.
func (s *Session) Share() (string, error) {
	return share.Encode(s.State())
}

// Origin is the state the journal starts from: the fresh or loaded state of
// the last New, Reset or Load.
func (s *Session) Origin() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin.Clone()
}

// Journal returns the actions applied since Origin, ticks included.
func (s *Session) Journal() []actions.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]actions.Action(nil), s.journal...)
}

// Replay runs steps from a fresh game for seed.
func Replay(e *engine.Engine, seed string, steps []actions.Action) model.State {
	return ReplayFrom(e, e.NewState(seed), steps)
}

// ReplayFrom runs steps from origin.
func ReplayFrom(e *engine.Engine, origin model.State, steps []actions.Action) model.State {
	st := origin
	for _, a := range steps {
		st = e.Step(st, a)
	}
	return st
}
