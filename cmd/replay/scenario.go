package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"onepersonleft.ai/internal/protocol"
	"onepersonleft.ai/internal/sim/actions"
)

// Scenario is a scripted run:
//
//	seed: demo
//	steps:
//	  - action: {type: DEPLOY_AGENT, agent_type: generalist}
//	  - tick: 5
type Scenario struct {
	Seed  string `yaml:"seed"`
	Steps []Step `yaml:"steps"`
}

// Step is either a tick count or one action.
type Step struct {
	Tick   int                 `yaml:"tick,omitempty"`
	Action *protocol.ActionReq `yaml:"action,omitempty"`
}

func LoadScenario(path string) (Scenario, error) {
	var sc Scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, err
	}
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, fmt.Errorf("scenario: %w", err)
	}
	return sc, nil
}

// Actions expands the steps; a tick step becomes that many ADVANCE_TICKs.
func (sc Scenario) Actions() ([]actions.Action, error) {
	var out []actions.Action
	for i, st := range sc.Steps {
		switch {
		case st.Action != nil && st.Tick != 0:
			return nil, fmt.Errorf("scenario: step %d: tick and action are exclusive", i+1)
		case st.Action != nil:
			a, err := st.Action.ToAction()
			if err != nil {
				return nil, fmt.Errorf("scenario: step %d: %w", i+1, err)
			}
			out = append(out, a)
		case st.Tick > 0 && st.Tick <= protocol.MaxTickCount:
			for j := 0; j < st.Tick; j++ {
				out = append(out, actions.AdvanceTick())
			}
		default:
			return nil, fmt.Errorf("scenario: step %d: tick must be in 1..%d", i+1, protocol.MaxTickCount)
		}
	}
	return out, nil
}
