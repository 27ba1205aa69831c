package protocol

import (
	"errors"
	"fmt"

	"onepersonleft.ai/internal/sim/actions"
	"onepersonleft.ai/internal/sim/model"
)

var ErrUnknownAction = errors.New("unknown action type")

// ActionReq is the flat wire form of an action. Which fields are read depends
// on Type. The same shape is used in replay scenario files.
type ActionReq struct {
	Type      string  `json:"type" yaml:"type"`
	Role      string  `json:"role,omitempty" yaml:"role,omitempty"`
	Level     float64 `json:"level,omitempty" yaml:"level,omitempty"`
	Count     float64 `json:"count,omitempty" yaml:"count,omitempty"`
	AgentType string  `json:"agent_type,omitempty" yaml:"agent_type,omitempty"`
	AgentID   string  `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
}

// ToAction builds the action through the normalizing constructors.
func (r ActionReq) ToAction() (actions.Action, error) {
	role := model.Role(r.Role)
	switch actions.Kind(r.Type) {
	case actions.KindSetAutomation:
		return actions.SetAutomation(role, r.Level)
	case actions.KindHire:
		return actions.Hire(role, r.Count)
	case actions.KindFire:
		return actions.Fire(role, r.Count)
	case actions.KindDeployAgent:
		return actions.DeployAgent(model.AgentType(r.AgentType))
	case actions.KindAutomateRole:
		return actions.AutomateRole(role, r.AgentID)
	case actions.KindAdvanceTick:
		return actions.AdvanceTick(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, r.Type)
}

// ActionReqOf is the inverse of ToAction.
func ActionReqOf(a actions.Action) ActionReq {
	var w reqWriter
	a.Accept(&w)
	return w.req
}

type reqWriter struct{ req ActionReq }

func (w *reqWriter) VisitSetAutomation(a actions.SetAutomationAction) {
	w.req = ActionReq{Type: string(a.Kind()), Role: string(a.Role()), Level: a.Level()}
}

func (w *reqWriter) VisitHire(a actions.HireAction) {
	w.req = ActionReq{Type: string(a.Kind()), Role: string(a.Role()), Count: float64(a.Count())}
}

func (w *reqWriter) VisitFire(a actions.FireAction) {
	w.req = ActionReq{Type: string(a.Kind()), Role: string(a.Role()), Count: float64(a.Count())}
}

func (w *reqWriter) VisitDeployAgent(a actions.DeployAgentAction) {
	w.req = ActionReq{Type: string(a.Kind()), AgentType: string(a.AgentType())}
}

func (w *reqWriter) VisitAutomateRole(a actions.AutomateRoleAction) {
	w.req = ActionReq{Type: string(a.Kind()), Role: string(a.Role()), AgentID: a.AgentID()}
}

func (w *reqWriter) VisitAdvanceTick(a actions.AdvanceTickAction) {
	w.req = ActionReq{Type: string(a.Kind())}
}
