// Package actions is the closed set of player intents.
//
// Every action is built by a constructor in this package; its fields are
// unexported so a reducer never sees an un-normalized value. Constructors
// validate and normalize arguments only. Conditions that depend on the
// current state (does the agent exist, may it automate the role) are checked
// when the action is applied.
package actions

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"onepersonleft.ai/internal/sim/model"
)

type Kind string

const (
	KindSetAutomation Kind = "SET_AUTOMATION"
	KindHire          Kind = "HIRE"
	KindFire          Kind = "FIRE"
	KindDeployAgent   Kind = "DEPLOY_AGENT"
	KindAutomateRole  Kind = "AUTOMATE_ROLE"
	KindAdvanceTick   Kind = "ADVANCE_TICK"
)

var (
	ErrUnknownRole      = errors.New("unknown role")
	ErrUnknownAgentType = errors.New("unknown agent type")
	ErrEmptyAgentID     = errors.New("empty agent id")
)

// MaxCount caps hire/fire counts at the per-role headcount bound.
const MaxCount = model.MaxHeadcount

// Action is sealed: only the types in this package implement it.
type Action interface {
	Kind() Kind
	Accept(v Visitor)
	sealed()
}

// Visitor has one method per action. Implementing it is how a consumer
// handles every action; a new action adds a method here and breaks every
// incomplete consumer at build time.
type Visitor interface {
	VisitSetAutomation(SetAutomationAction)
	VisitHire(HireAction)
	VisitFire(FireAction)
	VisitDeployAgent(DeployAgentAction)
	VisitAutomateRole(AutomateRoleAction)
	VisitAdvanceTick(AdvanceTickAction)
}

type SetAutomationAction struct {
	role  model.Role
	level float64
}

func (a SetAutomationAction) Role() model.Role { return a.role }
func (a SetAutomationAction) Level() float64   { return a.level }
func (SetAutomationAction) Kind() Kind         { return KindSetAutomation }
func (a SetAutomationAction) Accept(v Visitor) { v.VisitSetAutomation(a) }
func (SetAutomationAction) sealed()            {}
func (a SetAutomationAction) String() string   { return fmt.Sprintf("%s(%s, %v)", a.Kind(), a.role, a.level) }

type HireAction struct {
	role  model.Role
	count int
}

func (a HireAction) Role() model.Role { return a.role }
func (a HireAction) Count() int       { return a.count }
func (HireAction) Kind() Kind         { return KindHire }
func (a HireAction) Accept(v Visitor) { v.VisitHire(a) }
func (HireAction) sealed()            {}
func (a HireAction) String() string   { return fmt.Sprintf("%s(%s, %d)", a.Kind(), a.role, a.count) }

type FireAction struct {
	role  model.Role
	count int
}

func (a FireAction) Role() model.Role { return a.role }
func (a FireAction) Count() int       { return a.count }
func (FireAction) Kind() Kind         { return KindFire }
func (a FireAction) Accept(v Visitor) { v.VisitFire(a) }
func (FireAction) sealed()            {}
func (a FireAction) String() string   { return fmt.Sprintf("%s(%s, %d)", a.Kind(), a.role, a.count) }

type DeployAgentAction struct {
	agentType model.AgentType
}

func (a DeployAgentAction) AgentType() model.AgentType { return a.agentType }
func (DeployAgentAction) Kind() Kind                   { return KindDeployAgent }
func (a DeployAgentAction) Accept(v Visitor)           { v.VisitDeployAgent(a) }
func (DeployAgentAction) sealed()                      {}
func (a DeployAgentAction) String() string             { return fmt.Sprintf("%s(%s)", a.Kind(), a.agentType) }

type AutomateRoleAction struct {
	role    model.Role
	agentID string
}

func (a AutomateRoleAction) Role() model.Role { return a.role }
func (a AutomateRoleAction) AgentID() string  { return a.agentID }
func (AutomateRoleAction) Kind() Kind         { return KindAutomateRole }
func (a AutomateRoleAction) Accept(v Visitor) { v.VisitAutomateRole(a) }
func (AutomateRoleAction) sealed()            {}
func (a AutomateRoleAction) String() string   { return fmt.Sprintf("%s(%s, %s)", a.Kind(), a.role, a.agentID) }

type AdvanceTickAction struct{}

func (AdvanceTickAction) Kind() Kind         { return KindAdvanceTick }
func (a AdvanceTickAction) Accept(v Visitor) { v.VisitAdvanceTick(a) }
func (AdvanceTickAction) sealed()            {}
func (a AdvanceTickAction) String() string   { return string(a.Kind()) }

// SetAutomation clamps level to [0,1]; NaN becomes 0.
func SetAutomation(role model.Role, level float64) (Action, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("set automation: %w: %q", ErrUnknownRole, role)
	}
	return SetAutomationAction{role: role, level: clampUnit(level)}, nil
}

// Hire floors count to a non-negative integer.
func Hire(role model.Role, count float64) (Action, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("hire: %w: %q", ErrUnknownRole, role)
	}
	return HireAction{role: role, count: normalizeCount(count)}, nil
}

// Fire floors count to a non-negative integer. Firing more than the current
// headcount is not an error; the reducer caps it.
func Fire(role model.Role, count float64) (Action, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("fire: %w: %q", ErrUnknownRole, role)
	}
	return FireAction{role: role, count: normalizeCount(count)}, nil
}

func DeployAgent(agentType model.AgentType) (Action, error) {
	if !agentType.Valid() {
		return nil, fmt.Errorf("deploy agent: %w: %q", ErrUnknownAgentType, agentType)
	}
	return DeployAgentAction{agentType: agentType}, nil
}

func AutomateRole(role model.Role, agentID string) (Action, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("automate role: %w: %q", ErrUnknownRole, role)
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, fmt.Errorf("automate role: %w", ErrEmptyAgentID)
	}
	return AutomateRoleAction{role: role, agentID: agentID}, nil
}

func AdvanceTick() Action { return AdvanceTickAction{} }

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func normalizeCount(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= MaxCount {
		return MaxCount
	}
	return int(math.Floor(v))
}
