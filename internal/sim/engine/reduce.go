package engine

import (
	"fmt"
	"math"

	"onepersonleft.ai/internal/sim/actions"
	"onepersonleft.ai/internal/sim/model"
)

// Reduce applies one action and returns the resulting state. Failures that
// depend on the state (missing agent, wrong specialization) are reported as a
// danger event, never as an error. A nil action returns an unchanged copy.
func (e *Engine) Reduce(s model.State, a actions.Action) model.State {
	r := &reducer{e: e, s: s.Clone()}
	if a != nil {
		a.Accept(r)
	}
	return r.s
}

// reducer works on a private clone and may write to it freely.
type reducer struct {
	e *Engine
	s model.State
}

var _ actions.Visitor = (*reducer)(nil)

func (r *reducer) event(t model.EventType, format string, args ...any) {
	r.s.Events = append(r.s.Events, model.GameEvent{
		Tick:    r.s.Tick,
		Type:    t,
		Message: fmt.Sprintf(format, args...),
	})
}

// role resolves the mutable role entry. Zero-value actions built outside the
// constructors can carry an empty role; those are reported instead of applied.
func (r *reducer) role(role model.Role) (*model.RoleData, bool) {
	d, ok := r.s.Company.Roles.Get(role)
	if !ok {
		r.event(model.EventDanger, "Action ignored: unknown role %q", role)
	}
	return d, ok
}

func (r *reducer) VisitSetAutomation(a actions.SetAutomationAction) {
	d, ok := r.role(a.Role())
	if !ok {
		return
	}
	d.AutomationLevel = a.Level()
	r.event(model.EventInfo, "Set %s automation to %d%%", a.Role(), percent(a.Level()))
}

func (r *reducer) VisitHire(a actions.HireAction) {
	d, ok := r.role(a.Role())
	if !ok {
		return
	}
	limit := r.e.t.Rules.MaxHeadcount
	hired := a.Count()
	if room := limit - d.Headcount; hired > room {
		hired = room
	}
	if hired < 0 {
		hired = 0
	}
	d.Headcount += hired
	r.event(model.EventSuccess, "Hired %d %s (now %d)", hired, a.Role(), d.Headcount)
}

func (r *reducer) VisitFire(a actions.FireAction) {
	d, ok := r.role(a.Role())
	if !ok {
		return
	}
	fired := a.Count()
	if fired > d.Headcount {
		fired = d.Headcount
	}
	if fired < 0 {
		fired = 0
	}
	d.Headcount -= fired
	r.event(model.EventWarning, "Fired %d %s (now %d)", fired, a.Role(), d.Headcount)
}

func (r *reducer) VisitDeployAgent(a actions.DeployAgentAction) {
	cfg, ok := r.e.t.Agents[a.AgentType()]
	if !ok {
		r.event(model.EventDanger, "Action ignored: unknown agent type %q", a.AgentType())
		return
	}
	c := &r.s.Company
	c.Cash = math.Max(-model.MaxMoney, c.Cash-cfg.DeploymentCost)

	agent := model.Agent{
		ID:         r.agentID(),
		Type:       a.AgentType(),
		DeployedAt: r.s.Tick,
	}
	c.Agents = append(c.Agents, agent)

	if c.Cash < 0 {
		r.event(model.EventWarning, "Deployed %s agent %s for %.0f; cash is now negative (%.0f)",
			agent.Type, agent.ID, cfg.DeploymentCost, c.Cash)
		return
	}
	r.event(model.EventSuccess, "Deployed %s agent %s for %.0f", agent.Type, agent.ID, cfg.DeploymentCost)
}

// agentID returns agent-{tick}-{count}. A decoded state may already hold that
// id; the count is bumped until it is free.
func (r *reducer) agentID() string {
	c := r.s.Company
	for n := len(c.Agents); ; n++ {
		id := fmt.Sprintf("agent-%d-%d", r.s.Tick, n)
		if _, taken := c.FindAgent(id); !taken {
			return id
		}
	}
}

func (r *reducer) VisitAutomateRole(a actions.AutomateRoleAction) {
	agent, ok := r.s.Company.FindAgent(a.AgentID())
	if !ok {
		r.event(model.EventDanger, "Automation failed: agent not found (%s)", a.AgentID())
		return
	}
	cfg, known := r.e.t.Agents[agent.Type]
	if !known || !cfg.CanAutomate(a.Role()) {
		r.event(model.EventDanger, "Automation failed: %s agent %s cannot automate %s", agent.Type, agent.ID, a.Role())
		return
	}

	d, ok := r.role(a.Role())
	if !ok {
		return
	}
	before := d.AutomationLevel
	d.AutomationLevel = math.Min(1, before+r.e.t.Rules.AutomationStep)
	delta := d.AutomationLevel - before

	// Small roles can round the reduction down to zero while automation still
	// rises.
	cut := int(math.Floor(float64(d.Headcount) * delta))
	if cut < 0 {
		cut = 0
	}
	if cut > d.Headcount {
		cut = d.Headcount
	}
	d.Headcount -= cut
	r.event(model.EventSuccess, "%s automated to %d%% by %s (-%d headcount)",
		a.Role(), percent(d.AutomationLevel), agent.ID, cut)
}

func (r *reducer) VisitAdvanceTick(actions.AdvanceTickAction) {}

// percent rounds half away from zero, so 0.125 reads as 13%.
func percent(level float64) int { return int(math.Round(level * 100)) }
