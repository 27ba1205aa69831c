package model

import (
	"errors"
	"fmt"
	"math"
)

// Bounds every valid state stays within. They keep integer sums and the
// market cap product far from overflow.
const (
	MaxHeadcount = 1_000_000_000_000 // per role
	MaxTick      = 1 << 53
	MaxMoney     = 1e300
)

// Validate checks the numeric and referential invariants every engine-produced
// state satisfies. It is used to reject decoded states, never to repair them.
func (s State) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if s.Tick < 0 || s.Tick > MaxTick {
		add("tick %d outside [0,%d]", s.Tick, MaxTick)
	}
	if s.BankruptTicks < 0 || s.BankruptTicks > MaxTick {
		add("bankruptTicks %d outside [0,%d]", s.BankruptTicks, MaxTick)
	}
	if p := s.HeadcountAtLastTick; p != nil && (*p < 0 || *p > len(AllRoles)*MaxHeadcount) {
		add("headcountAtLastTick %d outside [0,%d]", *p, len(AllRoles)*MaxHeadcount)
	}

	c := s.Company
	if !isFinite(c.Cash) || math.Abs(c.Cash) > MaxMoney {
		add("cash %v must be finite and within ±%g", c.Cash, MaxMoney)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"burnRate", c.BurnRate},
		{"revenue", c.Revenue},
		{"stockPrice", c.StockPrice},
		{"marketCap", c.MarketCap},
	} {
		if !isFinite(f.v) || f.v < 0 || f.v > MaxMoney {
			add("%s %v outside [0,%g]", f.name, f.v, MaxMoney)
		}
	}
	for _, role := range AllRoles {
		d := c.Roles.At(role)
		if d.Headcount < 0 || d.Headcount > MaxHeadcount {
			add("%s headcount %d outside [0,%d]", role, d.Headcount, MaxHeadcount)
		}
		if !inUnit(d.AutomationLevel) {
			add("%s automationLevel %v outside [0,1]", role, d.AutomationLevel)
		}
	}

	seen := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if !a.Type.Valid() {
			add("agent %d: unknown type %q", i, a.Type)
		}
		if a.DeployedAt < 0 || a.DeployedAt > MaxTick {
			add("agent %d: deployedAt %d outside [0,%d]", i, a.DeployedAt, MaxTick)
		}
		if _, dup := seen[a.ID]; dup {
			add("agent %d: duplicate id %q", i, a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	h := s.Hidden
	if !inUnit(h.ComplianceRisk) || !inUnit(h.AuditRisk) || !inUnit(h.AgentRisk) {
		add("hidden risk outside [0,1]: %+v", h)
	}

	for i, e := range s.Events {
		switch e.Type {
		case EventInfo, EventWarning, EventDanger, EventSuccess:
		default:
			add("event %d: unknown type %q", i, e.Type)
		}
	}
	if e := s.Ending; e != nil {
		if e.Type != EndingWin && e.Type != EndingLose {
			add("ending: unknown type %q", e.Type)
		}
		if e.Tick < 0 || e.Tick > MaxTick {
			add("ending: tick %d outside [0,%d]", e.Tick, MaxTick)
		}
	}

	return errors.Join(errs...)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func inUnit(v float64) bool { return v >= 0 && v <= 1 }
