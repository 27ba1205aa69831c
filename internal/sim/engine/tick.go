package engine

import (
	"fmt"
	"math"

	"onepersonleft.ai/internal/sim/model"
	"onepersonleft.ai/internal/sim/rng"
)

// Event probabilities per week, scaled by the matching risk.
const (
	complianceIncidentRate = 0.02
	auditIncidentRate      = 0.02
	agentAnomalyRate       = 0.01

	delistingThreshold = 0.7
	delistingChance    = 0.05

	catastropheThreshold = 0.8
	catastropheChance    = 0.03
)

// Tick advances s by one week. It is total: zero headcount, zero cash and no
// agents are all handled by the formulas' own floors and clamps.
func (e *Engine) Tick(s model.State) model.State {
	next := s.Clone()
	r := rng.New(fmt.Sprintf("%s-tick-%d", s.Seed, s.Tick))
	nextTick := s.Tick + 1
	if s.Tick >= model.MaxTick {
		nextTick = model.MaxTick
	}
	rules := e.t.Rules

	var events []model.GameEvent
	emit := func(t model.EventType, msg string) {
		events = append(events, model.GameEvent{Tick: nextTick, Type: t, Message: msg})
	}

	// Finances.
	burn, revenue := e.financials(s.Company)
	burn, revenue = math.Min(burn, model.MaxMoney), math.Min(revenue, model.MaxMoney)
	weeklyBurn := burn / rules.WeeksPerYear
	weeklyRevenue := revenue / rules.WeeksPerYear
	cash := math.Min(model.MaxMoney, math.Max(0, s.Company.Cash+(weeklyRevenue-weeklyBurn)))
	if cash == 0 && s.Company.Cash > 0 {
		emit(model.EventDanger, "BANKRUPT! Company has run out of cash.")
	}

	// Market.
	total := s.Company.Roles.TotalHeadcount()
	var cashPerEmployee, revenuePerEmployee float64
	if total > 0 {
		cashPerEmployee = cash / float64(total)
		revenuePerEmployee = revenue / float64(total)
	}
	base := (cashPerEmployee/1000 + revenuePerEmployee/100) * 0.5
	volatility := r.NextFloat(-0.05, 0.05)
	maxPrice := math.Min(model.MaxMoney, model.MaxMoney/rules.ShareCount)
	price := math.Min(maxPrice, math.Max(rules.MinStockPrice, base*(1+volatility)))

	// Risk.
	hidden := e.risks(s.Company, r)

	// Incidents. Each consumes exactly one draw whichever branch runs.
	if r.Chance(hidden.ComplianceRisk * complianceIncidentRate) {
		emit(model.EventWarning, "Compliance issue detected. Regulatory scrutiny increased.")
	}
	if hidden.ComplianceRisk > delistingThreshold && hidden.AuditRisk > delistingThreshold {
		if r.Chance(delistingChance) {
			emit(model.EventDanger, "DELISTED! Regulators and auditors have pulled the stock from the exchange.")
			next.Delisted = true
		}
	} else if r.Chance(hidden.AuditRisk * auditIncidentRate) {
		emit(model.EventWarning, "Legal audit triggered. Additional oversight required.")
	}
	if hidden.AgentRisk > catastropheThreshold {
		if r.Chance(catastropheChance) {
			emit(model.EventDanger, "CATASTROPHIC AI FAILURE! Autonomous agents have taken down core operations.")
			next.CatastrophicFailure = true
		}
	} else if r.Chance(hidden.AgentRisk * agentAnomalyRate) {
		emit(model.EventDanger, "AI agent anomaly detected. System behavior under review.")
	}

	// Headcount since last week. Unknown for states from older tokens.
	if prev := s.HeadcountAtLastTick; prev != nil && *prev != total {
		change, dir := total-*prev, "increased"
		if change < 0 {
			change, dir = -change, "decreased"
		}
		emit(model.EventInfo, fmt.Sprintf("Week %d: Headcount %s by %d", nextTick, dir, change))
	}
	next.HeadcountAtLastTick = &total

	if cash <= 0 {
		if next.BankruptTicks < model.MaxTick {
			next.BankruptTicks++
		}
	} else {
		next.BankruptTicks = 0
	}

	next.Tick = nextTick
	next.Company.Cash = cash
	next.Company.BurnRate = burn
	next.Company.Revenue = revenue
	next.Company.StockPrice = price
	next.Company.MarketCap = math.Min(model.MaxMoney, float64(price*rules.ShareCount))
	next.Hidden = hidden
	next.Events = append(next.Events, events...)
	if next.Events == nil {
		next.Events = []model.GameEvent{}
	}
	if next.Company.Agents == nil {
		next.Company.Agents = []model.Agent{}
	}

	if next.Ending == nil {
		next.Ending = e.ending(next)
	}
	return next
}

// financials returns annual burn and revenue.
//
// Products are converted with float64() before they are summed. The explicit
// conversion forbids fused multiply-add, so every architecture rounds alike.
func (e *Engine) financials(c model.CompanyState) (burn, revenue float64) {
	for _, role := range model.AllRoles {
		d := c.Roles.At(role)
		cfg := e.t.Roles[role]
		hc := float64(d.Headcount)
		discount := 1 - float64(d.AutomationLevel*0.3)
		burn += float64(cfg.AnnualCostPerEmployee * hc * discount)
		if role == model.RoleSales {
			bonus := 1 + float64(d.AutomationLevel*0.5)
			revenue += float64(cfg.RevenuePerEmployee * hc * bonus)
		}
	}
	for _, a := range c.Agents {
		burn += e.t.Agents[a.Type].AnnualCost
	}
	return burn, revenue
}

// risks draws two jitters of ±0.1 then one of ±0.05, in that order.
func (e *Engine) risks(c model.CompanyState, r *rng.RNG) model.HiddenMetrics {
	ref := e.t.Rules.RiskReferenceHeadcount
	staffing := func(d model.RoleData) float64 {
		return 1 - float64(d.Headcount)/ref + float64(d.AutomationLevel*0.3)
	}
	compliance := clamp01(staffing(c.Roles.Compliance) + r.NextFloat(-0.1, 0.1))
	audit := clamp01(staffing(c.Roles.Legal) + r.NextFloat(-0.1, 0.1))

	var automation float64
	for _, role := range model.AllRoles {
		automation += c.Roles.At(role).AutomationLevel
	}
	automation /= float64(len(model.AllRoles))

	var unreliability float64
	if n := len(c.Agents); n > 0 {
		for _, a := range c.Agents {
			unreliability += 1 - e.t.Agents[a.Type].Reliability
		}
		unreliability /= float64(n)
	}
	agent := clamp01(float64(automation*automation) + float64(unreliability*0.5) + r.NextFloat(-0.05, 0.05))

	return model.HiddenMetrics{ComplianceRisk: compliance, AuditRisk: audit, AgentRisk: agent}
}

// ending evaluates the terminal conditions in priority order against the
// fully updated state.
func (e *Engine) ending(s model.State) *model.Ending {
	lose := func(reason string) *model.Ending {
		return &model.Ending{Type: model.EndingLose, Reason: reason, Tick: s.Tick}
	}
	switch {
	case s.BankruptTicks >= e.t.Rules.BankruptcyWeeks:
		return lose(model.ReasonBankruptcy)
	case s.Delisted:
		return lose(model.ReasonDelisted)
	case s.CatastrophicFailure:
		return lose(model.ReasonCatastrophic)
	case s.Company.Roles.TotalHeadcount() == 1 && s.Company.Cash > 0:
		return &model.Ending{Type: model.EndingWin, Reason: model.ReasonOnePersonLeft, Tick: s.Tick}
	}
	return nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
