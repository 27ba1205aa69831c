package engine

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"onepersonleft.ai/internal/sim/actions"
	"onepersonleft.ai/internal/sim/model"
)

func onlyRole(role model.Role, headcount int) model.Roles {
	var r model.Roles
	d, _ := r.Get(role)
	d.Headcount = headcount
	return r
}

func TestTick_InitialBurnIsPerRoleSum(t *testing.T) {
	s := Tick(NewState("seed1"))
	want := 15000*80000.0 + 10000*150000.0 + 15000*200000.0 + 5000*180000.0 + 5000*160000.0
	if s.Company.BurnRate != want {
		t.Fatalf("burnRate=%v want %v", s.Company.BurnRate, want)
	}
	if s.Company.Revenue != 10000*500000.0 {
		t.Fatalf("revenue=%v", s.Company.Revenue)
	}
	if s.Tick != 1 {
		t.Fatalf("tick=%d", s.Tick)
	}
}

func TestTick_SeedOneGolden(t *testing.T) {
	s := Tick(NewState("seed1"))
	c := s.Company
	if c.Cash != 39953846153.84615 || c.StockPrice != 868.586265902626 || c.MarketCap != 868586265902.626 {
		t.Fatalf("company=%+v", c)
	}
	want := model.HiddenMetrics{
		ComplianceRisk: 0.061034846818074584,
		AuditRisk:      0.0666005363687873,
		AgentRisk:      0.02674740673974156,
	}
	if s.Hidden != want {
		t.Fatalf("hidden=%+v want %+v", s.Hidden, want)
	}
	if len(s.Events) != 1 {
		t.Fatalf("unexpected events: %+v", s.Events)
	}
}

func TestTick_CashDeltaIsWeekly(t *testing.T) {
	s0 := NewState("default-seed")
	s1 := Tick(s0)
	want := s1.Company.Revenue/52 - s1.Company.BurnRate/52
	if got := s1.Company.Cash - s0.Company.Cash; math.Abs(got-want) > 1 {
		t.Fatalf("cash delta=%v want %v", got, want)
	}
}

func TestTick_OnePersonLeftWins(t *testing.T) {
	s := NewState("seed1")
	s.Company.Roles = onlyRole(model.RoleSupport, 1)
	s.Company.Cash = 1_000_000
	hc := 1
	s.HeadcountAtLastTick = &hc

	s = Tick(s)
	want := &model.Ending{Type: model.EndingWin, Reason: model.ReasonOnePersonLeft, Tick: 1}
	if !reflect.DeepEqual(s.Ending, want) {
		t.Fatalf("ending=%+v", s.Ending)
	}
	if s.Company.Cash != 998461.5384615385 {
		t.Fatalf("cash=%v", s.Company.Cash)
	}
}

func TestTick_BankruptcyAfterFourWeeks(t *testing.T) {
	s := NewState("seed1")
	s.Company.Cash = 0
	for i := 1; i <= 3; i++ {
		s = Tick(s)
		if s.BankruptTicks != i || s.Ending != nil {
			t.Fatalf("week %d: bankruptTicks=%d ending=%+v", i, s.BankruptTicks, s.Ending)
		}
	}
	s = Tick(s)
	want := &model.Ending{Type: model.EndingLose, Reason: model.ReasonBankruptcy, Tick: 4}
	if s.BankruptTicks != 4 || !reflect.DeepEqual(s.Ending, want) {
		t.Fatalf("bankruptTicks=%d ending=%+v", s.BankruptTicks, s.Ending)
	}
}

func TestTick_BankruptEventOnTransitionOnly(t *testing.T) {
	s := NewState("seed1")
	s.Company.Cash = 1000
	s = Tick(s)
	if s.Company.Cash != 0 {
		t.Fatalf("cash=%v", s.Company.Cash)
	}
	if e := lastEvent(s); e.Type != model.EventDanger || !strings.HasPrefix(e.Message, "BANKRUPT") || e.Tick != 1 {
		t.Fatalf("event=%+v", e)
	}
	n := len(s.Events)
	s = Tick(s)
	if len(s.Events) != n {
		t.Fatalf("BANKRUPT should not repeat while cash stays at zero: %+v", s.Events[n:])
	}
}

func TestTick_BankruptCounterResets(t *testing.T) {
	s := NewState("seed1")
	s.BankruptTicks = 3
	s = Tick(s)
	if s.BankruptTicks != 0 {
		t.Fatalf("bankruptTicks=%d", s.BankruptTicks)
	}
}

func TestTick_DebtIsFlooredAtZero(t *testing.T) {
	s := NewState("seed1")
	s.Company.Cash = -5_000_000_000
	s = Tick(s)
	if s.Company.Cash != 0 || s.BankruptTicks != 1 {
		t.Fatalf("cash=%v bankruptTicks=%d", s.Company.Cash, s.BankruptTicks)
	}
}

func TestTick_ClampsMoneyToStateBounds(t *testing.T) {
	s := NewState("rich")
	s.Company.Cash = model.MaxMoney
	s.Company.Roles = onlyRole(model.RoleSales, 1)
	for i := 0; i < 3; i++ {
		s = Tick(s)
		c := s.Company
		if math.IsInf(c.MarketCap, 0) || c.MarketCap > model.MaxMoney || c.StockPrice > model.MaxMoney || c.Cash > model.MaxMoney {
			t.Fatalf("week %d: company=%+v", s.Tick, c)
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("week %d: %v", s.Tick, err)
		}
	}
}

func TestTick_SaturatesAtMaxTick(t *testing.T) {
	s := NewState("old")
	s.Tick = model.MaxTick
	s.BankruptTicks = model.MaxTick
	s.Company.Cash = 0
	s = Tick(s)
	if s.Tick != model.MaxTick || s.BankruptTicks != model.MaxTick {
		t.Fatalf("tick=%d bankruptTicks=%d", s.Tick, s.BankruptTicks)
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestTick_HeadcountDeltaEvent(t *testing.T) {
	must := act(t)
	s := NewState("seed1")
	s = Reduce(s, must(actions.Fire(model.RoleSales, 300)))
	s = Reduce(s, must(actions.Hire(model.RoleLegal, 100)))
	s = Tick(s)
	e := lastEvent(s)
	if e.Type != model.EventInfo || e.Message != "Week 1: Headcount decreased by 200" || e.Tick != 1 {
		t.Fatalf("event=%+v", e)
	}
	if *s.HeadcountAtLastTick != 49_800 {
		t.Fatalf("headcountAtLastTick=%d", *s.HeadcountAtLastTick)
	}

	n := len(s.Events)
	s = Tick(s)
	for _, e := range s.Events[n:] {
		if strings.Contains(e.Message, "Headcount") {
			t.Fatalf("no change, no delta event: %+v", e)
		}
	}
}

func TestTick_HeadcountDeltaSuppressedWhenUnknown(t *testing.T) {
	must := act(t)
	s := NewState("seed1")
	s.HeadcountAtLastTick = nil
	s = Reduce(s, must(actions.Fire(model.RoleSales, 300)))
	s = Tick(s)
	for _, e := range s.Events {
		if strings.Contains(e.Message, "Headcount") {
			t.Fatalf("unexpected delta event: %+v", e)
		}
	}
	if s.HeadcountAtLastTick == nil || *s.HeadcountAtLastTick != 49_700 {
		t.Fatalf("headcountAtLastTick not recorded")
	}
}

func TestTick_Delisting(t *testing.T) {
	must := act(t)
	s := NewState("chaos")
	s = Reduce(s, must(actions.Fire(model.RoleLegal, 5000)))
	s = Reduce(s, must(actions.Fire(model.RoleCompliance, 5000)))
	for i := 0; i < 200 && s.Ending == nil; i++ {
		s = Tick(s)
	}
	want := &model.Ending{Type: model.EndingLose, Reason: model.ReasonDelisted, Tick: 16}
	if !s.Delisted || s.CatastrophicFailure || !reflect.DeepEqual(s.Ending, want) {
		t.Fatalf("delisted=%v catastrophic=%v ending=%+v", s.Delisted, s.CatastrophicFailure, s.Ending)
	}
	if e := lastEvent(s); e.Type != model.EventDanger || e.Tick != 16 {
		t.Fatalf("event=%+v", e)
	}
}

func TestTick_CatastrophicFailure(t *testing.T) {
	must := act(t)
	s := NewState("chaos")
	for _, role := range model.AllRoles {
		s = Reduce(s, must(actions.SetAutomation(role, 1)))
	}
	for i := 0; i < 200 && s.Ending == nil; i++ {
		s = Tick(s)
	}
	want := &model.Ending{Type: model.EndingLose, Reason: model.ReasonCatastrophic, Tick: 5}
	if !s.CatastrophicFailure || s.Delisted || !reflect.DeepEqual(s.Ending, want) {
		t.Fatalf("delisted=%v catastrophic=%v ending=%+v", s.Delisted, s.CatastrophicFailure, s.Ending)
	}
}

func TestTick_EndingPriority(t *testing.T) {
	s := NewState("seed1")
	s.Company.Cash = 0
	s.BankruptTicks = 3
	s.Delisted = true
	s.CatastrophicFailure = true
	s = Tick(s)
	if s.Ending == nil || s.Ending.Reason != model.ReasonBankruptcy {
		t.Fatalf("bankruptcy outranks flags: %+v", s.Ending)
	}

	s = NewState("seed1")
	s.Company.Roles = onlyRole(model.RoleSales, 1)
	s.Delisted = true
	s = Tick(s)
	if s.Ending == nil || s.Ending.Reason != model.ReasonDelisted {
		t.Fatalf("flags outrank the win: %+v", s.Ending)
	}
}

func TestTick_EndingIsSticky(t *testing.T) {
	s := NewState("seed1")
	s.Company.Roles = onlyRole(model.RoleSupport, 1)
	s.Company.Cash = 1_000_000
	s = Tick(s)
	if s.Ending == nil {
		t.Fatalf("expected an ending")
	}
	want := *s.Ending
	for i := 0; i < 20; i++ {
		s = Tick(s)
	}
	if *s.Ending != want {
		t.Fatalf("ending changed: %+v -> %+v", want, *s.Ending)
	}
	if s.Tick != 21 {
		t.Fatalf("ticks still advance after the ending, tick=%d", s.Tick)
	}
}

func TestTick_ZeroHeadcountIsTotal(t *testing.T) {
	s := NewState("empty")
	s.Company.Roles = model.Roles{}
	for i := 0; i < 10; i++ {
		s = Tick(s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("invalid state: %v", err)
	}
	if s.Company.StockPrice != 1 {
		t.Fatalf("price should floor at 1, got %v", s.Company.StockPrice)
	}
}

func TestTick_DoesNotMutateInput(t *testing.T) {
	s := Reduce(NewState("seed1"), act(t)(actions.DeployAgent(model.AgentEngineer)))
	before := s.Clone()
	_ = Tick(s)
	if !reflect.DeepEqual(s, before) {
		t.Fatalf("Tick mutated its input")
	}
}

func TestInvariants_LongInterleavedRun(t *testing.T) {
	must := act(t)
	s := NewState("invariants")
	for i := 0; i < 150; i++ {
		role := model.AllRoles[i%len(model.AllRoles)]
		switch i % 6 {
		case 0:
			s = Reduce(s, must(actions.Hire(role, float64(i*37))))
		case 1:
			s = Reduce(s, must(actions.Fire(role, float64(i*91))))
		case 2:
			s = Reduce(s, must(actions.DeployAgent(model.AllAgentTypes[i%len(model.AllAgentTypes)])))
		case 3:
			if n := len(s.Company.Agents); n > 0 {
				s = Reduce(s, must(actions.AutomateRole(role, s.Company.Agents[i%n].ID)))
			}
		case 4:
			s = Reduce(s, must(actions.SetAutomation(role, float64(i%13)/10-0.1)))
		}
		s = Tick(s)
		if err := s.Validate(); err != nil {
			t.Fatalf("tick %d: %v", s.Tick, err)
		}
		if s.Company.Cash < 0 || math.IsNaN(s.Company.Cash) {
			t.Fatalf("tick %d: cash=%v after tick", s.Tick, s.Company.Cash)
		}
	}
}

func TestDeterminism_SameSequenceSameState(t *testing.T) {
	run := func() model.State {
		must := act(t)
		s := NewState("golden")
		s = Reduce(s, must(actions.DeployAgent(model.AgentGeneralist)))
		s = Reduce(s, must(actions.AutomateRole(model.RoleSupport, "agent-0-0")))
		s = Reduce(s, must(actions.Fire(model.RoleSales, 2500)))
		for i := 0; i < 5; i++ {
			s = Tick(s)
		}
		s = Reduce(s, must(actions.SetAutomation(model.RoleLegal, 0.5)))
		s = Reduce(s, must(actions.DeployAgent(model.AgentCompliance)))
		for i := 0; i < 5; i++ {
			s = Tick(s)
		}
		return s
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same sequence diverged")
	}
	if Digest(a) != Digest(b) {
		t.Fatalf("digest mismatch: %s vs %s", Digest(a), Digest(b))
	}

	c := a.Company
	if a.Tick != 10 || c.Cash != 39350557692.3077 || c.BurnRate != 6752600000 || c.Revenue != 3750000000 {
		t.Fatalf("company=%+v", c)
	}
	if c.StockPrice != 875.0485143085823 {
		t.Fatalf("stockPrice=%v", c.StockPrice)
	}
	want := model.HiddenMetrics{
		ComplianceRisk: 0.04562132605351507,
		AuditRisk:      0.0722895543090999,
		AgentRisk:      0.0841156713809818,
	}
	if a.Hidden != want {
		t.Fatalf("hidden=%+v", a.Hidden)
	}
	if len(a.Events) != 7 || a.Events[4].Message != "Week 1: Headcount decreased by 4000" {
		t.Fatalf("events=%+v", a.Events)
	}
}

func TestSeedIndependence(t *testing.T) {
	a, b := NewState("a"), NewState("b")
	for i := 0; i < 10; i++ {
		a, b = Tick(a), Tick(b)
	}
	if a.Company.StockPrice == b.Company.StockPrice && a.Company.Cash == b.Company.Cash && len(a.Events) == len(b.Events) {
		t.Fatalf("seeds a and b did not diverge")
	}
	if a.Seed != "a" || b.Seed != "b" {
		t.Fatalf("seed mutated")
	}
}
