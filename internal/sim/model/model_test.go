package model

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
)

func sampleState() State {
	n := 50000
	return State{
		Tick: 3,
		Seed: "sample",
		Company: CompanyState{
			Ticker:     "DNSZ",
			Cash:       1000,
			StockPrice: 10,
			MarketCap:  10e9,
			Roles: Roles{
				Support: RoleData{Headcount: 10, AutomationLevel: 0.5},
				Sales:   RoleData{Headcount: 2},
			},
			Agents: []Agent{{ID: "agent-0-0", Type: AgentGeneralist, DeployedAt: 0}},
		},
		Events:              []GameEvent{{Tick: 0, Type: EventInfo, Message: "hi"}},
		HeadcountAtLastTick: &n,
	}
}

func TestRolesGetAndTotal(t *testing.T) {
	var r Roles
	for i, role := range AllRoles {
		d, ok := r.Get(role)
		if !ok {
			t.Fatalf("role %s not addressable", role)
		}
		d.Headcount = i + 1
	}
	if got := r.TotalHeadcount(); got != 15 {
		t.Fatalf("TotalHeadcount=%d want 15", got)
	}
	if _, ok := r.Get("ceo"); ok {
		t.Fatalf("unknown role resolved")
	}
	if r.At("ceo") != (RoleData{}) {
		t.Fatalf("unknown role should read as zero")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := sampleState()
	s.Ending = &Ending{Type: EndingLose, Reason: ReasonBankruptcy, Tick: 3}
	s.Extra = map[string]json.RawMessage{"future": json.RawMessage(`1`)}

	c := s.Clone()
	if !reflect.DeepEqual(s, c) {
		t.Fatalf("clone differs from original")
	}
	c.Company.Agents[0].ID = "changed"
	c.Events[0].Message = "changed"
	c.Ending.Reason = "changed"
	*c.HeadcountAtLastTick = 1
	c.Extra["future"] = json.RawMessage(`2`)
	c.Company.Roles.Support.Headcount = 0

	if s.Company.Agents[0].ID != "agent-0-0" || s.Events[0].Message != "hi" ||
		s.Ending.Reason != ReasonBankruptcy || *s.HeadcountAtLastTick != 50000 ||
		string(s.Extra["future"]) != "1" || s.Company.Roles.Support.Headcount != 10 {
		t.Fatalf("mutating clone leaked into original: %+v", s)
	}
}

func TestJSON_OptionalFieldsOmitted(t *testing.T) {
	s := sampleState()
	s.HeadcountAtLastTick = nil
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, k := range []string{"ending", "bankruptTicks", "delisted", "catastrophicFailure", "headcountAtLastTick"} {
		if strings.Contains(string(b), `"`+k+`"`) {
			t.Fatalf("expected %s omitted: %s", k, b)
		}
	}
}

func TestJSON_NilSlicesWrittenAsArrays(t *testing.T) {
	s := sampleState()
	s.Events = nil
	s.Company.Agents = nil
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"events":[]`) || !strings.Contains(string(b), `"agents":[]`) {
		t.Fatalf("nil slices not written as arrays: %s", b)
	}
}

func TestJSON_UnknownFieldsPassThrough(t *testing.T) {
	b, err := json.Marshal(sampleState())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	raw := strings.TrimSuffix(string(b), "}") + `,"season":{"n":2},"mode":"hard"}`

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s.Extra) != 2 || string(s.Extra["season"]) != `{"n":2}` || string(s.Extra["mode"]) != `"hard"` {
		t.Fatalf("extra not captured: %v", s.Extra)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	var back State
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !reflect.DeepEqual(s, back) {
		t.Fatalf("pass-through round trip mismatch:\n%+v\n%+v", s, back)
	}
}

func TestJSON_ExtraNeverOverridesKnownField(t *testing.T) {
	s := sampleState()
	s.Extra = map[string]json.RawMessage{"Tick": json.RawMessage(`99`), "note": json.RawMessage(`"x"`)}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back State
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Tick != 3 {
		t.Fatalf("extra overrode tick: %d", back.Tick)
	}
	if _, ok := back.Extra["Tick"]; ok {
		t.Fatalf("known field leaked into extra")
	}
	if string(back.Extra["note"]) != `"x"` {
		t.Fatalf("extra lost: %v", back.Extra)
	}
}

func TestValidate(t *testing.T) {
	if err := sampleState().Validate(); err != nil {
		t.Fatalf("sample should be valid: %v", err)
	}

	cases := map[string]func(s *State){
		"negative headcount": func(s *State) { s.Company.Roles.Legal.Headcount = -1 },
		"automation above 1": func(s *State) { s.Company.Roles.Sales.AutomationLevel = 1.5 },
		"risk below 0":       func(s *State) { s.Hidden.AuditRisk = -0.1 },
		"negative burn":      func(s *State) { s.Company.BurnRate = -1 },
		"bad agent type":     func(s *State) { s.Company.Agents[0].Type = "oracle" },
		"duplicate agent id": func(s *State) {
			s.Company.Agents = append(s.Company.Agents, s.Company.Agents[0])
		},
		"bad event type":  func(s *State) { s.Events[0].Type = "fatal" },
		"bad ending type": func(s *State) { s.Ending = &Ending{Type: "draw"} },
		"negative tick":   func(s *State) { s.Tick = -1 },
		"headcount above bound": func(s *State) {
			s.Company.Roles.Sales.Headcount = math.MaxInt64
			s.Company.Roles.Engineering.Headcount = math.MaxInt64
		},
		"cash near float max":    func(s *State) { s.Company.Cash = 1.7e308 },
		"market cap infinite":    func(s *State) { s.Company.MarketCap = math.Inf(1) },
		"tick above bound":       func(s *State) { s.Tick = MaxTick + 1 },
		"deployedAt above bound": func(s *State) { s.Company.Agents[0].DeployedAt = MaxTick + 1 },
		"ending tick above bound": func(s *State) {
			s.Ending = &Ending{Type: EndingLose, Reason: "r", Tick: MaxTick + 1}
		},
	}
	for name, mutate := range cases {
		s := sampleState()
		mutate(&s)
		if err := s.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidate_NegativeCashAllowed(t *testing.T) {
	s := sampleState()
	s.Company.Cash = -40_000_000
	if err := s.Validate(); err != nil {
		t.Fatalf("debt should be a valid state: %v", err)
	}
}
