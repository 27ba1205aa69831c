// Package model holds the simulation state shape and its closed vocabularies.
//
// State values are treated as immutable snapshots: the engine never writes to
// a State it received, it clones and returns a new one.
package model

import "encoding/json"

type Role string

const (
	RoleSupport     Role = "support"
	RoleSales       Role = "sales"
	RoleEngineering Role = "engineering"
	RoleLegal       Role = "legal"
	RoleCompliance  Role = "compliance"
)

// AllRoles is the fixed iteration order used everywhere a per-role sum is
// computed. Changing it changes float summation order.
var AllRoles = []Role{RoleSupport, RoleSales, RoleEngineering, RoleLegal, RoleCompliance}

func (r Role) Valid() bool {
	switch r {
	case RoleSupport, RoleSales, RoleEngineering, RoleLegal, RoleCompliance:
		return true
	}
	return false
}

type AgentType string

const (
	AgentGeneralist AgentType = "generalist"
	AgentSupport    AgentType = "support"
	AgentEngineer   AgentType = "engineer"
	AgentCompliance AgentType = "compliance"
)

var AllAgentTypes = []AgentType{AgentGeneralist, AgentSupport, AgentEngineer, AgentCompliance}

func (t AgentType) Valid() bool {
	switch t {
	case AgentGeneralist, AgentSupport, AgentEngineer, AgentCompliance:
		return true
	}
	return false
}

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarning EventType = "warning"
	EventDanger  EventType = "danger"
	EventSuccess EventType = "success"
)

type EndingType string

const (
	EndingWin  EndingType = "win"
	EndingLose EndingType = "lose"
)

// Reasons known to this build. Decoded endings may carry others.
const (
	ReasonBankruptcy    = "bankruptcy"
	ReasonDelisted      = "delisted"
	ReasonCatastrophic  = "catastrophic"
	ReasonOnePersonLeft = "one_person_left"
)

type RoleData struct {
	Headcount       int     `json:"headcount" jsonschema:"required"`
	AutomationLevel float64 `json:"automationLevel" jsonschema:"required"`
}

// Roles has one field per Role so the key set is closed and always complete.
type Roles struct {
	Support     RoleData `json:"support" jsonschema:"required"`
	Sales       RoleData `json:"sales" jsonschema:"required"`
	Engineering RoleData `json:"engineering" jsonschema:"required"`
	Legal       RoleData `json:"legal" jsonschema:"required"`
	Compliance  RoleData `json:"compliance" jsonschema:"required"`
}

// Get returns a pointer into r for role, or false for an unknown role.
func (r *Roles) Get(role Role) (*RoleData, bool) {
	switch role {
	case RoleSupport:
		return &r.Support, true
	case RoleSales:
		return &r.Sales, true
	case RoleEngineering:
		return &r.Engineering, true
	case RoleLegal:
		return &r.Legal, true
	case RoleCompliance:
		return &r.Compliance, true
	}
	return nil, false
}

// At returns the data for role; unknown roles read as zero.
func (r Roles) At(role Role) RoleData {
	if d, ok := r.Get(role); ok {
		return *d
	}
	return RoleData{}
}

func (r Roles) TotalHeadcount() int {
	n := 0
	for _, role := range AllRoles {
		n += r.At(role).Headcount
	}
	return n
}

type Agent struct {
	ID         string    `json:"id" jsonschema:"required"`
	Type       AgentType `json:"type" jsonschema:"required,enum=generalist,enum=support,enum=engineer,enum=compliance"`
	DeployedAt int       `json:"deployedAt" jsonschema:"required"`
}

type CompanyState struct {
	Ticker     string  `json:"ticker" jsonschema:"required"`
	Cash       float64 `json:"cash" jsonschema:"required"`
	BurnRate   float64 `json:"burnRate" jsonschema:"required"` // annual
	Revenue    float64 `json:"revenue" jsonschema:"required"`  // annual
	StockPrice float64 `json:"stockPrice" jsonschema:"required"`
	MarketCap  float64 `json:"marketCap" jsonschema:"required"`
	Roles      Roles   `json:"roles" jsonschema:"required"`
	Agents     []Agent `json:"agents" jsonschema:"required"`
}

type HiddenMetrics struct {
	ComplianceRisk float64 `json:"complianceRisk" jsonschema:"required"`
	AuditRisk      float64 `json:"auditRisk" jsonschema:"required"`
	AgentRisk      float64 `json:"agentRisk" jsonschema:"required"`
}

type GameEvent struct {
	Tick    int       `json:"tick" jsonschema:"required"`
	Type    EventType `json:"type" jsonschema:"required,enum=info,enum=warning,enum=danger,enum=success"`
	Message string    `json:"message" jsonschema:"required"`
}

type Ending struct {
	Type   EndingType `json:"type" jsonschema:"required,enum=win,enum=lose"`
	Reason string     `json:"reason" jsonschema:"required"`
	Tick   int        `json:"tick" jsonschema:"required"`
}

// State is one week's snapshot of the whole simulation.
//
// Ending, BankruptTicks, Delisted, CatastrophicFailure and HeadcountAtLastTick
// were added after the first release and are optional on the wire; absent
// values decode as their zero value. Unknown top-level fields survive a
// decode/encode cycle through Extra.
type State struct {
	Tick    int           `json:"tick" jsonschema:"required"`
	Seed    string        `json:"seed" jsonschema:"required"`
	Company CompanyState  `json:"company" jsonschema:"required"`
	Hidden  HiddenMetrics `json:"hidden" jsonschema:"required"`
	Events  []GameEvent   `json:"events"`

	Ending              *Ending `json:"ending,omitempty"`
	BankruptTicks       int     `json:"bankruptTicks,omitempty"`
	Delisted            bool    `json:"delisted,omitempty"`
	CatastrophicFailure bool    `json:"catastrophicFailure,omitempty"`
	HeadcountAtLastTick *int    `json:"headcountAtLastTick,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Clone returns a deep copy; no slice, map or pointer is shared with s.
func (s State) Clone() State {
	c := s
	c.Company.Agents = cloneSlice(s.Company.Agents)
	c.Events = cloneSlice(s.Events)
	if s.Ending != nil {
		e := *s.Ending
		c.Ending = &e
	}
	if s.HeadcountAtLastTick != nil {
		n := *s.HeadcountAtLastTick
		c.HeadcountAtLastTick = &n
	}
	if s.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// FindAgent returns the agent with id, if deployed.
func (c CompanyState) FindAgent(id string) (Agent, bool) {
	for _, a := range c.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
