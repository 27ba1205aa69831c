package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"onepersonleft.ai/internal/sim/model"
)

type Tuning struct {
	Ticker  string         `yaml:"ticker"`
	Initial InitialCompany `yaml:"initial"`

	Roles  map[model.Role]RoleConfig       `yaml:"roles"`
	Agents map[model.AgentType]AgentConfig `yaml:"agents"`

	Rules Rules `yaml:"rules"`
}

type InitialCompany struct {
	Cash       float64 `yaml:"cash"`
	StockPrice float64 `yaml:"stock_price"`
	MarketCap  float64 `yaml:"market_cap"`
	Welcome    string  `yaml:"welcome"`
}

type RoleConfig struct {
	AnnualCostPerEmployee float64 `yaml:"annual_cost_per_employee"`
	RevenuePerEmployee    float64 `yaml:"revenue_per_employee"`
	InitialHeadcount      int     `yaml:"initial_headcount"`
}

type AgentConfig struct {
	DeploymentCost float64      `yaml:"deployment_cost"`
	AnnualCost     float64      `yaml:"annual_cost"`
	Reliability    float64      `yaml:"reliability"`
	Specialization []model.Role `yaml:"specialization"`
}

// CanAutomate reports whether the agent type may automate role.
func (c AgentConfig) CanAutomate(role model.Role) bool {
	for _, r := range c.Specialization {
		if r == role {
			return true
		}
	}
	return false
}

type Rules struct {
	WeeksPerYear           float64 `yaml:"weeks_per_year"`
	ShareCount             float64 `yaml:"share_count"`
	MinStockPrice          float64 `yaml:"min_stock_price"`
	AutomationStep         float64 `yaml:"automation_step"`
	BankruptcyWeeks        int     `yaml:"bankruptcy_weeks"`
	RiskReferenceHeadcount float64 `yaml:"risk_reference_headcount"`
	MaxHeadcount           int     `yaml:"max_headcount"`
}

func Defaults() Tuning {
	return Tuning{
		Ticker: "DNSZ",
		Initial: InitialCompany{
			Cash:       40_000_000_000,
			StockPrice: 666,
			MarketCap:  666_000_000_000,
			Welcome:    "Simulation initialized. Welcome to One Person Left.",
		},
		Roles: map[model.Role]RoleConfig{
			model.RoleSupport:     {AnnualCostPerEmployee: 80_000, InitialHeadcount: 15_000},
			model.RoleSales:       {AnnualCostPerEmployee: 150_000, RevenuePerEmployee: 500_000, InitialHeadcount: 10_000},
			model.RoleEngineering: {AnnualCostPerEmployee: 200_000, InitialHeadcount: 15_000},
			model.RoleLegal:       {AnnualCostPerEmployee: 180_000, InitialHeadcount: 5_000},
			model.RoleCompliance:  {AnnualCostPerEmployee: 160_000, InitialHeadcount: 5_000},
		},
		Agents: map[model.AgentType]AgentConfig{
			model.AgentGeneralist: {
				DeploymentCost: 10_000_000,
				AnnualCost:     5_000_000,
				Reliability:    0.7,
				Specialization: []model.Role{model.RoleSupport, model.RoleSales, model.RoleLegal, model.RoleCompliance},
			},
			model.AgentSupport: {
				DeploymentCost: 5_000_000,
				AnnualCost:     2_000_000,
				Reliability:    0.8,
				Specialization: []model.Role{model.RoleSupport},
			},
			model.AgentEngineer: {
				DeploymentCost: 100_000_000,
				AnnualCost:     20_000_000,
				Reliability:    0.6,
				Specialization: []model.Role{model.RoleEngineering},
			},
			model.AgentCompliance: {
				DeploymentCost: 50_000_000,
				AnnualCost:     10_000_000,
				Reliability:    0.9,
				Specialization: []model.Role{model.RoleCompliance, model.RoleLegal},
			},
		},
		Rules: Rules{
			WeeksPerYear:           52,
			ShareCount:             1_000_000_000,
			MinStockPrice:          1,
			AutomationStep:         0.1,
			BankruptcyWeeks:        4,
			RiskReferenceHeadcount: 5000,
			MaxHeadcount:           1_000_000_000_000,
		},
	}
}

// Clone returns a copy that shares no map or slice with t.
func (t Tuning) Clone() Tuning {
	c := t
	c.Roles = make(map[model.Role]RoleConfig, len(t.Roles))
	for k, v := range t.Roles {
		c.Roles[k] = v
	}
	c.Agents = make(map[model.AgentType]AgentConfig, len(t.Agents))
	for k, v := range t.Agents {
		v.Specialization = append([]model.Role(nil), v.Specialization...)
		c.Agents[k] = v
	}
	return c
}

// Load overlays the YAML file at path on Defaults and validates the result.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	for _, role := range model.AllRoles {
		rc, ok := t.Roles[role]
		if !ok {
			errs = append(errs, fmt.Errorf("roles: missing %s", role))
			continue
		}
		if rc.AnnualCostPerEmployee < 0 || rc.RevenuePerEmployee < 0 || rc.InitialHeadcount < 0 {
			errs = append(errs, fmt.Errorf("roles.%s: values must be non-negative", role))
		}
	}
	for role := range t.Roles {
		if !role.Valid() {
			errs = append(errs, fmt.Errorf("roles: unknown role %q", role))
		}
	}
	for _, at := range model.AllAgentTypes {
		ac, ok := t.Agents[at]
		if !ok {
			errs = append(errs, fmt.Errorf("agents: missing %s", at))
			continue
		}
		if ac.DeploymentCost < 0 || ac.AnnualCost < 0 {
			errs = append(errs, fmt.Errorf("agents.%s: costs must be non-negative", at))
		}
		if ac.Reliability < 0 || ac.Reliability > 1 {
			errs = append(errs, fmt.Errorf("agents.%s: reliability %v outside [0,1]", at, ac.Reliability))
		}
		for _, r := range ac.Specialization {
			if !r.Valid() {
				errs = append(errs, fmt.Errorf("agents.%s: unknown specialization %q", at, r))
			}
		}
	}
	for at := range t.Agents {
		if !at.Valid() {
			errs = append(errs, fmt.Errorf("agents: unknown agent type %q", at))
		}
	}

	r := t.Rules
	if r.WeeksPerYear <= 0 {
		errs = append(errs, errors.New("rules.weeks_per_year must be > 0"))
	}
	if r.ShareCount <= 0 {
		errs = append(errs, errors.New("rules.share_count must be > 0"))
	}
	if r.MinStockPrice < 0 {
		errs = append(errs, errors.New("rules.min_stock_price must be >= 0"))
	}
	if r.AutomationStep <= 0 || r.AutomationStep > 1 {
		errs = append(errs, errors.New("rules.automation_step must be in (0,1]"))
	}
	if r.BankruptcyWeeks <= 0 {
		errs = append(errs, errors.New("rules.bankruptcy_weeks must be > 0"))
	}
	if r.RiskReferenceHeadcount <= 0 {
		errs = append(errs, errors.New("rules.risk_reference_headcount must be > 0"))
	}
	if r.MaxHeadcount <= 0 || r.MaxHeadcount > model.MaxHeadcount {
		errs = append(errs, fmt.Errorf("rules.max_headcount must be in (0,%d]", model.MaxHeadcount))
	}
	if t.Initial.Cash < 0 || t.Initial.StockPrice < 0 || t.Initial.MarketCap < 0 {
		errs = append(errs, errors.New("initial: values must be non-negative"))
	}
	if t.Initial.Cash > model.MaxMoney || t.Initial.StockPrice > model.MaxMoney || t.Initial.MarketCap > model.MaxMoney {
		errs = append(errs, fmt.Errorf("initial: values must be <= %g", model.MaxMoney))
	}
	return errors.Join(errs...)
}
