package engine

import "onepersonleft.ai/internal/sim/model"

const DefaultSeed = "default-seed"

// NewState returns week zero for seed. An empty seed means DefaultSeed.
func (e *Engine) NewState(seed string) model.State {
	if seed == "" {
		seed = DefaultSeed
	}
	ic := e.t.Initial

	var roles model.Roles
	for _, role := range model.AllRoles {
		d, _ := roles.Get(role)
		d.Headcount = e.t.Roles[role].InitialHeadcount
	}
	total := roles.TotalHeadcount()

	return model.State{
		Tick: 0,
		Seed: seed,
		Company: model.CompanyState{
			Ticker:     e.t.Ticker,
			Cash:       ic.Cash,
			StockPrice: ic.StockPrice,
			MarketCap:  ic.MarketCap,
			Roles:      roles,
			Agents:     []model.Agent{},
		},
		Events: []model.GameEvent{
			{Tick: 0, Type: model.EventInfo, Message: ic.Welcome},
		},
		HeadcountAtLastTick: &total,
	}
}
