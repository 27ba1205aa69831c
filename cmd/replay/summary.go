package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"onepersonleft.ai/internal/sim/engine"
	"onepersonleft.ai/internal/sim/model"
)

func money(v float64) string {
	s := humanize.Commaf(math.Round(math.Abs(v)*100) / 100)
	if v < 0 {
		return "-$" + s
	}
	return "$" + s
}

// writeSummary prints st for a terminal, with the last n events.
func writeSummary(w io.Writer, st model.State, n int) {
	c := st.Company
	fmt.Fprintf(w, "week %d  seed=%q  digest=%s\n", st.Tick, st.Seed, engine.Digest(st))
	fmt.Fprintf(w, "  cash       %s\n", money(c.Cash))
	fmt.Fprintf(w, "  burn       %s/yr\n", money(c.BurnRate))
	fmt.Fprintf(w, "  revenue    %s/yr\n", money(c.Revenue))
	fmt.Fprintf(w, "  stock      %s %s (market cap %s)\n", c.Ticker, money(c.StockPrice), money(c.MarketCap))

	roles := make([]string, 0, len(model.AllRoles))
	for _, role := range model.AllRoles {
		d := c.Roles.At(role)
		roles = append(roles, fmt.Sprintf("%s %s@%d%%", role, humanize.Comma(int64(d.Headcount)), int(math.Round(d.AutomationLevel*100))))
	}
	fmt.Fprintf(w, "  headcount  %s (%s)\n", humanize.Comma(int64(c.Roles.TotalHeadcount())), strings.Join(roles, ", "))
	fmt.Fprintf(w, "  agents     %d\n", len(c.Agents))
	fmt.Fprintf(w, "  risk       compliance=%.3f audit=%.3f agent=%.3f\n", st.Hidden.ComplianceRisk, st.Hidden.AuditRisk, st.Hidden.AgentRisk)
	if st.Ending != nil {
		fmt.Fprintf(w, "  ending     %s (%s) in week %d\n", st.Ending.Type, st.Ending.Reason, st.Ending.Tick)
	} else {
		fmt.Fprintf(w, "  ending     none\n")
	}

	events := st.Events
	if n >= 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	for _, ev := range events {
		fmt.Fprintf(w, "  [%3d] %-7s %s\n", ev.Tick, ev.Type, ev.Message)
	}
}
