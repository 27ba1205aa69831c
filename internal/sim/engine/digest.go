package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"

	"onepersonleft.ai/internal/sim/model"
)

// Digest returns a hex sha256 over every field of s in a fixed order, floats
// by their bits and pass-through fields by their raw bytes.
func Digest(s model.State) string {
	d := digester{h: sha256.New()}

	d.i64(int64(s.Tick))
	d.str(s.Seed)

	c := s.Company
	d.str(c.Ticker)
	d.f64(c.Cash)
	d.f64(c.BurnRate)
	d.f64(c.Revenue)
	d.f64(c.StockPrice)
	d.f64(c.MarketCap)
	for _, role := range model.AllRoles {
		rd := c.Roles.At(role)
		d.i64(int64(rd.Headcount))
		d.f64(rd.AutomationLevel)
	}
	d.i64(int64(len(c.Agents)))
	for _, a := range c.Agents {
		d.str(a.ID)
		d.str(string(a.Type))
		d.i64(int64(a.DeployedAt))
	}

	d.f64(s.Hidden.ComplianceRisk)
	d.f64(s.Hidden.AuditRisk)
	d.f64(s.Hidden.AgentRisk)

	d.i64(int64(len(s.Events)))
	for _, e := range s.Events {
		d.i64(int64(e.Tick))
		d.str(string(e.Type))
		d.str(e.Message)
	}

	if s.Ending != nil {
		d.raw(1)
		d.str(string(s.Ending.Type))
		d.str(s.Ending.Reason)
		d.i64(int64(s.Ending.Tick))
	} else {
		d.raw(0)
	}
	d.i64(int64(s.BankruptTicks))
	d.flag(s.Delisted)
	d.flag(s.CatastrophicFailure)
	if s.HeadcountAtLastTick != nil {
		d.raw(1)
		d.i64(int64(*s.HeadcountAtLastTick))
	} else {
		d.raw(0)
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d.i64(int64(len(keys)))
	for _, k := range keys {
		d.str(k)
		d.str(string(s.Extra[k]))
	}

	return hex.EncodeToString(d.h.Sum(nil))
}

type digester struct {
	h   hash.Hash
	tmp [8]byte
}

func (d *digester) u64(v uint64) {
	binary.LittleEndian.PutUint64(d.tmp[:], v)
	d.h.Write(d.tmp[:])
}

func (d *digester) i64(v int64)   { d.u64(uint64(v)) }
func (d *digester) f64(v float64) { d.u64(math.Float64bits(v)) }
func (d *digester) raw(b byte)    { d.h.Write([]byte{b}) }

func (d *digester) flag(b bool) {
	if b {
		d.raw(1)
		return
	}
	d.raw(0)
}

// str is length-prefixed so adjacent strings cannot alias.
func (d *digester) str(s string) {
	d.u64(uint64(len(s)))
	d.h.Write([]byte(s))
}
