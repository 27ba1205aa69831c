// Package rng is the seeded pseudo-random stream used by the simulation.
//
// Two generators built from the same seed string produce the same infinite
// sequence. The engine never carries a generator between steps; it derives a
// fresh one from the state's seed and tick index each week.
package rng

import (
	"math"
	"unicode/utf16"
)

// RNG is a Mulberry32 generator. Period is 2^32, which is plenty for the
// handful of draws a tick consumes. Not safe for concurrent use.
type RNG struct {
	state uint32
}

func New(seed string) *RNG {
	return &RNG{state: HashSeed(seed)}
}

// HashSeed folds seed into 32 bits with an order-sensitive rolling hash
// (hash = hash*31 + unit over UTF-16 code units, int32 wraparound) and
// returns its absolute value.
func HashSeed(seed string) uint32 {
	var h int32
	for _, u := range utf16.Encode([]rune(seed)) {
		h = h*31 + int32(u)
	}
	if h < 0 {
		// -MinInt32 does not fit in int32 but does in uint32.
		return uint32(-int64(h))
	}
	return uint32(h)
}

// Next returns a float in [0, 1).
func (r *RNG) Next() float64 {
	r.state += 0x6d2b79f5
	t := (r.state ^ (r.state >> 15)) * (1 | r.state)
	t = (t + (t^(t>>7))*(61|t)) ^ t
	return float64(t^(t>>14)) / 4294967296
}

// NextInt returns an integer in [min, max] inclusive.
func (r *RNG) NextInt(min, max int) int {
	return int(math.Floor(r.Next()*float64(max-min+1))) + min
}

// NextFloat returns a float in [min, max).
func (r *RNG) NextFloat(min, max float64) float64 {
	return float64(r.Next()*(max-min)) + min
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	return r.Next() < p
}

// Clone returns an independent generator positioned at the same point.
func (r *RNG) Clone() *RNG {
	c := *r
	return &c
}
