// Package rng implements the deterministic linear congruential generator
// shared by the drum, arpeggiator, and playback tick functions so that a
// recorded command stream replays identically. Grounded on the identical
// next_random()/rng_state stepping found in drum_tick.rs, arpeggiator_tick.rs,
// and playback.rs.
package rng

const (
	multiplier uint64 = 6364136223846793005
	increment  uint64 = 1442695040888963407
)

// State is the LCG's mutable seed, passed by pointer through the tick
// functions exactly as the Rust engine threads a single &mut u64 through
// one tick's probability, humanize, and arpeggiator-direction draws.
type State struct {
	s uint64
}

func NewState(seed uint64) *State {
	return &State{s: seed}
}

// Next advances the generator one step and returns a float32 in [0, 1),
// using the top bits of the new state for the usual LCG quality reasons.
func (st *State) Next() float32 {
	st.s = st.s*multiplier + increment
	top := st.s >> 40
	return float32(top) / float32(1<<24)
}

// NextIndex returns a value in [0, n) for n > 0, used by the arpeggiator's
// Random direction to pick the next sequence index.
func (st *State) NextIndex(n int) int {
	if n <= 0 {
		return 0
	}
	st.s = st.s*multiplier + increment
	top := st.s >> 33
	return int(top) % n
}
