package components

// Physique holds the body state the energy economy works on.
// Energy is unbounded above; Mass is fixed at birth.
type Physique struct {
	Mass   float32
	Energy float32
}

// Vitals tracks lifecycle counters.
type Vitals struct {
	Age            int32 // Ticks alive
	LowEnergyTicks int32 // Consecutive ticks with energy below the death threshold
	ReproCooldown  int32 // Ticks until the corgi may reproduce again
	Alive          bool
	Claimed        bool // Attempted a claim on the last tick
	HoldsTile      bool // Stood on an own-team tile after the last resolve
}
