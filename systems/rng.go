package systems

import "math/rand/v2"

// Stream separates random draws made for different purposes with the same key.
type Stream uint64

const (
	StreamGenesis Stream = iota + 1
	StreamSelection
	StreamBreed
	StreamSpawn
)

// KeyedRand returns a generator determined only by (seed, stream, tick, id).
// Each operation draws from its own generator so results do not depend on
// the order in which corgis are processed.
func KeyedRand(seed uint64, stream Stream, tick uint64, id uint32) *rand.Rand {
	hi := splitmix64(seed ^ splitmix64(uint64(stream)))
	lo := splitmix64(tick<<32 | uint64(id))
	return rand.New(rand.NewPCG(hi, lo))
}

// splitmix64 is the SplitMix64 finaliser.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
