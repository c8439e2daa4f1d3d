package neural

// Input channel indices. The order is fixed; genomes depend on it.
const (
	InEnergy = iota
	InMass
	InTileNeutral
	InTileOwn
	InTileEnemy
	InFrontier
	InAllies
	InEnemies

	BrainInputs
)

// Output slot indices. Slots beyond OutClaim are ignored by the action interpreter.
const (
	OutMoveX = iota
	OutMoveY
	OutClaim

	BrainOutputs
)

// SensoryInputs holds one corgi's normalized perception for a tick.
// Every field is in [0,1] and finite once produced by the perception system.
type SensoryInputs struct {
	// Self state
	Energy float32 // energy / max_energy
	Mass   float32 // (mass - min_mass) / (max_mass - min_mass)

	// Tile under the corgi, one-hot
	TileNeutral float32
	TileOwn     float32
	TileEnemy   float32

	// Fraction of the 8 neighbouring tiles not owned by the corgi's team
	Frontier float32

	// Saturating neighbour counts within sensors.neighbor_radius
	Allies  float32
	Enemies float32
}

// ToInputs writes the inputs into dst in channel order and returns dst[:BrainInputs].
func (s *SensoryInputs) ToInputs(dst []float32) []float32 {
	dst = dst[:BrainInputs]
	dst[InEnergy] = s.Energy
	dst[InMass] = s.Mass
	dst[InTileNeutral] = s.TileNeutral
	dst[InTileOwn] = s.TileOwn
	dst[InTileEnemy] = s.TileEnemy
	dst[InFrontier] = s.Frontier
	dst[InAllies] = s.Allies
	dst[InEnemies] = s.Enemies
	return dst
}
