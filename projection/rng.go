package projection

import "math/rand"

// DefaultRandomSeed seeds the projections when the caller does not supply a
// random source, so that default runs are reproducible.
const DefaultRandomSeed int64 = 42

// newRandomSource returns injected when it is set, otherwise a fresh
// generator seeded with seed. A *rand.Rand must not be shared across
// concurrent projections.
func newRandomSource(seed int64, injected *rand.Rand) *rand.Rand {
	if injected != nil {
		return injected
	}
	return rand.New(rand.NewSource(seed))
}
