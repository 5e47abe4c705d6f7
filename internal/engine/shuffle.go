package engine

import "math/rand"

// Shuffle returns a uniformly random permutation of items using Fisher-Yates,
// swapping from the last index down to the first. items is left untouched.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
