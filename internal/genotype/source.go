package genotype

import "math/rand"

// Source is the uniform random generator used for genome construction,
// crossover, mutation and selection. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// NewSource returns a seeded Source.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}
