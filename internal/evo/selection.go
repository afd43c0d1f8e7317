package evo

import (
	"fmt"

	"ipdevo/internal/genotype"
)

// Selector picks the index of a surviving genome from per-genome fitness.
// total is the precomputed sum of fitness.
type Selector interface {
	Name() string
	Pick(rng genotype.Source, fitness []int, total int) (int, error)
}

// RouletteSelector samples proportionally to fitness, with replacement.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Pick(rng genotype.Source, fitness []int, total int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if total <= 0 {
		return 0, ErrZeroFitness
	}
	point := rng.Intn(total)
	for i, f := range fitness {
		if point < f {
			return i, nil
		}
		point -= f
	}
	return 0, fmt.Errorf("roulette point exceeds fitness mass %d", total)
}

// TournamentSelector samples Size genomes uniformly and keeps the fittest,
// preferring the earliest draw on ties.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Pick(rng genotype.Source, fitness []int, total int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(fitness) == 0 {
		return 0, fmt.Errorf("tournament requires a non-empty population")
	}
	if total <= 0 {
		return 0, ErrZeroFitness
	}
	size := s.Size
	if size <= 0 {
		size = 3
	}
	if size > len(fitness) {
		size = len(fitness)
	}

	best := rng.Intn(len(fitness))
	for i := 1; i < size; i++ {
		candidate := rng.Intn(len(fitness))
		if fitness[candidate] > fitness[best] {
			best = candidate
		}
	}
	return best, nil
}

// SelectorFromName resolves a selection strategy by name.
func SelectorFromName(name string, tournamentSize int) (Selector, error) {
	switch name {
	case "", "roulette":
		return RouletteSelector{}, nil
	case "tournament":
		return TournamentSelector{Size: tournamentSize}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %s", name)
	}
}
