package genotype

import (
	"fmt"
	"math"
)

// Mutate flips every bit independently with probability rate and returns the
// number of flipped bits.
func (g *Genome) Mutate(rate float64, rng Source) (int, error) {
	if err := ValidateRate("mutate rate", rate); err != nil {
		return 0, err
	}
	if rate == 0 {
		return 0, nil
	}
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	flips := 0
	for i := 0; i < g.bits.len(); i++ {
		if rng.Float64() < rate {
			g.bits.flip(i)
			flips++
		}
	}
	return flips, nil
}

// ValidateRate checks that a probability lies in [0, 1].
func ValidateRate(name string, rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidRate, name, rate)
	}
	return nil
}
