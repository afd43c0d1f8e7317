package genotype

import "fmt"

// Crossover swaps the tails of a and b in place after a cut drawn uniformly
// from [1, len-1]. Tables of length 1 or less are left untouched.
func Crossover(a, b *Genome, rng Source) error {
	if err := sameShape(a, b); err != nil {
		return err
	}
	n := a.Len()
	if n <= 1 {
		return nil
	}
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	return CrossoverAt(a, b, 1+rng.Intn(n-1))
}

// CrossoverAt swaps bits [cut, len) between a and b.
func CrossoverAt(a, b *Genome, cut int) error {
	if err := sameShape(a, b); err != nil {
		return err
	}
	if cut < 0 || cut > a.Len() {
		return fmt.Errorf("crossover cut %d out of range [0, %d]", cut, a.Len())
	}
	for i := cut; i < a.Len(); i++ {
		av, bv := a.bits.get(i), b.bits.get(i)
		a.bits.set(i, bv)
		b.bits.set(i, av)
	}
	return nil
}

func sameShape(a, b *Genome) error {
	if a == nil || b == nil {
		return fmt.Errorf("crossover requires two genomes")
	}
	if a.Len() != b.Len() || a.memory != b.memory {
		return fmt.Errorf("%w: memory %d/%d length %d/%d", ErrLengthMismatch, a.memory, b.memory, a.Len(), b.Len())
	}
	return nil
}
