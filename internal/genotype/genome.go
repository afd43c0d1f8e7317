package genotype

import (
	"fmt"
	"strings"
)

// MaxMemory caps the history window. The strategy table grows as 4^memory,
// so memory 8 already needs 65536 strategy bits per genome.
const MaxMemory = 8

// Genome is a lookup-table IPD strategy. The first 4^memory bits map an
// encoded history window to a move; the trailing 2*memory bits hold the
// fabricated history used before any real round has been played.
type Genome struct {
	memory int
	bits   bitset
}

// StrategyLen returns 4^memory.
func StrategyLen(memory int) int {
	return 1 << (2 * uint(memory))
}

// TableLen returns the full table length 4^memory + 2*memory and rejects
// configurations whose length is odd or exceeds MaxMemory.
func TableLen(memory int) (int, error) {
	if memory < 0 || memory > MaxMemory {
		return 0, fmt.Errorf("%w: memory must be in [0, %d], got %d", ErrInvalidMemory, MaxMemory, memory)
	}
	n := StrategyLen(memory) + 2*memory
	if n%2 != 0 {
		return 0, fmt.Errorf("%w: table length %d for memory %d is odd", ErrInvalidTable, n, memory)
	}
	return n, nil
}

// New returns a genome whose bits are each set with probability 1/2.
func New(memory int, rng Source) (*Genome, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	g, err := blank(memory)
	if err != nil {
		return nil, err
	}
	for i := 0; i < g.bits.len(); i++ {
		g.bits.set(i, rng.Intn(2) == 0)
	}
	return g, nil
}

// FromBits builds a genome from an explicit table.
func FromBits(memory int, table []bool) (*Genome, error) {
	g, err := blank(memory)
	if err != nil {
		return nil, err
	}
	if len(table) != g.bits.len() {
		return nil, fmt.Errorf("%w: memory %d needs %d bits, got %d", ErrInvalidTable, memory, g.bits.len(), len(table))
	}
	for i, v := range table {
		g.bits.set(i, v)
	}
	return g, nil
}

func filled(memory int, value bool) (*Genome, error) {
	g, err := blank(memory)
	if err != nil {
		return nil, err
	}
	for i := 0; i < g.bits.len(); i++ {
		g.bits.set(i, value)
	}
	return g, nil
}

func blank(memory int) (*Genome, error) {
	n, err := TableLen(memory)
	if err != nil {
		return nil, err
	}
	return &Genome{memory: memory, bits: newBitset(n)}, nil
}

func (g *Genome) Memory() int {
	return g.memory
}

func (g *Genome) Len() int {
	return g.bits.len()
}

func (g *Genome) Bit(i int) bool {
	return g.bits.get(i)
}

func (g *Genome) SetBit(i int, v bool) {
	g.bits.set(i, v)
}

// Bits returns a copy of the full table.
func (g *Genome) Bits() []bool {
	out := make([]bool, g.bits.len())
	for i := range out {
		out[i] = g.bits.get(i)
	}
	return out
}

// NewHistory returns an empty window sized for this genome.
func (g *Genome) NewHistory() *History {
	return NewHistory(g.memory)
}

// SeedRounds decodes the trailing seed bits as (own, opponent) pairs in
// table order.
func (g *Genome) SeedRounds() []Round {
	offset := StrategyLen(g.memory)
	rounds := make([]Round, 0, g.memory)
	for i := offset; i+1 < g.bits.len(); i += 2 {
		rounds = append(rounds, Round{Own: g.bits.get(i), Opponent: g.bits.get(i + 1)})
	}
	return rounds
}

// CooperationBias is the fraction of strategy-table entries that cooperate.
func (g *Genome) CooperationBias() float64 {
	n := StrategyLen(g.memory)
	return float64(g.bits.count(0, n)) / float64(n)
}

func (g *Genome) Clone() *Genome {
	return &Genome{memory: g.memory, bits: g.bits.clone()}
}

func (g *Genome) Equal(other *Genome) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.memory == other.memory && g.bits.equal(other.bits)
}

// String renders strategy bits and seed bits separated by '|'.
func (g *Genome) String() string {
	var b strings.Builder
	b.Grow(g.bits.len() + 1)
	offset := StrategyLen(g.memory)
	for i := 0; i < g.bits.len(); i++ {
		if i == offset {
			b.WriteByte('|')
		}
		if g.bits.get(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
