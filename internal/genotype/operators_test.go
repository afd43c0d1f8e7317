package genotype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossoverAtSwapsOnlyTail(t *testing.T) {
	a, err := AlwaysCooperate(1)
	require.NoError(t, err)
	b, err := AlwaysDefect(1)
	require.NoError(t, err)

	require.NoError(t, CrossoverAt(a, b, 2))

	assert.Equal(t, []bool{true, true, false, false, false, false}, a.Bits())
	assert.Equal(t, []bool{false, false, true, true, true, true}, b.Bits())
}

func TestCrossoverDrawsCutFromOneToLenMinusOne(t *testing.T) {
	a, err := AlwaysCooperate(1)
	require.NoError(t, err)
	b, err := AlwaysDefect(1)
	require.NoError(t, err)

	// Intn(5) == 0 maps to cut 1, never cut 0
	require.NoError(t, Crossover(a, b, &scriptedSource{ints: []int{0}}))
	assert.True(t, a.Bit(0))
	assert.False(t, b.Bit(0))
	for i := 1; i < a.Len(); i++ {
		assert.False(t, a.Bit(i), "bit %d", i)
		assert.True(t, b.Bit(i), "bit %d", i)
	}

	// Intn(5) == 4 maps to cut 5, the last bit only
	a, _ = AlwaysCooperate(1)
	b, _ = AlwaysDefect(1)
	require.NoError(t, Crossover(a, b, &scriptedSource{ints: []int{4}}))
	assert.Equal(t, []bool{true, true, true, true, true, false}, a.Bits())
}

func TestCrossoverAlwaysExchangesSomething(t *testing.T) {
	rng := NewSource(3)
	for i := 0; i < 100; i++ {
		a, _ := AlwaysCooperate(2)
		b, _ := AlwaysDefect(2)
		require.NoError(t, Crossover(a, b, rng))
		assert.False(t, a.Bit(a.Len()-1))
		assert.True(t, a.Bit(0))
	}
}

func TestCrossoverRejectsMismatchedGenomes(t *testing.T) {
	a, _ := AlwaysCooperate(1)
	b, _ := AlwaysCooperate(2)
	require.ErrorIs(t, Crossover(a, b, NewSource(1)), ErrLengthMismatch)
	require.Error(t, CrossoverAt(a, a.Clone(), 7))
}

func TestMutateZeroRateIsIdentity(t *testing.T) {
	g, err := New(3, NewSource(5))
	require.NoError(t, err)
	before := g.Clone()

	flips, err := g.Mutate(0, NewSource(6))
	require.NoError(t, err)
	assert.Zero(t, flips)
	assert.True(t, g.Equal(before))
}

func TestMutateFullRateFlipsEveryBit(t *testing.T) {
	g, err := New(2, NewSource(5))
	require.NoError(t, err)
	before := g.Bits()

	flips, err := g.Mutate(1, NewSource(6))
	require.NoError(t, err)
	assert.Equal(t, g.Len(), flips)
	for i, v := range g.Bits() {
		assert.Equal(t, !before[i], v, "bit %d", i)
	}
}

func TestMutateIsPerBitBernoulli(t *testing.T) {
	g, _ := AlwaysDefect(1)
	src := &scriptedSource{floats: []float64{0.1, 0.9, 0.49, 0.5, 0.0, 0.99}}

	flips, err := g.Mutate(0.5, src)
	require.NoError(t, err)
	assert.Equal(t, 3, flips)
	assert.Equal(t, []bool{true, false, true, false, true, false}, g.Bits())
}

func TestMutateRejectsInvalidRate(t *testing.T) {
	g, _ := AlwaysDefect(1)
	for _, rate := range []float64{-0.1, 1.1, math.NaN()} {
		_, err := g.Mutate(rate, NewSource(1))
		require.ErrorIs(t, err, ErrInvalidRate)
	}
}

func TestSpecialStrategies(t *testing.T) {
	coop, err := ByName("cooperate", 3)
	require.NoError(t, err)
	for _, v := range coop.Bits() {
		assert.True(t, v)
	}

	defect, err := ByName("ALLD", 3)
	require.NoError(t, err)
	for _, v := range defect.Bits() {
		assert.False(t, v)
	}

	tft, err := ByName("tft", 1)
	require.NoError(t, err)
	assert.True(t, tft.Equal(TitForTat()))

	_, err = ByName("tft", 2)
	require.Error(t, err)
	_, err = ByName("grim", 1)
	require.Error(t, err)

	assert.Equal(t, []string{StrategyAlwaysCooperate, StrategyAlwaysDefect, StrategyTitForTat}, StrategyNames())
}

func TestTitForTatCopiesOpponent(t *testing.T) {
	g := TitForTat()
	h := g.NewHistory()
	assert.True(t, g.Decide(h), "opens with cooperation")
	assert.Equal(t, []Round{{Own: true, Opponent: true}}, h.Rounds())

	h.Push(true, false)
	assert.False(t, g.Decide(h))
	h.Push(false, true)
	assert.True(t, g.Decide(h))
	h.Push(false, false)
	assert.False(t, g.Decide(h))
}
