package scape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipdevo/internal/genotype"
)

func must(t *testing.T) func(*genotype.Genome, error) *genotype.Genome {
	return func(g *genotype.Genome, err error) *genotype.Genome {
		t.Helper()
		require.NoError(t, err)
		return g
	}
}

func TestDefaultPayoffSatisfiesDilemma(t *testing.T) {
	p := DefaultPayoff()
	require.NoError(t, p.Validate())

	tests := []struct {
		name  string
		a, b  bool
		wantA int
		wantB int
	}{
		{"mutual cooperation", true, true, 3, 3},
		{"mutual defection", false, false, 1, 1},
		{"a defects", false, true, 5, 0},
		{"b defects", true, false, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := p.Score(tt.a, tt.b)
			assert.Equal(t, tt.wantA, a)
			assert.Equal(t, tt.wantB, b)
		})
	}
}

func TestPayoffValidateRejectsBrokenRanking(t *testing.T) {
	require.Error(t, Payoff{CooperateGain: 5, DefectGain: 3, DefectedGain: 0, DisCooperateGain: 1}.Validate())
	require.Error(t, Payoff{CooperateGain: 3, DefectGain: 7, DefectedGain: 0, DisCooperateGain: 1}.Validate())
	require.Error(t, Payoff{CooperateGain: 3, DefectGain: 5, DefectedGain: -1, DisCooperateGain: 1}.Validate())
}

func TestPlayConstantStrategies(t *testing.T) {
	const rounds = 100
	p := DefaultPayoff()
	for memory := 1; memory <= 3; memory++ {
		coop := must(t)(genotype.AlwaysCooperate(memory))
		defect := must(t)(genotype.AlwaysDefect(memory))

		a, b := Play(rounds, coop, coop.Clone(), p)
		assert.Equal(t, rounds*p.CooperateGain, a)
		assert.Equal(t, rounds*p.CooperateGain, b)

		a, b = Play(rounds, defect, defect.Clone(), p)
		assert.Equal(t, rounds*p.DisCooperateGain, a)
		assert.Equal(t, rounds*p.DisCooperateGain, b)

		a, b = Play(rounds, coop, defect, p)
		assert.Equal(t, rounds*p.DefectedGain, a)
		assert.Equal(t, rounds*p.DefectGain, b)
	}
}

func TestTitForTatAgainstItselfCooperates(t *testing.T) {
	p := DefaultPayoff()
	tft := genotype.TitForTat()
	coop := must(t)(genotype.AlwaysCooperate(1))

	a, b, trace := PlayTrace(50, tft, tft.Clone(), p)
	ca, cb := Play(50, coop, coop.Clone(), p)
	assert.Equal(t, ca, a)
	assert.Equal(t, cb, b)
	rateA, rateB := trace.CooperationRates()
	assert.Equal(t, 1.0, rateA)
	assert.Equal(t, 1.0, rateB)
}

func TestTitForTatAgainstDefectorLosesOnlyFirstRound(t *testing.T) {
	p := DefaultPayoff()
	tft := genotype.TitForTat()
	defect := must(t)(genotype.AlwaysDefect(1))

	a, b, trace := PlayTrace(10, tft, defect, p)
	require.Len(t, trace, 10)
	assert.True(t, trace[0].MoveA)
	for _, r := range trace[1:] {
		assert.False(t, r.MoveA)
	}
	assert.Equal(t, p.DefectedGain+9*p.DisCooperateGain, a)
	assert.Equal(t, p.DefectGain+9*p.DisCooperateGain, b)
}

func TestPlayHistoriesArePerspectiveSpecific(t *testing.T) {
	// memory 1 genome that cooperates only after (own D, opp C): index 1.
	table := []bool{false, true, false, false, false, false}
	exploiter := must(t)(genotype.FromBits(1, table))
	coop := must(t)(genotype.AlwaysCooperate(1))

	// round 1: seed (D,D) -> defect; round 2 sees (D,C) -> cooperate;
	// round 3 sees (C,C) -> defect.
	_, _, trace := PlayTrace(3, exploiter, coop, DefaultPayoff())
	assert.Equal(t, []bool{false, true, false}, []bool{trace[0].MoveA, trace[1].MoveA, trace[2].MoveA})
}

func TestPlayIsDeterministicAndReadOnly(t *testing.T) {
	rng := genotype.NewSource(11)
	a := must(t)(genotype.New(3, rng))
	b := must(t)(genotype.New(3, rng))
	beforeA, beforeB := a.Clone(), b.Clone()

	a1, b1 := Play(100, a, b, DefaultPayoff())
	a2, b2 := Play(100, a, b, DefaultPayoff())
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.True(t, a.Equal(beforeA))
	assert.True(t, b.Equal(beforeB))
}

func TestPlayZeroRounds(t *testing.T) {
	coop := must(t)(genotype.AlwaysCooperate(1))
	a, b, trace := PlayTrace(0, coop, coop, DefaultPayoff())
	assert.Zero(t, a)
	assert.Zero(t, b)
	assert.Empty(t, trace)
}

func TestIPDScapeEvaluate(t *testing.T) {
	_, err := NewIPD(0, DefaultPayoff())
	require.Error(t, err)

	s, err := NewIPD(20, DefaultPayoff())
	require.NoError(t, err)
	assert.Equal(t, "ipd", s.Name())

	coop := must(t)(genotype.AlwaysCooperate(2))
	defect := must(t)(genotype.AlwaysDefect(2))
	fa, fb, err := s.Evaluate(context.Background(), coop, defect)
	require.NoError(t, err)
	assert.Equal(t, Fitness(0), fa)
	assert.Equal(t, Fitness(100), fb)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = s.Evaluate(ctx, coop, defect)
	require.ErrorIs(t, err, context.Canceled)
}
