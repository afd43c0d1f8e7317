package scape

import (
	"context"
	"fmt"

	"ipdevo/internal/genotype"
)

// RoundResult records one played round.
type RoundResult struct {
	MoveA  bool `json:"move_a"`
	MoveB  bool `json:"move_b"`
	ScoreA int  `json:"score_a"`
	ScoreB int  `json:"score_b"`
}

// Trace is the round-by-round record of a match.
type Trace []RoundResult

// CooperationRates returns the fraction of rounds each side cooperated.
func (t Trace) CooperationRates() (float64, float64) {
	if len(t) == 0 {
		return 0, 0
	}
	a, b := 0, 0
	for _, r := range t {
		if r.MoveA {
			a++
		}
		if r.MoveB {
			b++
		}
	}
	return float64(a) / float64(len(t)), float64(b) / float64(len(t))
}

// Play runs an IPD match of the given number of rounds and returns the
// cumulative scores. Genomes are only read.
func Play(rounds int, a, b *genotype.Genome, payoff Payoff) (int, int) {
	scoreA, scoreB, _ := play(rounds, a, b, payoff, false)
	return scoreA, scoreB
}

// PlayTrace is Play that also records every round.
func PlayTrace(rounds int, a, b *genotype.Genome, payoff Payoff) (int, int, Trace) {
	return play(rounds, a, b, payoff, true)
}

func play(rounds int, a, b *genotype.Genome, payoff Payoff, record bool) (int, int, Trace) {
	var trace Trace
	if record && rounds > 0 {
		trace = make(Trace, 0, rounds)
	}
	historyA := a.NewHistory()
	historyB := b.NewHistory()
	scoreA, scoreB := 0, 0
	for i := 0; i < rounds; i++ {
		moveA := a.Decide(historyA)
		moveB := b.Decide(historyB)

		gainA, gainB := payoff.Score(moveA, moveB)
		scoreA += gainA
		scoreB += gainB

		historyA.Push(moveA, moveB)
		historyB.Push(moveB, moveA)
		if record {
			trace = append(trace, RoundResult{MoveA: moveA, MoveB: moveB, ScoreA: gainA, ScoreB: gainB})
		}
	}
	return scoreA, scoreB, trace
}

// IPD is the Scape that plays a fixed-length match.
type IPD struct {
	Rounds int
	Payoff Payoff
}

func NewIPD(rounds int, payoff Payoff) (IPD, error) {
	if rounds <= 0 {
		return IPD{}, fmt.Errorf("rounds per match must be > 0")
	}
	if err := payoff.Validate(); err != nil {
		return IPD{}, err
	}
	return IPD{Rounds: rounds, Payoff: payoff}, nil
}

func (IPD) Name() string {
	return "ipd"
}

func (s IPD) Evaluate(ctx context.Context, a, b *genotype.Genome) (Fitness, Fitness, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if a == nil || b == nil {
		return 0, 0, fmt.Errorf("match requires two genomes")
	}
	scoreA, scoreB := Play(s.Rounds, a, b, s.Payoff)
	return Fitness(scoreA), Fitness(scoreB), nil
}
