package scape

import (
	"context"
	"fmt"

	"ipdevo/internal/genotype"
)

type Fitness int

// Scape scores two genomes against each other.
type Scape interface {
	Name() string
	Evaluate(ctx context.Context, a, b *genotype.Genome) (Fitness, Fitness, error)
}

// Payoff is the per-round IPD reward table.
type Payoff struct {
	// R: both cooperate.
	CooperateGain int `json:"cooperate_gain" yaml:"cooperate_gain"`
	// T: defector against a cooperator.
	DefectGain int `json:"defect_gain" yaml:"defect_gain"`
	// S: cooperator against a defector.
	DefectedGain int `json:"defected_gain" yaml:"defected_gain"`
	// P: both defect.
	DisCooperateGain int `json:"dis_cooperate_gain" yaml:"dis_cooperate_gain"`
}

func DefaultPayoff() Payoff {
	return Payoff{
		CooperateGain:    3,
		DefectGain:       5,
		DefectedGain:     0,
		DisCooperateGain: 1,
	}
}

// Validate requires T > R > P > S, 2R > T + S and non-negative rewards.
func (p Payoff) Validate() error {
	if p.DefectedGain < 0 {
		return fmt.Errorf("payoff gains must be >= 0, got defected_gain=%d", p.DefectedGain)
	}
	if !(p.DefectGain > p.CooperateGain && p.CooperateGain > p.DisCooperateGain && p.DisCooperateGain > p.DefectedGain) {
		return fmt.Errorf("payoff must satisfy T > R > P > S, got T=%d R=%d P=%d S=%d",
			p.DefectGain, p.CooperateGain, p.DisCooperateGain, p.DefectedGain)
	}
	if 2*p.CooperateGain <= p.DefectGain+p.DefectedGain {
		return fmt.Errorf("payoff must satisfy 2R > T + S, got R=%d T=%d S=%d",
			p.CooperateGain, p.DefectGain, p.DefectedGain)
	}
	return nil
}

// Score returns the round reward for each side; true means cooperate.
func (p Payoff) Score(a, b bool) (int, int) {
	switch {
	case a && b:
		return p.CooperateGain, p.CooperateGain
	case !a && !b:
		return p.DisCooperateGain, p.DisCooperateGain
	case a:
		return p.DefectedGain, p.DefectGain
	default:
		return p.DefectGain, p.DefectedGain
	}
}
