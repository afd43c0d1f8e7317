package evo

import (
	"fmt"
	"strings"

	"ipdevo/internal/genotype"
)

// InjectMode controls whether an always-cooperate and an always-defect
// genome join every new generation.
type InjectMode string

const (
	// InjectNone fills every slot by selection.
	InjectNone InjectMode = "none"
	// InjectReplace selects N-2 genomes and appends the two references,
	// keeping the population size constant.
	InjectReplace InjectMode = "replace"
	// InjectAdditive selects N genomes and appends the two references, so
	// the population grows by two each generation.
	InjectAdditive InjectMode = "additive"
)

func ParseInjectMode(raw string) (InjectMode, error) {
	switch InjectMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", InjectNone, "off", "false":
		return InjectNone, nil
	case InjectReplace, "true", "on":
		return InjectReplace, nil
	case InjectAdditive:
		return InjectAdditive, nil
	default:
		return "", fmt.Errorf("unsupported inject mode: %s", raw)
	}
}

// Reserved returns the number of slots taken from selection.
func (m InjectMode) Reserved() int {
	if m == InjectReplace {
		return 2
	}
	return 0
}

func (m InjectMode) Enabled() bool {
	return m == InjectReplace || m == InjectAdditive
}

func referenceGenomes(memory int) ([]*genotype.Genome, error) {
	coop, err := genotype.AlwaysCooperate(memory)
	if err != nil {
		return nil, err
	}
	defect, err := genotype.AlwaysDefect(memory)
	if err != nil {
		return nil, err
	}
	return []*genotype.Genome{coop, defect}, nil
}
