package genotype

import (
	"fmt"
	"sort"
	"strings"
)

const (
	StrategyAlwaysCooperate = "always_cooperate"
	StrategyAlwaysDefect    = "always_defect"
	StrategyTitForTat       = "tit_for_tat"
)

// AlwaysCooperate returns a genome whose every bit is set, so every lookup
// cooperates regardless of the seed history.
func AlwaysCooperate(memory int) (*Genome, error) {
	return filled(memory, true)
}

// AlwaysDefect returns a genome whose every bit is clear.
func AlwaysDefect(memory int) (*Genome, error) {
	return filled(memory, false)
}

// titForTatTable is indexed by 2*own+opponent; the move copies the
// opponent. The seed pair (C, C) makes the opening move cooperate.
var titForTatTable = []bool{false, true, false, true, true, true}

// TitForTat returns the memory-1 genome that opens with cooperation and then
// repeats the opponent's previous move.
func TitForTat() *Genome {
	g, err := FromBits(1, titForTatTable)
	if err != nil {
		panic(fmt.Sprintf("tit-for-tat table: %v", err))
	}
	return g
}

var strategyAliases = map[string]string{
	"cooperate":             StrategyAlwaysCooperate,
	"always-cooperate":      StrategyAlwaysCooperate,
	"allc":                  StrategyAlwaysCooperate,
	StrategyAlwaysCooperate: StrategyAlwaysCooperate,
	"defect":                StrategyAlwaysDefect,
	"always-defect":         StrategyAlwaysDefect,
	"alld":                  StrategyAlwaysDefect,
	StrategyAlwaysDefect:    StrategyAlwaysDefect,
	"tft":                   StrategyTitForTat,
	"tit-for-tat":           StrategyTitForTat,
	StrategyTitForTat:       StrategyTitForTat,
}

// CanonicalStrategy normalizes a strategy name or alias.
func CanonicalStrategy(name string) (string, bool) {
	canonical, ok := strategyAliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// StrategyNames lists the canonical special strategy names.
func StrategyNames() []string {
	seen := map[string]struct{}{}
	for _, v := range strategyAliases {
		seen[v] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds a special strategy. Tit-for-tat only exists for memory 1.
func ByName(name string, memory int) (*Genome, error) {
	canonical, ok := CanonicalStrategy(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %s)", name, strings.Join(StrategyNames(), ", "))
	}
	switch canonical {
	case StrategyAlwaysCooperate:
		return AlwaysCooperate(memory)
	case StrategyAlwaysDefect:
		return AlwaysDefect(memory)
	default:
		if memory != 1 {
			return nil, fmt.Errorf("%s requires memory 1, got %d", StrategyTitForTat, memory)
		}
		return TitForTat(), nil
	}
}
