package config

import (
	"fmt"
	"sort"
	"strings"

	"ipdevo/internal/evo"
)

const (
	ProfileClassic  = "classic"
	ProfileOpen     = "open"
	ProfileAblation = "ablation"
)

type profilePreset struct {
	Description   string
	Inject        evo.InjectMode
	CrossoverRate float64
	MutateRate    float64
	Rounds        int
}

var profiles = map[string]profilePreset{
	ProfileClassic: {
		Description:   "reference strategies replace the last two slots",
		Inject:        evo.InjectReplace,
		CrossoverRate: 0.1,
		MutateRate:    0.01,
		Rounds:        100,
	},
	ProfileOpen: {
		Description:   "no injected reference strategies",
		Inject:        evo.InjectNone,
		CrossoverRate: 0.1,
		MutateRate:    0.01,
		Rounds:        100,
	},
	ProfileAblation: {
		Description:   "classic without mutation",
		Inject:        evo.InjectReplace,
		CrossoverRate: 0.1,
		MutateRate:    0,
		Rounds:        100,
	},
}

// ProfileNames lists the available presets.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ProfileDescription(name string) (string, bool) {
	p, ok := profiles[name]
	return p.Description, ok
}

// ApplyProfile overwrites the evolution operator settings with a preset.
func (c *Config) ApplyProfile(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	preset, ok := profiles[name]
	if !ok {
		return fmt.Errorf("unknown profile %q (known: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	c.Profile = name
	c.Evolution.Inject = string(preset.Inject)
	c.Evolution.CrossoverRate = preset.CrossoverRate
	c.Evolution.MutateRate = preset.MutateRate
	c.Evolution.RoundsPerMatch = preset.Rounds
	return nil
}
