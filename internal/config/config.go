// Package config loads simulator settings: defaults, then an optional named
// profile, then a YAML or JSON file, then IPD_* environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ipdevo/internal/evo"
	"ipdevo/internal/genotype"
	"ipdevo/internal/logging"
	"ipdevo/internal/scape"
	"ipdevo/internal/storage"
)

type Config struct {
	Profile   string          `json:"profile" yaml:"profile"`
	Evolution EvolutionConfig `json:"evolution" yaml:"evolution"`
	Payoff    scape.Payoff    `json:"payoff" yaml:"payoff"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Artifacts ArtifactsConfig `json:"artifacts" yaml:"artifacts"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

type EvolutionConfig struct {
	PopulationSize int     `json:"population_size" yaml:"population_size"`
	Memory         int     `json:"memory" yaml:"memory"`
	Generations    int     `json:"generations" yaml:"generations"`
	RoundsPerMatch int     `json:"rounds_per_match" yaml:"rounds_per_match"`
	CrossoverRate  float64 `json:"crossover_rate" yaml:"crossover_rate"`
	MutateRate     float64 `json:"mutate_rate" yaml:"mutate_rate"`
	Inject         string  `json:"inject" yaml:"inject"`
	Selection      string  `json:"selection" yaml:"selection"`
	TournamentSize int     `json:"tournament_size" yaml:"tournament_size"`
	// Seed 0 asks the caller to pick and record a fresh seed.
	Seed    int64 `json:"seed" yaml:"seed"`
	Workers int   `json:"workers" yaml:"workers"`
}

type StorageConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	Path string `json:"path" yaml:"path"`
}

type ArtifactsConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default reproduces the classic driver: 1000 genomes of memory 3 for 200
// generations.
func Default() Config {
	return Config{
		Profile: ProfileClassic,
		Evolution: EvolutionConfig{
			PopulationSize: 1000,
			Memory:         3,
			Generations:    200,
			RoundsPerMatch: 100,
			CrossoverRate:  0.1,
			MutateRate:     0.01,
			Inject:         string(evo.InjectReplace),
			Selection:      "roulette",
			TournamentSize: 3,
			Workers:        1,
		},
		Payoff: scape.DefaultPayoff(),
		Storage: StorageConfig{
			Kind: storage.DefaultStoreKind,
			Path: "ipdevo.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// Load builds a Config from defaults, the named profile, the file at path
// and the environment, then validates it. A missing file is not an error.
func Load(path, profile string) (Config, error) {
	cfg := Default()

	if profile != "" {
		if err := cfg.ApplyProfile(profile); err != nil {
			return cfg, err
		}
	}

	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadConfigFromEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

// loadConfigFromEnv applies IPD_* overrides. Malformed numbers are reported
// rather than ignored so a typo cannot silently run the defaults.
func loadConfigFromEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"IPD_POPULATION", &cfg.Evolution.PopulationSize},
		{"IPD_MEMORY", &cfg.Evolution.Memory},
		{"IPD_GENERATIONS", &cfg.Evolution.Generations},
		{"IPD_ROUNDS", &cfg.Evolution.RoundsPerMatch},
		{"IPD_WORKERS", &cfg.Evolution.Workers},
	}
	for _, item := range ints {
		if v := os.Getenv(item.key); v != "" {
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", item.key, err)
			}
			*item.dst = i
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"IPD_CROSSOVER_RATE", &cfg.Evolution.CrossoverRate},
		{"IPD_MUTATE_RATE", &cfg.Evolution.MutateRate},
	}
	for _, item := range floats {
		if v := os.Getenv(item.key); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%s: %w", item.key, err)
			}
			*item.dst = f
		}
	}

	if v := os.Getenv("IPD_SEED"); v != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("IPD_SEED: %w", err)
		}
		cfg.Evolution.Seed = seed
	}
	if v := os.Getenv("IPD_INJECT"); v != "" {
		cfg.Evolution.Inject = v
	}
	if v := os.Getenv("IPD_STORE"); v != "" {
		cfg.Storage.Kind = v
	}
	if v := os.Getenv("IPD_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("IPD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.Evolution.Generations < 1 {
		return fmt.Errorf("generations must be >= 1")
	}
	if c.Evolution.TournamentSize < 0 {
		return fmt.Errorf("tournament_size must be >= 0")
	}
	if _, err := evo.SelectorFromName(c.Evolution.Selection, c.Evolution.TournamentSize); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch logging.Format(c.Logging.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}
	switch c.Storage.Kind {
	case "", "memory":
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Storage.Kind)
	}
	_, err := c.ToEvoConfig()
	return err
}

// ToEvoConfig converts the evolution and payoff sections into an engine
// configuration and validates it.
func (c Config) ToEvoConfig() (evo.Config, error) {
	inject, err := evo.ParseInjectMode(c.Evolution.Inject)
	if err != nil {
		return evo.Config{}, err
	}
	selector, err := evo.SelectorFromName(c.Evolution.Selection, c.Evolution.TournamentSize)
	if err != nil {
		return evo.Config{}, err
	}
	if _, err := genotype.TableLen(c.Evolution.Memory); err != nil {
		return evo.Config{}, err
	}
	out := evo.Config{
		PopulationSize: c.Evolution.PopulationSize,
		Memory:         c.Evolution.Memory,
		RoundsPerMatch: c.Evolution.RoundsPerMatch,
		CrossoverRate:  c.Evolution.CrossoverRate,
		MutateRate:     c.Evolution.MutateRate,
		Inject:         inject,
		Payoff:         c.Payoff,
		Workers:        c.Evolution.Workers,
		Selector:       selector,
	}
	if err := out.Validate(); err != nil {
		return evo.Config{}, err
	}
	return out, nil
}
