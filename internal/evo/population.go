package evo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ipdevo/internal/genotype"
	"ipdevo/internal/logging"
	"ipdevo/internal/scape"
)

// Config parameterizes one evolution engine.
type Config struct {
	PopulationSize int
	Memory         int
	RoundsPerMatch int
	CrossoverRate  float64
	MutateRate     float64
	Inject         InjectMode
	Payoff         scape.Payoff
	// Workers > 1 evaluates matches concurrently. Pairing and results are
	// index-stable, so seeded runs reproduce regardless of this value.
	Workers int
	// Scape overrides the IPD match built from RoundsPerMatch and Payoff.
	Scape scape.Scape
	// Selector defaults to RouletteSelector.
	Selector Selector
}

func DefaultConfig() Config {
	return Config{
		PopulationSize: 1000,
		Memory:         3,
		RoundsPerMatch: 100,
		CrossoverRate:  0.1,
		MutateRate:     0.01,
		Inject:         InjectReplace,
		Payoff:         scape.DefaultPayoff(),
		Workers:        1,
	}
}

func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("population size must be >= 2")
	}
	if c.PopulationSize%2 != 0 {
		return fmt.Errorf("population size must be even, got %d", c.PopulationSize)
	}
	if c.Inject.Reserved() > 0 && c.PopulationSize < 2+c.Inject.Reserved() {
		return fmt.Errorf("population size must be >= %d with inject mode %s", 2+c.Inject.Reserved(), c.Inject)
	}
	if _, err := genotype.TableLen(c.Memory); err != nil {
		return err
	}
	if c.Scape == nil && c.RoundsPerMatch <= 0 {
		return fmt.Errorf("rounds per match must be > 0")
	}
	if err := genotype.ValidateRate("crossover rate", c.CrossoverRate); err != nil {
		return err
	}
	if err := genotype.ValidateRate("mutate rate", c.MutateRate); err != nil {
		return err
	}
	switch c.Inject {
	case InjectNone, InjectReplace, InjectAdditive:
	default:
		return fmt.Errorf("unsupported inject mode: %s", c.Inject)
	}
	if c.Scape == nil {
		if err := c.Payoff.Validate(); err != nil {
			return err
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	return nil
}

type Option func(*Population)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Population holds one generation of genomes and advances it.
type Population struct {
	cfg      Config
	rng      genotype.Source
	scape    scape.Scape
	selector Selector
	logger   *slog.Logger

	generation []*genotype.Genome
	fitness    []int
	best       *genotype.Genome
	index      int
}

// NewPopulation seeds PopulationSize random genomes.
func NewPopulation(cfg Config, rng genotype.Source, opts ...Option) (*Population, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	initial := make([]*genotype.Genome, cfg.PopulationSize)
	for i := range initial {
		g, err := genotype.New(cfg.Memory, rng)
		if err != nil {
			return nil, err
		}
		initial[i] = g
	}
	return newPopulation(cfg, rng, initial, opts)
}

// NewPopulationFrom starts from caller-provided genomes, for experiments that
// seed hand-built strategies. The genomes are copied; the population size is
// taken from len(initial).
func NewPopulationFrom(cfg Config, rng genotype.Source, initial []*genotype.Genome, opts ...Option) (*Population, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	cfg.PopulationSize = len(initial)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	copied := make([]*genotype.Genome, len(initial))
	for i, g := range initial {
		if g == nil {
			return nil, fmt.Errorf("initial genome %d is nil", i)
		}
		if g.Memory() != cfg.Memory {
			return nil, fmt.Errorf("%w: initial genome %d has memory %d, want %d", genotype.ErrLengthMismatch, i, g.Memory(), cfg.Memory)
		}
		copied[i] = g.Clone()
	}
	return newPopulation(cfg, rng, copied, opts)
}

func newPopulation(cfg Config, rng genotype.Source, initial []*genotype.Genome, opts []Option) (*Population, error) {
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = RouletteSelector{}
	}
	if cfg.Scape == nil {
		ipd, err := scape.NewIPD(cfg.RoundsPerMatch, cfg.Payoff)
		if err != nil {
			return nil, err
		}
		cfg.Scape = ipd
	}

	p := &Population{
		cfg:        cfg,
		rng:        rng,
		scape:      cfg.Scape,
		selector:   cfg.Selector,
		logger:     logging.Nop(),
		generation: initial,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Population) Config() Config {
	return p.cfg
}

func (p *Population) Size() int {
	return len(p.generation)
}

// Generation returns the number of completed generation steps.
func (p *Population) Generation() int {
	return p.index
}

// Genomes returns copies of the current generation in index order.
func (p *Population) Genomes() []*genotype.Genome {
	out := make([]*genotype.Genome, len(p.generation))
	for i, g := range p.generation {
		out[i] = g.Clone()
	}
	return out
}

// LastFitness returns the scores of the most recently evaluated generation,
// which has since been replaced.
func (p *Population) LastFitness() []int {
	return append([]int(nil), p.fitness...)
}

// Best returns a copy of the highest scoring genome of the most recently
// evaluated generation. ok is false before the first successful step.
func (p *Population) Best() (*genotype.Genome, bool) {
	if p.best == nil {
		return nil, false
	}
	return p.best.Clone(), true
}

// RandomMember returns a copy of a uniformly chosen current genome.
func (p *Population) RandomMember() *genotype.Genome {
	return p.generation[p.rng.Intn(len(p.generation))].Clone()
}

// AdvanceGeneration scores the current generation in fixed pairs, selects
// the next one by roulette wheel, then applies crossover and mutation.
// On error the population is left exactly as it was.
func (p *Population) AdvanceGeneration(ctx context.Context) (Summary, error) {
	started := time.Now()
	gen := p.index

	fitness, err := p.evaluate(ctx)
	if err != nil {
		generationFailures.WithLabelValues("evaluate").Inc()
		return Summary{}, &GenerationError{Generation: gen, Err: err}
	}

	total, bestIdx := 0, 0
	for i, f := range fitness {
		total += f
		if f > fitness[bestIdx] {
			bestIdx = i
		}
	}
	if total == 0 {
		generationFailures.WithLabelValues("zero_fitness").Inc()
		p.logger.Error("generation has no fitness mass", "generation", gen, "population", len(p.generation))
		return Summary{}, &GenerationError{Generation: gen, Err: ErrZeroFitness}
	}

	next, err := p.breed(fitness, total)
	if err != nil {
		generationFailures.WithLabelValues("breed").Inc()
		return Summary{}, &GenerationError{Generation: gen, Err: err}
	}

	summary := summarize(gen, p.generation, fitness, total)
	p.best = p.generation[bestIdx].Clone()
	p.fitness = fitness
	p.generation = next
	p.index++

	elapsed := time.Since(started)
	summary.Duration = elapsed
	generationsTotal.Inc()
	generationDuration.Observe(elapsed.Seconds())
	meanFitnessGauge.Set(summary.Mean)
	maxFitnessGauge.Set(float64(summary.Max))
	cooperationGauge.Set(summary.CooperationRate)

	p.logger.Debug("generation advanced",
		"generation", gen,
		"mean", summary.Mean,
		"max", summary.Max,
		"cooperation", summary.CooperationRate,
		"diversity", summary.Diversity,
		"size", len(next),
		"elapsed", elapsed,
	)
	return summary, nil
}

// breed builds the next generation without touching the current one.
func (p *Population) breed(fitness []int, total int) ([]*genotype.Genome, error) {
	slots := len(p.generation) - p.cfg.Inject.Reserved()
	next := make([]*genotype.Genome, 0, slots+2)
	for i := 0; i < slots; i++ {
		idx, err := p.selector.Pick(p.rng, fitness, total)
		if err != nil {
			return nil, fmt.Errorf("select slot %d: %w", i, err)
		}
		next = append(next, p.generation[idx].Clone())
	}
	if p.cfg.Inject.Enabled() {
		refs, err := referenceGenomes(p.cfg.Memory)
		if err != nil {
			return nil, err
		}
		next = append(next, refs...)
	}

	crossovers := 0
	for i := 0; i+1 < len(next); i += 2 {
		if p.rng.Float64() < p.cfg.CrossoverRate {
			if err := genotype.Crossover(next[i], next[i+1], p.rng); err != nil {
				return nil, fmt.Errorf("crossover pair %d: %w", i/2, err)
			}
			crossovers++
		}
	}

	flipped := 0
	for i, g := range next {
		n, err := g.Mutate(p.cfg.MutateRate, p.rng)
		if err != nil {
			return nil, fmt.Errorf("mutate genome %d: %w", i, err)
		}
		flipped += n
	}

	crossoversTotal.Add(float64(crossovers))
	mutatedBitsTotal.Add(float64(flipped))
	return next, nil
}

// Run advances the population for the given number of generations, calling
// observe after each one. It stops at the first error.
func (p *Population) Run(ctx context.Context, generations int, observe func(Summary) error) ([]Summary, error) {
	if generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	history := make([]Summary, 0, generations)
	for i := 0; i < generations; i++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		summary, err := p.AdvanceGeneration(ctx)
		if err != nil {
			return history, err
		}
		history = append(history, summary)
		if observe != nil {
			if err := observe(summary); err != nil {
				return history, err
			}
		}
	}
	return history, nil
}
