package evo

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"ipdevo/internal/genotype"
	"ipdevo/internal/scape"
)

// stubScape scores each genome independently of its opponent.
type stubScape struct {
	score func(g *genotype.Genome) scape.Fitness
	calls int
	failAt int
}

func (s *stubScape) Name() string { return "stub" }

func (s *stubScape) Evaluate(_ context.Context, a, b *genotype.Genome) (scape.Fitness, scape.Fitness, error) {
	s.calls++
	if s.failAt > 0 && s.calls >= s.failAt {
		return 0, 0, errors.New("forced failure")
	}
	return s.score(a), s.score(b), nil
}

func cooperatorsOnly(g *genotype.Genome) scape.Fitness {
	if g.CooperationBias() == 1 {
		return 7
	}
	return 0
}

func mustGenome(t *testing.T) func(*genotype.Genome, error) *genotype.Genome {
	t.Helper()
	return func(g *genotype.Genome, err error) *genotype.Genome {
		t.Helper()
		if err != nil {
			t.Fatalf("build genome: %v", err)
		}
		return g
	}
}

func quietConfig(memory int) Config {
	cfg := DefaultConfig()
	cfg.Memory = memory
	cfg.RoundsPerMatch = 10
	cfg.CrossoverRate = 0
	cfg.MutateRate = 0
	cfg.Inject = InjectNone
	return cfg
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "odd size", mutate: func(c *Config) { c.PopulationSize = 7 }},
		{name: "tiny size", mutate: func(c *Config) { c.PopulationSize = 0 }},
		{name: "replace needs room", mutate: func(c *Config) { c.PopulationSize = 2; c.Inject = InjectReplace }},
		{name: "memory zero", mutate: func(c *Config) { c.Memory = 0 }},
		{name: "crossover rate", mutate: func(c *Config) { c.CrossoverRate = 1.5 }},
		{name: "mutate rate", mutate: func(c *Config) { c.MutateRate = -0.1 }},
		{name: "rounds", mutate: func(c *Config) { c.RoundsPerMatch = 0 }},
		{name: "inject", mutate: func(c *Config) { c.Inject = "sometimes" }},
		{name: "payoff", mutate: func(c *Config) { c.Payoff.DefectGain = 2 }},
		{name: "workers", mutate: func(c *Config) { c.Workers = -1 }},
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestNewPopulationSeedsRandomGenomes(t *testing.T) {
	cfg := quietConfig(2)
	cfg.PopulationSize = 8
	pop, err := NewPopulation(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	if pop.Size() != 8 || pop.Generation() != 0 {
		t.Fatalf("unexpected size/generation: %d/%d", pop.Size(), pop.Generation())
	}
	want, _ := genotype.TableLen(2)
	for i, g := range pop.Genomes() {
		if g.Len() != want {
			t.Fatalf("genome %d has %d bits, want %d", i, g.Len(), want)
		}
	}
	if _, ok := pop.Best(); ok {
		t.Fatal("expected no best genome before the first generation")
	}
	if _, err := NewPopulation(cfg, nil); err == nil {
		t.Fatal("expected nil random source error")
	}
}

func TestAdvanceGenerationZeroFitnessLeavesPopulationUnchanged(t *testing.T) {
	cfg := quietConfig(1)
	cfg.Scape = &stubScape{score: func(*genotype.Genome) scape.Fitness { return 0 }}
	cfg.PopulationSize = 6
	pop, err := NewPopulation(cfg, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	before := pop.Genomes()

	_, err = pop.AdvanceGeneration(context.Background())
	if !errors.Is(err, ErrZeroFitness) {
		t.Fatalf("expected ErrZeroFitness, got %v", err)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Generation != 0 {
		t.Fatalf("expected generation 0 error, got %v", err)
	}

	after := pop.Genomes()
	for i := range before {
		if !before[i].Equal(after[i]) {
			t.Fatalf("genome %d changed after failed generation", i)
		}
	}
	if pop.Generation() != 0 {
		t.Fatalf("generation counter advanced to %d", pop.Generation())
	}
	if _, ok := pop.Best(); ok {
		t.Fatal("best genome set by failed generation")
	}
}

func TestAdvanceGenerationSelectsOnlyFitnessMass(t *testing.T) {
	must := mustGenome(t)
	coop := must(genotype.AlwaysCooperate(1))
	defect := must(genotype.AlwaysDefect(1))
	initial := []*genotype.Genome{defect, defect, coop, defect}

	cfg := quietConfig(1)
	cfg.Scape = &stubScape{score: cooperatorsOnly}
	pop, err := NewPopulationFrom(cfg, rand.New(rand.NewSource(2)), initial)
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	summary, err := pop.AdvanceGeneration(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	for i, g := range pop.Genomes() {
		if !g.Equal(coop) {
			t.Fatalf("genome %d is not the sole scoring strategy: %s", i, g)
		}
	}
	if summary.Total != 7 || summary.Max != 7 || summary.Min != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Mean != 7.0/4 {
		t.Fatalf("expected mean %f, got %f", 7.0/4, summary.Mean)
	}
	best, ok := pop.Best()
	if !ok || !best.Equal(coop) {
		t.Fatalf("expected always-cooperate best, got %v %v", best, ok)
	}
}

func TestAdvanceGenerationInjectModes(t *testing.T) {
	must := mustGenome(t)
	coop := must(genotype.AlwaysCooperate(2))
	defect := must(genotype.AlwaysDefect(2))

	for _, mode := range []InjectMode{InjectNone, InjectReplace, InjectAdditive} {
		cfg := quietConfig(2)
		cfg.Inject = mode
		cfg.PopulationSize = 10
		pop, err := NewPopulation(cfg, rand.New(rand.NewSource(8)))
		if err != nil {
			t.Fatalf("%s: new population: %v", mode, err)
		}
		if _, err := pop.AdvanceGeneration(context.Background()); err != nil {
			t.Fatalf("%s: advance: %v", mode, err)
		}

		wantSize := 10
		if mode == InjectAdditive {
			wantSize = 12
		}
		genomes := pop.Genomes()
		if len(genomes) != wantSize {
			t.Fatalf("%s: size %d want %d", mode, len(genomes), wantSize)
		}
		if mode.Enabled() {
			if !genomes[wantSize-2].Equal(coop) || !genomes[wantSize-1].Equal(defect) {
				t.Fatalf("%s: reference genomes not appended last", mode)
			}
		}
	}
}

func TestAdditiveInjectGrowsEveryGeneration(t *testing.T) {
	cfg := quietConfig(1)
	cfg.Inject = InjectAdditive
	cfg.PopulationSize = 4
	pop, err := NewPopulation(cfg, rand.New(rand.NewSource(12)))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	history, err := pop.Run(context.Background(), 3, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, s := range history {
		if s.Size != 4+2*i {
			t.Fatalf("generation %d evaluated %d genomes, want %d", i, s.Size, 4+2*i)
		}
	}
	if pop.Size() != 10 {
		t.Fatalf("expected size 10 after three generations, got %d", pop.Size())
	}
}

func TestAdvanceGenerationMeanForCooperators(t *testing.T) {
	must := mustGenome(t)
	coop := must(genotype.AlwaysCooperate(1))
	cfg := quietConfig(1)
	pop, err := NewPopulationFrom(cfg, rand.New(rand.NewSource(1)), []*genotype.Genome{coop, coop})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	summary, err := pop.AdvanceGeneration(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if summary.Mean != 30 || summary.Max != 30 || summary.Total != 60 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.CooperationRate != 1 || summary.Diversity != 1 {
		t.Fatalf("unexpected cooperation/diversity: %+v", summary)
	}
	if summary.BestFingerprint != genotype.Fingerprint(coop) {
		t.Fatalf("unexpected best fingerprint %s", summary.BestFingerprint)
	}
	if got := pop.LastFitness(); len(got) != 2 || got[0] != 30 || got[1] != 30 {
		t.Fatalf("unexpected last fitness %v", got)
	}
}

func TestAdvanceGenerationReportsFailingGeneration(t *testing.T) {
	must := mustGenome(t)
	coop := must(genotype.AlwaysCooperate(1))
	cfg := quietConfig(1)
	cfg.Scape = &stubScape{score: cooperatorsOnly, failAt: 2}
	pop, err := NewPopulationFrom(cfg, rand.New(rand.NewSource(1)), []*genotype.Genome{coop, coop})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	history, err := pop.Run(context.Background(), 5, nil)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Generation != 1 {
		t.Fatalf("expected failure at generation 1, got %d", genErr.Generation)
	}
	if len(history) != 1 || pop.Generation() != 1 {
		t.Fatalf("expected one completed generation, got %d/%d", len(history), pop.Generation())
	}
}

func TestSeededRunIsReproducibleAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) ([]Summary, []*genotype.Genome) {
		cfg := DefaultConfig()
		cfg.PopulationSize = 24
		cfg.Memory = 2
		cfg.RoundsPerMatch = 20
		cfg.CrossoverRate = 0.5
		cfg.MutateRate = 0.05
		cfg.Workers = workers
		pop, err := NewPopulation(cfg, rand.New(rand.NewSource(77)))
		if err != nil {
			t.Fatalf("new population: %v", err)
		}
		history, err := pop.Run(context.Background(), 6, nil)
		if err != nil {
			t.Fatalf("run with %d workers: %v", workers, err)
		}
		return history, pop.Genomes()
	}

	serialHistory, serialGenomes := run(1)
	parallelHistory, parallelGenomes := run(4)
	for i := range serialHistory {
		a, b := serialHistory[i], parallelHistory[i]
		a.Duration, b.Duration = 0, 0
		if a != b {
			t.Fatalf("generation %d diverged: %+v vs %+v", i, a, b)
		}
	}
	for i := range serialGenomes {
		if !serialGenomes[i].Equal(parallelGenomes[i]) {
			t.Fatalf("genome %d diverged", i)
		}
	}
}

func TestRunStopsOnObserverErrorAndCancellation(t *testing.T) {
	cfg := quietConfig(1)
	cfg.PopulationSize = 4
	pop, err := NewPopulation(cfg, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	stop := errors.New("stop")
	history, err := pop.Run(context.Background(), 10, func(s Summary) error {
		if s.Generation == 1 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || len(history) != 2 {
		t.Fatalf("expected observer stop after 2 generations, got %d: %v", len(history), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pop.Run(ctx, 3, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if _, err := pop.Run(context.Background(), 0, nil); err == nil {
		t.Fatal("expected generations validation error")
	}
}

func TestNewPopulationFromRejectsMismatchedGenomes(t *testing.T) {
	must := mustGenome(t)
	cfg := quietConfig(2)
	_, err := NewPopulationFrom(cfg, rand.New(rand.NewSource(1)), []*genotype.Genome{
		must(genotype.AlwaysCooperate(2)),
		must(genotype.AlwaysCooperate(1)),
	})
	if !errors.Is(err, genotype.ErrLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
}
