package evo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// evaluate plays genome 2i against genome 2i+1 for every i. Each genome
// takes part in exactly one match per generation.
func (p *Population) evaluate(ctx context.Context) ([]int, error) {
	n := len(p.generation)
	if n%2 != 0 {
		return nil, fmt.Errorf("population size must be even, got %d", n)
	}
	fitness := make([]int, n)

	workers := p.cfg.Workers
	if workers <= 1 {
		for i := 0; i+1 < n; i += 2 {
			if err := p.play(ctx, fitness, i); err != nil {
				return nil, err
			}
		}
		return fitness, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i+1 < n; i += 2 {
		i := i
		g.Go(func() error {
			return p.play(gctx, fitness, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fitness, nil
}

func (p *Population) play(ctx context.Context, fitness []int, i int) error {
	a, b, err := p.scape.Evaluate(ctx, p.generation[i], p.generation[i+1])
	if err != nil {
		return fmt.Errorf("match %d vs %d: %w", i, i+1, err)
	}
	fitness[i] = int(a)
	fitness[i+1] = int(b)
	matchesTotal.Inc()
	return nil
}
