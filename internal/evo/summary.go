package evo

import (
	"time"

	"ipdevo/internal/genotype"
	"ipdevo/internal/stats"
)

// Summary describes one evaluated generation. Mean divides the fitness total
// by the number of genomes that were evaluated, not by the size of the
// generation that replaced them.
type Summary struct {
	Generation      int           `json:"generation"`
	Size            int           `json:"size"`
	Mean            float64       `json:"mean"`
	StdDev          float64       `json:"std_dev"`
	Min             int           `json:"min"`
	Max             int           `json:"max"`
	Total           int           `json:"total"`
	CooperationRate float64       `json:"cooperation_rate"`
	Diversity       int           `json:"diversity"`
	BestFingerprint string        `json:"best_fingerprint"`
	Duration        time.Duration `json:"duration_ns"`
}

func summarize(gen int, genomes []*genotype.Genome, fitness []int, total int) Summary {
	d := stats.Describe(stats.Ints(fitness))
	s := Summary{
		Generation: gen,
		Size:       len(genomes),
		Mean:       float64(total) / float64(len(genomes)),
		StdDev:     d.StdDev,
		Min:        int(d.Min),
		Max:        int(d.Max),
		Total:      total,
	}

	bestIdx := 0
	seen := make(map[string]struct{}, len(genomes))
	for i, g := range genomes {
		if fitness[i] > fitness[bestIdx] {
			bestIdx = i
		}
		seen[g.String()] = struct{}{}
	}
	s.CooperationRate = stats.CooperationRate(genomes)
	s.Diversity = len(seen)
	s.BestFingerprint = genotype.Fingerprint(genomes[bestIdx])
	return s
}
