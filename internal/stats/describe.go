package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"ipdevo/internal/genotype"
)

// Description summarizes a sample of fitness values.
type Description struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

func Describe(values []float64) Description {
	if len(values) == 0 {
		return Description{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	d := Description{
		Count:  len(values),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(values) == 1 {
		d.Mean = values[0]
		return d
	}
	d.Mean, d.StdDev = stat.MeanStdDev(values, nil)
	return d
}

// Ints converts integer scores for the gonum routines.
func Ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// Series summarizes a per-generation series (such as the best fitness of
// each generation across a run).
func Series(values []float64) (mean, std, max, min float64) {
	d := Describe(values)
	return d.Mean, d.StdDev, d.Max, d.Min
}

// CooperationRate is the mean share of cooperating strategy-table entries
// across genomes.
func CooperationRate(genomes []*genotype.Genome) float64 {
	if len(genomes) == 0 {
		return 0
	}
	biases := make([]float64, len(genomes))
	for i, g := range genomes {
		biases[i] = g.CooperationBias()
	}
	return stat.Mean(biases, nil)
}
