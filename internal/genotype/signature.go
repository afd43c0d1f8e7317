package genotype

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

type TableSummary struct {
	Memory          int     `json:"memory"`
	TableBits       int     `json:"table_bits"`
	CooperateBits   int     `json:"cooperate_bits"`
	CooperationBias float64 `json:"cooperation_bias"`
	OpensCooperate  bool    `json:"opens_cooperate"`
}

type GenomeSignature struct {
	Fingerprint string       `json:"fingerprint"`
	Summary     TableSummary `json:"summary"`
}

// ComputeSignature fingerprints the full table so identical strategies share
// a key across generations.
func ComputeSignature(g *Genome) GenomeSignature {
	strategyBits := StrategyLen(g.memory)
	summary := TableSummary{
		Memory:          g.memory,
		TableBits:       g.Len(),
		CooperateBits:   g.bits.count(0, strategyBits),
		CooperationBias: g.CooperationBias(),
		OpensCooperate:  g.Decide(g.NewHistory()),
	}

	digest := sha1.Sum([]byte(fmt.Sprintf("m=%d|%s", g.memory, g.String())))
	return GenomeSignature{
		Fingerprint: hex.EncodeToString(digest[:8]),
		Summary:     summary,
	}
}

// Fingerprint is shorthand for ComputeSignature(g).Fingerprint.
func Fingerprint(g *Genome) string {
	return ComputeSignature(g).Fingerprint
}
