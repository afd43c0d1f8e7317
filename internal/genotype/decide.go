package genotype

// Decide returns true when the genome cooperates given h. An empty history is
// first filled with the genome's seed rounds and the filled window is kept
// in h, so the genome remembers its fabricated past after the first move.
// Only the trailing Memory() rounds of h are consulted.
func (g *Genome) Decide(h *History) bool {
	if h.Empty() {
		for _, r := range g.SeedRounds() {
			h.Push(r.Own, r.Opponent)
		}
	}
	rounds := h.rounds
	if len(rounds) > g.memory {
		rounds = rounds[len(rounds)-g.memory:]
	}
	return g.bits.get(encodeRounds(rounds))
}
