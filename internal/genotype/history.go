package genotype

// Round is one remembered game round from the holder's perspective.
// true means cooperate.
type Round struct {
	Own      bool
	Opponent bool
}

// History is a sliding window over the most recent rounds of a match.
// Pushing beyond capacity discards the oldest round.
type History struct {
	capacity int
	rounds   []Round
}

func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{capacity: capacity, rounds: make([]Round, 0, capacity+1)}
}

func (h *History) Capacity() int {
	return h.capacity
}

func (h *History) Len() int {
	return len(h.rounds)
}

func (h *History) Empty() bool {
	return len(h.rounds) == 0
}

func (h *History) Push(own, opponent bool) {
	h.rounds = append(h.rounds, Round{Own: own, Opponent: opponent})
	if over := len(h.rounds) - h.capacity; over > 0 {
		h.rounds = append(h.rounds[:0], h.rounds[over:]...)
	}
}

// Rounds returns the window oldest first.
func (h *History) Rounds() []Round {
	return append([]Round(nil), h.rounds...)
}

func (h *History) Reset() {
	h.rounds = h.rounds[:0]
}

// Index encodes the window as a base-4 number, oldest round most significant.
func (h *History) Index() int {
	return encodeRounds(h.rounds)
}

func encodeRounds(rounds []Round) int {
	index := 0
	for _, r := range rounds {
		index = index*4 + 2*boolToInt(r.Own) + boolToInt(r.Opponent)
	}
	return index
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
