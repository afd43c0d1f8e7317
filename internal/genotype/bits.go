package genotype

import "math/bits"

// bitset is a fixed-length packed bit array sized once at construction.
type bitset struct {
	words []uint64
	n     int
}

func newBitset(n int) bitset {
	return bitset{words: make([]uint64, (n+63)/64), n: n}
}

func (b bitset) len() int {
	return b.n
}

func (b bitset) get(i int) bool {
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b bitset) set(i int, v bool) {
	if v {
		b.words[i>>6] |= 1 << (uint(i) & 63)
		return
	}
	b.words[i>>6] &^= 1 << (uint(i) & 63)
}

func (b bitset) flip(i int) {
	b.words[i>>6] ^= 1 << (uint(i) & 63)
}

func (b bitset) clone() bitset {
	return bitset{words: append([]uint64(nil), b.words...), n: b.n}
}

func (b bitset) equal(o bitset) bool {
	if b.n != o.n {
		return false
	}
	for i := range b.words {
		if b.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// count returns the number of set bits in [from, to).
func (b bitset) count(from, to int) int {
	total := 0
	for i := from; i < to; {
		if i&63 == 0 && to-i >= 64 {
			total += bits.OnesCount64(b.words[i>>6])
			i += 64
			continue
		}
		if b.get(i) {
			total++
		}
		i++
	}
	return total
}
