package otext

import (
	"crypto/rand"

	"github.com/bits-and-blooms/bitset"
	"github.com/optable/otext/internal/util"
)

// ChoiceBits are the receiver's selection bits for one extension.
// The value is immutable: constructors copy their input.
type ChoiceBits struct {
	bits *bitset.BitSet
	n    int
}

// NewChoiceBits returns choice bits selecting the second message of
// pair i when choices[i] is true.
func NewChoiceBits(choices []bool) ChoiceBits {
	b := bitset.New(uint(len(choices)))
	for i, c := range choices {
		if c {
			b.Set(uint(i))
		}
	}
	return ChoiceBits{bits: b, n: len(choices)}
}

// ChoiceBitsFromBitSet copies the first n bits of b. A nil b reads as
// n zero bits.
func ChoiceBitsFromBitSet(b *bitset.BitSet, n int) ChoiceBits {
	c := bitset.New(uint(n))
	if b == nil {
		return ChoiceBits{bits: c, n: n}
	}
	for i := 0; i < n; i++ {
		if b.Test(uint(i)) {
			c.Set(uint(i))
		}
	}
	return ChoiceBits{bits: c, n: n}
}

// RandomChoiceBits samples n uniform choice bits.
func RandomChoiceBits(n int) (ChoiceBits, error) {
	w, err := randomWords(n)
	if err != nil {
		return ChoiceBits{}, err
	}

	b := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		if util.TestBit(w, i) {
			b.Set(uint(i))
		}
	}
	return ChoiceBits{bits: b, n: n}, nil
}

// Len returns the number of choice bits.
func (c ChoiceBits) Len() int {
	return c.n
}

// Bit returns choice i.
func (c ChoiceBits) Bit(i int) bool {
	return c.bits.Test(uint(i))
}

// extend returns the choice bits as little-endian words of width
// cols, the columns past Len filled with fresh random bits.
func (c ChoiceBits) extend(cols int) ([]uint64, error) {
	w, err := randomWords(cols)
	if err != nil {
		return nil, err
	}

	for i := 0; i < c.n; i++ {
		w[i/64] &^= 1 << (uint(i) % 64)
		if c.bits.Test(uint(i)) {
			util.SetBit(w, i)
		}
	}
	return w, nil
}

func randomWords(nbits int) ([]uint64, error) {
	w := make([]uint64, util.WordsForBits(nbits))
	buf := make([]byte, 8*len(w))
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	util.BytesIntoWords(w, buf)

	// keep padding bits clear
	if r := uint(nbits % 64); r != 0 {
		w[len(w)-1] &= 1<<r - 1
	}
	return w, nil
}
