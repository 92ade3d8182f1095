package crypto

import (
	"encoding/binary"
)

// ElementLen is the byte length of an encoded GF(2^128) element.
const ElementLen = 16

// Element is a GF(2^128) element in polynomial basis modulo
// x^128 + x^7 + x^2 + x + 1. Element[0] holds the coefficients of
// x^0..x^63 and Element[1] those of x^64..x^127.
type Element [2]uint64

// ElementFromWords reads an element from two little-endian words.
func ElementFromWords(w []uint64) Element {
	return Element{w[0], w[1]}
}

// ElementFromBytes decodes 16 little-endian bytes.
func ElementFromBytes(b []byte) Element {
	return Element{binary.LittleEndian.Uint64(b), binary.LittleEndian.Uint64(b[8:])}
}

// Bytes encodes e as 16 little-endian bytes.
func (e Element) Bytes() []byte {
	b := make([]byte, ElementLen)
	binary.LittleEndian.PutUint64(b, e[0])
	binary.LittleEndian.PutUint64(b[8:], e[1])
	return b
}

// Add returns e + f, which in characteristic 2 is XOR.
func (e Element) Add(f Element) Element {
	return Element{e[0] ^ f[0], e[1] ^ f[1]}
}

// Mul returns the field product e * f.
func (e Element) Mul(f Element) Element {
	return reduce(mul128(e, f))
}

// clmul64 is a carry-less 64x64 -> 128 bit multiply. It does not
// branch on its operands.
func clmul64(a, b uint64) (lo, hi uint64) {
	for i := uint(0); i < 64; i++ {
		mask := -((b >> i) & 1)
		lo ^= (a << i) & mask
		// a >> 64 is zero for i == 0
		hi ^= (a >> (64 - i)) & mask
	}
	return
}

// mul128 returns the unreduced 256 bit carry-less product of a and b,
// least significant word first.
func mul128(a, b Element) (r [4]uint64) {
	p00lo, p00hi := clmul64(a[0], b[0])
	p01lo, p01hi := clmul64(a[0], b[1])
	p10lo, p10hi := clmul64(a[1], b[0])
	p11lo, p11hi := clmul64(a[1], b[1])

	r[0] = p00lo
	r[1] = p00hi ^ p01lo ^ p10lo
	r[2] = p01hi ^ p10hi ^ p11lo
	r[3] = p11hi
	return
}

// reduce folds a 256 bit product modulo x^128 + x^7 + x^2 + x + 1,
// using x^128 = x^7 + x^2 + x + 1.
func reduce(r [4]uint64) Element {
	lo, hi := foldWord(r[3])
	r[1] ^= lo
	r[2] ^= hi

	lo, hi = foldWord(r[2])
	r[0] ^= lo
	r[1] ^= hi

	return Element{r[0], r[1]}
}

// foldWord multiplies w by x^7 + x^2 + x + 1.
func foldWord(w uint64) (lo, hi uint64) {
	lo = w ^ w<<1 ^ w<<2 ^ w<<7
	hi = w>>63 ^ w>>62 ^ w>>57
	return
}

// Accumulator sums products without reducing each one; the modular
// reduction happens once in Sum.
type Accumulator struct {
	r [4]uint64
}

// MulAdd adds a * b to the running sum.
func (acc *Accumulator) MulAdd(a, b Element) {
	p := mul128(a, b)
	acc.r[0] ^= p[0]
	acc.r[1] ^= p[1]
	acc.r[2] ^= p[2]
	acc.r[3] ^= p[3]
}

// Add adds a to the running sum.
func (acc *Accumulator) Add(a Element) {
	acc.r[0] ^= a[0]
	acc.r[1] ^= a[1]
}

// Merge adds the running sum of o.
func (acc *Accumulator) Merge(o *Accumulator) {
	for i := range acc.r {
		acc.r[i] ^= o.r[i]
	}
}

// Sum returns the reduced sum.
func (acc *Accumulator) Sum() Element {
	return reduce(acc.r)
}
