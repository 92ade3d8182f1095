package util

import (
	"fmt"
)

var ErrByteLengthMissMatch = fmt.Errorf("provided bytes do not have the same length for XOR operations")

// WordsForBits returns the number of uint64 words needed to hold n bits.
func WordsForBits(n int) int {
	return (n + 63) / 64
}

// Pad returns n rounded up to the next multiple of m.
func Pad(n, m int) int {
	if r := n % m; r != 0 {
		return n + m - r
	}
	return n
}

// TestBit reports whether bit i of the little-endian word slice w is set.
func TestBit(w []uint64, i int) bool {
	return (w[i/64]>>(uint(i)%64))&1 == 1
}

// SetBit sets bit i of w.
func SetBit(w []uint64, i int) {
	w[i/64] |= 1 << (uint(i) % 64)
}

// BitMask returns an all ones word when bit i of w is set
// and zero otherwise, without branching on the bit.
func BitMask(w []uint64, i int) uint64 {
	return -((w[i/64] >> (uint(i) % 64)) & 1)
}

// XorWords performs dst ^= a in place. Panic if a and dst do
// not have the same length.
func XorWords(dst, a []uint64) {
	if len(dst) != len(a) {
		panic(ErrByteLengthMissMatch)
	}

	for i := range dst {
		dst[i] ^= a[i]
	}
}

// MaskXorWords performs dst ^= a & mask in place. With mask taken
// from BitMask it conditionally folds a into dst in constant time.
func MaskXorWords(dst, a []uint64, mask uint64) {
	if len(dst) != len(a) {
		panic(ErrByteLengthMissMatch)
	}

	for i := range dst {
		dst[i] ^= a[i] & mask
	}
}

// XorBytes xors each byte from a with b and returns dst
// if a and b are the same length
func XorBytes(a, b []byte) (dst []byte, err error) {
	var n = len(b)
	if n != len(a) {
		return nil, ErrByteLengthMissMatch
	}

	dst = make([]byte, n)
	copy(dst, a)
	Xor(dst, b)

	return
}
