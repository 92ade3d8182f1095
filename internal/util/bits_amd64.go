//go:build amd64 && !generic
// +build amd64,!generic

package util

import (
	"github.com/alecthomas/unsafeslice"
)

// Xor casts the first part of the byte slices (length divisible
// by 8) into uint64 and then performs XOR on the slices of uint64.
// The excess elements that could not be cast are XORed conventionally.
// The whole operation is performed in place. Panic if a and dst do
// not have the same length.
// Only tested on x86-64.
func Xor(dst, a []byte) {
	if len(dst) != len(a) {
		panic(ErrByteLengthMissMatch)
	}

	castDst := unsafeslice.Uint64SliceFromByteSlice(dst)
	castA := unsafeslice.Uint64SliceFromByteSlice(a)

	for i := range castDst {
		castDst[i] ^= castA[i]
	}

	// deal with excess bytes which could not be cast to uint64
	// in the conventional manner
	for j := 0; j < len(dst)%8; j++ {
		dst[len(dst)-j-1] ^= a[len(a)-j-1]
	}
}

// WordsAsBytes returns the little-endian byte encoding of w.
// On x86-64 the result aliases w and must be treated as read-only.
func WordsAsBytes(w []uint64) []byte {
	return unsafeslice.ByteSliceFromUint64Slice(w)
}

// BytesIntoWords decodes the little-endian bytes src into dst.
// Panic if src is not exactly 8*len(dst) bytes long.
func BytesIntoWords(dst []uint64, src []byte) {
	if len(src) != 8*len(dst) {
		panic(ErrByteLengthMissMatch)
	}

	copy(dst, unsafeslice.Uint64SliceFromByteSlice(src))
}
