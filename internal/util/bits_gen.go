//go:build !amd64 || generic
// +build !amd64 generic

package util

import (
	"encoding/binary"
)

// Xor casts the first part of the byte slice (length divisible
// by 8) into uint64 and then performs XOR on the slice of uint64.
// The excess elements that could not be cast are XORed conventionally.
// The whole operation is performed in place. Panic if a and dst do
// not have the same length
func Xor(dst, a []byte) {
	if len(dst) != len(a) {
		panic(ErrByteLengthMissMatch)
	}

	// process as uint64 when possible
	var uDst, uA uint64
	for i := 0; i < len(dst)/8; i++ {
		uDst = binary.LittleEndian.Uint64(dst[i*8 : (i+1)*8])
		uA = binary.LittleEndian.Uint64(a[i*8 : (i+1)*8])
		binary.LittleEndian.PutUint64(dst[i*8:(i+1)*8], uDst^uA)
	}

	// deal with excess bytes that couldn't be operated
	// as uint64s
	for j := 0; j < len(dst)%8; j++ {
		dst[len(dst)-j-1] ^= a[len(dst)-j-1]
	}
}

// WordsAsBytes returns the little-endian byte encoding of w
// in a freshly allocated slice.
func WordsAsBytes(w []uint64) []byte {
	b := make([]byte, 8*len(w))
	for i, u := range w {
		binary.LittleEndian.PutUint64(b[i*8:], u)
	}
	return b
}

// BytesIntoWords decodes the little-endian bytes src into dst.
// Panic if src is not exactly 8*len(dst) bytes long.
func BytesIntoWords(dst []uint64, src []byte) {
	if len(src) != 8*len(dst) {
		panic(ErrByteLengthMissMatch)
	}

	for i := range dst {
		dst[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
}
