package util

import (
	"fmt"
)

// tileBits is the side of the square tiles the transpose works on.
const tileBits = 64

// BitMatrix is a dense, row-major bit matrix. Each row is a run of
// Stride() little-endian uint64 words: bit j of row i is bit j%64 of
// word j/64. Storage is padded to a whole number of 64x64 tiles and
// padding bits are kept at zero.
type BitMatrix struct {
	rows, cols int
	stride     int
	words      []uint64
}

// NewBitMatrix returns a zeroed rows x cols matrix.
func NewBitMatrix(rows, cols int) *BitMatrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("util: invalid matrix dimensions %dx%d", rows, cols))
	}

	stride := WordsForBits(cols)
	return &BitMatrix{
		rows:   rows,
		cols:   cols,
		stride: stride,
		words:  make([]uint64, Pad(rows, tileBits)*stride),
	}
}

// Rows returns the number of rows.
func (m *BitMatrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *BitMatrix) Cols() int { return m.cols }

// Stride returns the number of words per row.
func (m *BitMatrix) Stride() int { return m.stride }

// Row returns the words of row i. The slice aliases the matrix.
func (m *BitMatrix) Row(i int) []uint64 {
	return m.words[i*m.stride : (i+1)*m.stride : (i+1)*m.stride]
}

// Bit reports whether the bit at row i, column j is set.
func (m *BitMatrix) Bit(i, j int) bool {
	return TestBit(m.Row(i), j)
}

// Set sets the bit at row i, column j to v.
func (m *BitMatrix) Set(i, j int, v bool) {
	w := &m.words[i*m.stride+j/64]
	if v {
		*w |= 1 << (uint(j) % 64)
	} else {
		*w &^= 1 << (uint(j) % 64)
	}
}

// XorRow folds w into row i.
func (m *BitMatrix) XorRow(i int, w []uint64) {
	XorWords(m.Row(i), w)
}

// ClearPadding zeroes the bits beyond Cols() in every row.
func (m *BitMatrix) ClearPadding() {
	r := uint(m.cols % 64)
	if r == 0 {
		return
	}

	mask := uint64(1)<<r - 1
	for i := 0; i < m.rows; i++ {
		m.words[(i+1)*m.stride-1] &= mask
	}
}

// Equal reports whether m and o have the same shape and bits.
func (m *BitMatrix) Equal(o *BitMatrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}

	for i := range m.words {
		if m.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Wipe zeroes the whole backing store.
func (m *BitMatrix) Wipe() {
	for i := range m.words {
		m.words[i] = 0
	}
}
