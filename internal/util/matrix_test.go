package util

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

var prng = rand.New(rand.NewSource(time.Now().UnixNano()))

func sampleMatrix(prng *rand.Rand, rows, cols int) *BitMatrix {
	m := NewBitMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		row := m.Row(i)
		for k := range row {
			row[k] = prng.Uint64()
		}
	}
	m.ClearPadding()
	return m
}

// naiveTranspose moves one bit at a time.
func naiveTranspose(m *BitMatrix) *BitMatrix {
	t := NewBitMatrix(m.Cols(), m.Rows())
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			t.Set(j, i, m.Bit(i, j))
		}
	}
	return t
}

var shapes = [][2]int{
	{64, 64},
	{128, 1},
	{128, 63},
	{128, 65},
	{128, 1024},
	{256, 1000},
	{1000, 128},
	{70, 130},
}

func TestTransposeMatchesNaive(t *testing.T) {
	for _, s := range shapes {
		m := sampleMatrix(prng, s[0], s[1])
		want := naiveTranspose(m)
		for _, workers := range []int{1, 3, 0} {
			if got := m.Transpose(workers); !got.Equal(want) {
				t.Fatalf("transpose of %dx%d with %d workers does not match the bitwise transpose", s[0], s[1], workers)
			}
		}
	}
}

func TestTransposeInvolution(t *testing.T) {
	for _, s := range shapes {
		m := sampleMatrix(prng, s[0], s[1])
		tt := m.Transpose(0).Transpose(0)
		if !tt.Equal(m) {
			t.Fatalf("transpose(transpose(M)) != M for %dx%d", s[0], s[1])
		}
	}
}

func TestTransposeSerialParallelIdentical(t *testing.T) {
	m := sampleMatrix(prng, 128, 1<<14)
	serial := m.Transpose(1)
	for workers := 2; workers <= 8; workers++ {
		if !m.Transpose(workers).Equal(serial) {
			t.Fatalf("parallel transpose with %d workers differs from the reference path", workers)
		}
	}
}

func TestTranspose64Probe(t *testing.T) {
	// a single set bit per row moves to the mirrored position
	var a [tileBits]uint64
	for k := range a {
		a[k] = 1 << uint((k*7)%64)
	}
	transpose64(&a)
	for k := 0; k < tileBits; k++ {
		col := (k * 7) % 64
		if a[col]>>uint(k)&1 != 1 {
			t.Fatalf("bit (%d,%d) was not moved to (%d,%d)", k, col, col, k)
		}
	}
}

func TestClearPadding(t *testing.T) {
	m := NewBitMatrix(2, 70)
	for k := range m.words {
		m.words[k] = ^uint64(0)
	}
	m.ClearPadding()
	if m.Bit(0, 69) != true || m.Row(0)[1] != 1<<6-1 {
		t.Fatalf("padding was not cleared correctly, got %x", m.Row(0)[1])
	}
}

func TestSetAndBit(t *testing.T) {
	m := NewBitMatrix(3, 130)
	m.Set(2, 129, true)
	if !m.Bit(2, 129) || m.Bit(1, 129) {
		t.Fatalf("set bit not found at the expected position")
	}
	m.Set(2, 129, false)
	if m.Bit(2, 129) {
		t.Fatalf("bit was not cleared")
	}
}

func BenchmarkTranspose(b *testing.B) {
	for _, n := range []int{1 << 16, 1 << 20} {
		m := sampleMatrix(prng, 128, n)
		b.Run(fmt.Sprintf("serial/%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				m.Transpose(1)
			}
		})
		b.Run(fmt.Sprintf("parallel/%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				m.Transpose(0)
			}
		})
	}
}
