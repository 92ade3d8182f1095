package util

// Transpose returns the cols x rows transpose of m. The matrix is cut
// into 64x64 tiles; every tile is transposed in registers and written
// to its mirrored position. Output tile rows are split across workers
// so each worker owns a disjoint region of the result. workers <= 0
// uses GOMAXPROCS, workers == 1 runs on the calling goroutine.
func (m *BitMatrix) Transpose(workers int) *BitMatrix {
	t := NewBitMatrix(m.cols, m.rows)

	// tile grid of m: Pad(rows,64)/64 tile rows by stride tile columns.
	tileRows := t.stride
	tileCols := m.stride

	// Parallel never fails with an infallible body.
	_ = Parallel(workers, tileCols, func(lo, hi int) error {
		var tile [tileBits]uint64
		for bj := lo; bj < hi; bj++ {
			for bi := 0; bi < tileRows; bi++ {
				m.loadTile(&tile, bi, bj)
				transpose64(&tile)
				t.storeTile(&tile, bj, bi)
			}
		}
		return nil
	})

	return t
}

// loadTile copies tile (bi, bj) of m into tile.
func (m *BitMatrix) loadTile(tile *[tileBits]uint64, bi, bj int) {
	base := bi*tileBits*m.stride + bj
	for k := range tile {
		tile[k] = m.words[base+k*m.stride]
	}
}

// storeTile writes tile into position (bi, bj) of m.
func (m *BitMatrix) storeTile(tile *[tileBits]uint64, bi, bj int) {
	base := bi*tileBits*m.stride + bj
	for k := range tile {
		m.words[base+k*m.stride] = tile[k]
	}
}

// transpose64 transposes a 64x64 bit block in place, where bit l of
// a[k] is the element at row k, column l. Each pass swaps the
// off-diagonal quadrants of every 2j x 2j sub-block, halving j from 32
// down to 1.
func transpose64(a *[tileBits]uint64) {
	j := uint(32)
	mask := uint64(0x00000000FFFFFFFF)
	for j != 0 {
		for k := uint(0); k < tileBits; k = (k + j + 1) &^ j {
			swap(a, k, k+j, mask, j)
		}
		j >>= 1
		mask ^= mask << j
	}
}

// swap exchanges the high half (under mask<<width) of a[lo] with the
// low half (under mask) of a[hi].
func swap(a *[tileBits]uint64, lo, hi uint, mask uint64, width uint) {
	t := ((a[lo] >> width) ^ a[hi]) & mask
	a[lo] ^= t << width
	a[hi] ^= t
}
