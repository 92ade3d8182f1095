package otext

import (
	"github.com/optable/otext/internal/crypto"
	"github.com/optable/otext/internal/util"
)

// expandMatrix returns a len(seeds) x cols matrix whose row i is the
// PRG stream of seeds[i]. Every seed is consumed.
func expandMatrix(prg crypto.PRG, seeds []crypto.Seed, cols, workers int) (*util.BitMatrix, error) {
	m := util.NewBitMatrix(len(seeds), cols)
	err := util.Parallel(workers, len(seeds), func(lo, hi int) error {
		buf := make([]byte, 8*m.Stride())
		for i := lo; i < hi; i++ {
			if err := prg.Expand(buf, seeds[i], uint64(i)); err != nil {
				return err
			}
			util.BytesIntoWords(m.Row(i), buf)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.ClearPadding()
	return m, nil
}

// matrixRows encodes the rows of m for the wire.
func matrixRows(m *util.BitMatrix) [][]byte {
	rows := make([][]byte, m.Rows())
	for i := range rows {
		rows[i] = append([]byte(nil), util.WordsAsBytes(m.Row(i))...)
	}
	return rows
}

// deltaWords packs the sender's base choice bits into kappa bits of
// words.
func deltaWords(kappa int, bit func(i int) bool) []uint64 {
	w := make([]uint64, util.WordsForBits(kappa))
	for i := 0; i < kappa; i++ {
		if bit(i) {
			util.SetBit(w, i)
		}
	}
	return w
}
