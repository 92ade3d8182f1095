package otext

import (
	"crypto/subtle"

	"github.com/optable/otext/internal/crypto"
	"github.com/optable/otext/internal/util"
)

// The consistency check of Keller, Orsini and Scholl (KOS15). After the
// receiver committed to U, both sides derive combiners chi_j from the
// transcript and the sender's combiner seed. Over the transposed rows
// q_j = t_j XOR r_j*delta the receiver reveals
//
//  x = sum r_j*chi_j    t = sum t_j*chi_j
//
// and the sender accepts iff sum q_j*chi_j = t XOR x*delta. Each kappa
// bit row is processed as kappa/128 independent GF(2^128) elements. The
// kappa + s random padding instances mask x and t.

// checkParts is the number of row ranges the check accumulates
// independently before merging.
func checkParts(rows int) int {
	return rows / blockBits
}

// combineRows returns, for every 128 bit chunk c, the sum of
// chi_j*row_j[c] over the rows of m. If choices is not nil it also
// returns the sum of r_j*chi_j, branch free in the bits r_j.
func combineRows(m *util.BitMatrix, chi []crypto.Element, choices []uint64, workers int) (sums []crypto.Element, x crypto.Element) {
	chunks := m.Cols() / chunkBits
	parts := checkParts(m.Rows())
	partial := make([][]crypto.Accumulator, parts)
	partialX := make([]crypto.Element, parts)

	// Parallel never fails with an infallible body.
	_ = util.Parallel(workers, parts, func(lo, hi int) error {
		for p := lo; p < hi; p++ {
			acc := make([]crypto.Accumulator, chunks)
			var px crypto.Element
			for j := p * blockBits; j < (p+1)*blockBits; j++ {
				row := m.Row(j)
				for c := range acc {
					acc[c].MulAdd(chi[j], crypto.ElementFromWords(row[2*c:]))
				}
				if choices != nil {
					mask := util.BitMask(choices, j)
					px[0] ^= chi[j][0] & mask
					px[1] ^= chi[j][1] & mask
				}
			}
			partial[p] = acc
			partialX[p] = px
		}
		return nil
	})

	total := make([]crypto.Accumulator, chunks)
	for p := range partial {
		for c := range total {
			total[c].Merge(&partial[p][c])
		}
		x = x.Add(partialX[p])
	}

	sums = make([]crypto.Element, chunks)
	for c := range sums {
		sums[c] = total[c].Sum()
	}
	return sums, x
}

// verifyCheck reports whether q = t XOR x*delta chunk by chunk, comparing in
// constant time.
func verifyCheck(q, t []crypto.Element, x crypto.Element, delta []uint64) bool {
	if len(q) != len(t) {
		return false
	}

	var got, want []byte
	for c := range q {
		d := crypto.ElementFromWords(delta[2*c:])
		got = append(got, q[c].Bytes()...)
		want = append(want, t[c].Add(x.Mul(d)).Bytes()...)
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func encodeElements(es []crypto.Element) []byte {
	b := make([]byte, 0, len(es)*crypto.ElementLen)
	for _, e := range es {
		b = append(b, e.Bytes()...)
	}
	return b
}

func decodeElements(b []byte) []crypto.Element {
	es := make([]crypto.Element, len(b)/crypto.ElementLen)
	for i := range es {
		es[i] = crypto.ElementFromBytes(b[i*crypto.ElementLen:])
	}
	return es
}
