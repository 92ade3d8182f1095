package otext

import (
	"github.com/optable/otext/internal/crypto"
	"github.com/optable/otext/internal/util"
)

// Derandomization. Every variant is a pure function over the
// transposed matrix: row j of the sender's matrix is q_j, of the
// receiver's t_j = q_j XOR r_j*delta. The sender's pads are H(j, q_j)
// and H(j, q_j XOR delta); the receiver can compute exactly the one matching r_j.

// senderPads returns both pads of the first n instances.
func senderPads(q *util.BitMatrix, delta []uint64, n, msgLen int, h crypto.CorrelationRobustHash, workers int) (pad0, pad1 [][]byte) {
	pad0 = make([][]byte, n)
	pad1 = make([][]byte, n)

	_ = util.Parallel(workers, n, func(lo, hi int) error {
		h := h.Clone()
		shifted := make([]uint64, q.Stride())
		for j := lo; j < hi; j++ {
			row := q.Row(j)
			pad0[j] = make([]byte, msgLen)
			h.Hash(pad0[j], util.WordsAsBytes(row), uint64(j))

			copy(shifted, row)
			util.XorWords(shifted, delta)
			pad1[j] = make([]byte, msgLen)
			h.Hash(pad1[j], util.WordsAsBytes(shifted), uint64(j))
		}
		return nil
	})
	return
}

// receiverPads returns the pad of each of the first n instances.
func receiverPads(t *util.BitMatrix, n, msgLen int, h crypto.CorrelationRobustHash, workers int) [][]byte {
	pads := make([][]byte, n)

	_ = util.Parallel(workers, n, func(lo, hi int) error {
		h := h.Clone()
		for j := lo; j < hi; j++ {
			pads[j] = make([]byte, msgLen)
			h.Hash(pads[j], util.WordsAsBytes(t.Row(j)), uint64(j))
		}
		return nil
	})
	return pads
}

// senderRelease turns the pads into the sender's outputs and the
// masks sent to the receiver.
//  Random:     outputs (pad0, pad1), no masks
//  Correlated: outputs (pad0, pad0 XOR delta), mask pad1 XOR pad0 XOR delta
//  Chosen:     outputs the input pairs, masks pad0 XOR m0, pad1 XOR m1
func senderRelease(v Variant, in SenderInput, pad0, pad1 [][]byte) (outputs []MessagePair, masks [][]byte) {
	n := len(pad0)
	outputs = make([]MessagePair, n)

	switch v {
	case Random:
		for j := range outputs {
			outputs[j] = MessagePair{pad0[j], pad1[j]}
		}

	case Correlated:
		masks = make([][]byte, n)
		for j := range outputs {
			m1, _ := util.XorBytes(pad0[j], in.delta)
			outputs[j] = MessagePair{pad0[j], m1}

			masks[j] = pad1[j]
			util.Xor(masks[j], m1)
		}

	case Chosen:
		masks = make([][]byte, 2*n)
		for j := range outputs {
			outputs[j] = in.pairs[j]
			masks[2*j], _ = util.XorBytes(pad0[j], in.pairs[j][0])
			masks[2*j+1], _ = util.XorBytes(pad1[j], in.pairs[j][1])
		}
	}
	return
}

// maskCount is the number of masks the sender releases for n instances.
func maskCount(v Variant, n int) int {
	switch v {
	case Correlated:
		return n
	case Chosen:
		return 2 * n
	default:
		return 0
	}
}

// receiverRelease recovers the chosen message of every instance from
// its pad and the sender's masks. Selection by the choice bit is
// branch free.
func receiverRelease(v Variant, choices []uint64, pads, masks [][]byte) [][]byte {
	out := make([][]byte, len(pads))
	for j, pad := range pads {
		sel := byte(util.BitMask(choices, j))
		out[j] = pad

		switch v {
		case Correlated:
			for k := range pad {
				pad[k] ^= masks[j][k] & sel
			}
		case Chosen:
			y0, y1 := masks[2*j], masks[2*j+1]
			for k := range pad {
				pad[k] ^= y0[k] ^ ((y0[k] ^ y1[k]) & sel)
			}
		}
	}
	return out
}
