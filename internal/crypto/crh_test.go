package crypto

import (
	"bytes"
	"testing"
)

func testHashes(t *testing.T) []CorrelationRobustHash {
	var key [32]byte
	var aesKey [16]byte
	prng.Read(key[:])
	prng.Read(aesKey[:])

	a, err := NewFixedKeyAESHash(aesKey)
	if err != nil {
		t.Fatal(err)
	}
	return []CorrelationRobustHash{NewBlake3Hash(key), a}
}

func TestCorrelationRobustHash(t *testing.T) {
	for _, h := range testHashes(t) {
		for _, rowLen := range []int{16, 32} {
			row := make([]byte, rowLen)
			delta := make([]byte, rowLen)
			prng.Read(row)
			prng.Read(delta)

			shifted := append([]byte(nil), row...)
			for i := range shifted {
				shifted[i] ^= delta[i]
			}

			for _, outLen := range []int{1, 16, 33} {
				a := make([]byte, outLen)
				b := make([]byte, outLen)
				c := make([]byte, outLen)
				d := make([]byte, outLen)

				h.Hash(a, row, 3)
				h.Clone().Hash(b, row, 3)
				h.Hash(c, row, 4)
				h.Hash(d, shifted, 3)

				if !bytes.Equal(a, b) {
					t.Fatalf("clone does not reproduce the hash")
				}
				if outLen >= 16 && bytes.Equal(a, c) {
					t.Fatalf("index does not separate outputs")
				}
				if outLen >= 16 && bytes.Equal(a, d) {
					t.Fatalf("correlated rows hash to the same mask")
				}
			}
		}
	}
}

func TestTranscriptCombiners(t *testing.T) {
	a := NewTranscript("test")
	b := NewTranscript("test")
	a.Append("rows", []byte{1, 2, 3})
	b.Append("rows", []byte{1, 2, 3})

	chiA := a.Combiners(10)
	chiB := b.Combiners(10)
	for j := range chiA {
		if chiA[j] != chiB[j] {
			t.Fatalf("identical transcripts derive different combiners")
		}
	}

	b.AppendUint64("n", 1)
	if b.Combiners(1)[0] == chiA[0] {
		t.Fatalf("extending the transcript did not change the combiners")
	}

	// label framing: ("ab","c") and ("a","bc") differ
	c := NewTranscript("test")
	d := NewTranscript("test")
	c.Append("ab", []byte("c"))
	d.Append("a", []byte("bc"))
	if c.Sum() == d.Sum() {
		t.Fatalf("transcript framing is ambiguous")
	}
}
