package crypto

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// combinerCustomization separates the combiner stream from any other
// cSHAKE use.
var combinerCustomization = []byte("otext/kos/combiner")

// Transcript accumulates the public messages of a session. Every
// entry is framed by its label and length, so distinct sequences of
// appends never collide.
type Transcript struct {
	h *blake3.Hasher
}

// NewTranscript starts a transcript under a protocol label.
func NewTranscript(label string) *Transcript {
	t := &Transcript{h: blake3.New()}
	t.Append("protocol", []byte(label))
	return t
}

// Append adds a labelled message.
func (t *Transcript) Append(label string, data []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(label)))
	t.h.Write(n[:])
	t.h.Write([]byte(label))
	binary.LittleEndian.PutUint64(n[:], uint64(len(data)))
	t.h.Write(n[:])
	t.h.Write(data)
}

// AppendUint64 adds a labelled integer.
func (t *Transcript) AppendUint64(label string, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	t.Append(label, b[:])
}

// Sum returns the 32 byte digest of everything appended so far.
func (t *Transcript) Sum() [32]byte {
	var d [32]byte
	copy(d[:], t.h.Sum(nil))
	return d
}

// Combiners expands the current digest into n field elements with
// cSHAKE256.
func (t *Transcript) Combiners(n int) []Element {
	d := t.Sum()
	xof := sha3.NewCShake256(nil, combinerCustomization)
	xof.Write(d[:])

	buf := make([]byte, n*ElementLen)
	xof.Read(buf)

	chi := make([]Element, n)
	for j := range chi {
		chi[j] = ElementFromBytes(buf[j*ElementLen:])
	}
	return chi
}
