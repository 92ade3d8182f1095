package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// PRG expands a seed into an arbitrary long pseudorandom stream.
// Expand consumes the seed: a second expansion of the same seed fails
// with ErrSeedConsumed. The tweak separates streams of distinct seeds
// within one session.
type PRG interface {
	Expand(dst []byte, seed Seed, tweak uint64) error
}

type blake3PRG struct {
	domain []byte
}

// NewBlake3PRG returns a PRG reading the extendable output of
// blake3(domain || tweak || seed).
func NewBlake3PRG(domain []byte) PRG {
	return blake3PRG{domain: append([]byte(nil), domain...)}
}

func (p blake3PRG) Expand(dst []byte, seed Seed, tweak uint64) error {
	key, err := seed.take()
	if err != nil {
		return err
	}
	defer wipe(key[:])

	return PseudorandomGenerate(dst, p.domain, tweak, key[:])
}

// PseudorandomGenerate fills dst from the blake3 XOF over
// domain || little-endian tweak || key. The output is as long as dst;
// distinct tweaks give independent streams for one key.
func PseudorandomGenerate(dst, domain []byte, tweak uint64, key []byte) error {
	var t [8]byte
	binary.LittleEndian.PutUint64(t[:], tweak)

	h := blake3.New()
	h.Write(domain)
	h.Write(t[:])
	h.Write(key)

	_, err := h.Digest().Read(dst)
	return err
}

type aesCTRPRG struct {
	domain []byte
}

// NewAESCTRPRG returns a PRG running AES-128 in counter mode keyed
// by the seed. The counter block is derived from domain and tweak.
func NewAESCTRPRG(domain []byte) PRG {
	return aesCTRPRG{domain: append([]byte(nil), domain...)}
}

func (p aesCTRPRG) Expand(dst []byte, seed Seed, tweak uint64) error {
	key, err := seed.take()
	if err != nil {
		return err
	}
	defer wipe(key[:])

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return err
	}

	var t [8]byte
	binary.LittleEndian.PutUint64(t[:], tweak)
	h := blake3.New()
	h.Write(p.domain)
	h.Write(t[:])
	iv := h.Sum(nil)[:aes.BlockSize]

	for i := range dst {
		dst[i] = 0
	}
	cipher.NewCTR(block, iv).XORKeyStream(dst, dst)
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
