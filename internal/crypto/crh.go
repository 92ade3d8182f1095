package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// CorrelationRobustHash maps a matrix row and its instance index to a
// mask of len(dst) bytes. Outputs stay pseudorandom when queried on
// rows sharing a fixed XOR offset. An instance is not safe for
// concurrent use; Clone returns an independent one per goroutine.
type CorrelationRobustHash interface {
	Hash(dst, row []byte, index uint64)
	Clone() CorrelationRobustHash
}

type blake3Hash struct {
	key [32]byte
	h   *blake3.Hasher
}

// NewBlake3Hash returns a CorrelationRobustHash computing the keyed
// blake3 XOF of index || row.
func NewBlake3Hash(key [32]byte) CorrelationRobustHash {
	// keys of 32 bytes never fail
	h, _ := blake3.NewKeyed(key[:])
	return &blake3Hash{key: key, h: h}
}

func (b *blake3Hash) Hash(dst, row []byte, index uint64) {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)

	b.h.Reset()
	b.h.Write(idx[:])
	b.h.Write(row)
	b.h.Digest().Read(dst)
}

func (b *blake3Hash) Clone() CorrelationRobustHash {
	return NewBlake3Hash(b.key)
}

type aesHash struct {
	block cipher.Block
}

// NewFixedKeyAESHash returns the tweakable correlation robust hash
// H(x, i) = pi(sigma XOR (i, k)) XOR sigma per 16 byte output block k,
// where pi is AES under a public fixed key and sigma, the XOR over c of
// pi(x_c XOR c), folds the 16 byte chunks of the row.
func NewFixedKeyAESHash(key [16]byte) (CorrelationRobustHash, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return &aesHash{block: block}, nil
}

func (a *aesHash) Hash(dst, row []byte, index uint64) {
	var sigma, buf [aes.BlockSize]byte
	for c := 0; c*aes.BlockSize < len(row); c++ {
		buf = [aes.BlockSize]byte{}
		copy(buf[:], row[c*aes.BlockSize:])
		binary.LittleEndian.PutUint64(buf[8:], binary.LittleEndian.Uint64(buf[8:])^uint64(c))
		a.block.Encrypt(buf[:], buf[:])
		xorBlock(&sigma, &buf)
	}

	for k := 0; k*aes.BlockSize < len(dst); k++ {
		binary.LittleEndian.PutUint64(buf[:8], index)
		binary.LittleEndian.PutUint64(buf[8:], uint64(k))
		xorBlock(&buf, &sigma)
		a.block.Encrypt(buf[:], buf[:])
		xorBlock(&buf, &sigma)
		copy(dst[k*aes.BlockSize:], buf[:])
	}
}

// Clone shares the cipher: AES encryption keeps no mutable state.
func (a *aesHash) Clone() CorrelationRobustHash {
	return &aesHash{block: a.block}
}

func xorBlock(dst, a *[aes.BlockSize]byte) {
	for i := range dst {
		dst[i] ^= a[i]
	}
}
