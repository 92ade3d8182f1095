package baseot

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/optable/otext/internal/crypto"
	"github.com/zeebo/blake3"
)

// simplest OT of Chou and Orlandi: the sender publishes A = aG, the
// receiver answers B = bG (choice 0) or B = A + bG (choice 1). The
// sender keys are H(aB) and H(a(B - A)); the receiver key is H(bA).

var seedDomain = []byte("otext/baseot/seed")

type simplestSender struct {
	g group
	a secret
}

type simplestReceiver struct {
	g       group
	A       [EncodedLen]byte
	b       []secret
	B       [][EncodedLen]byte
	choices *bitset.BitSet
}

func (s *simplestSender) Setup() (*PublicParams, error) {
	a, err := s.g.random()
	if err != nil {
		return nil, err
	}
	s.a = a

	return &PublicParams{Point: a.public()}, nil
}

func (s *simplestSender) Send(resp *Response, kappa int) ([]crypto.SeedPair, error) {
	if s.a == nil {
		return nil, ErrNotReady
	}
	if kappa <= 0 || resp == nil || len(resp.Points) != kappa {
		return nil, ErrInvalidParams
	}

	A := s.a.public()
	// T = aA
	T, err := s.a.mult(A)
	if err != nil {
		return nil, err
	}

	pairs := make([]crypto.SeedPair, kappa)
	for i, B := range resp.Points {
		// k0 = aB
		K0, err := s.a.mult(B)
		if err != nil {
			return nil, fmt.Errorf("base OT %d: %w", i, err)
		}
		// k1 = a(B - A) = aB - aA
		K1, err := s.g.sub(K0, T)
		if err != nil {
			return nil, fmt.Errorf("base OT %d: %w", i, err)
		}

		for choice, K := range [2][EncodedLen]byte{K0, K1} {
			if pairs[i][choice], err = deriveSeed(i, A, B, K); err != nil {
				return nil, err
			}
		}
	}

	// the secret scalar is single use
	s.a = nil
	return pairs, nil
}

func (r *simplestReceiver) Setup(params *PublicParams, kappa int) (*Response, error) {
	if kappa <= 0 || params == nil {
		return nil, ErrInvalidParams
	}
	if err := r.g.validate(params.Point); err != nil {
		return nil, err
	}
	r.A = params.Point

	choices, err := randomBits(kappa)
	if err != nil {
		return nil, err
	}
	r.choices = choices

	r.b = make([]secret, kappa)
	r.B = make([][EncodedLen]byte, kappa)
	for i := range r.b {
		b, err := r.g.random()
		if err != nil {
			return nil, err
		}
		r.b[i] = b
		r.B[i] = b.public()

		// B = A + bG
		if choices.Test(uint(i)) {
			if r.B[i], err = r.g.add(r.A, r.B[i]); err != nil {
				return nil, err
			}
		}
	}

	return &Response{Points: r.B}, nil
}

func (r *simplestReceiver) Receive() ([]crypto.Seed, *bitset.BitSet, error) {
	if r.b == nil {
		return nil, nil, ErrNotReady
	}

	seeds := make([]crypto.Seed, len(r.b))
	for i, b := range r.b {
		// k = bA
		K, err := b.mult(r.A)
		if err != nil {
			return nil, nil, err
		}
		if seeds[i], err = deriveSeed(i, r.A, r.B[i], K); err != nil {
			return nil, nil, err
		}
	}

	choices := r.choices
	r.b, r.B, r.choices = nil, nil, nil
	return seeds, choices, nil
}

// deriveSeed hashes the shared point together with the transcript of
// base OT i into a 128 bit seed.
func deriveSeed(i int, A, B, K [EncodedLen]byte) (crypto.Seed, error) {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(i))

	h := blake3.New()
	h.Write(seedDomain)
	h.Write(idx[:])
	h.Write(A[:])
	h.Write(B[:])
	h.Write(K[:])

	return crypto.NewSeed(h.Sum(nil)[:crypto.SeedLen])
}

func randomBits(n int) (*bitset.BitSet, error) {
	buf := make([]byte, (n+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	bits := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		if buf[i/8]>>(uint(i)%8)&1 == 1 {
			bits.Set(uint(i))
		}
	}
	return bits, nil
}
