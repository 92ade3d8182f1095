package crypto

import (
	"errors"
	"fmt"
	"sync"
)

// SeedLen is the byte length of a base OT seed.
const SeedLen = 16

var (
	ErrSeedConsumed = errors.New("seed has already been consumed")
	ErrSeedLength   = fmt.Errorf("seed must be %d bytes", SeedLen)
)

// Seed is a single-use PRG key produced by base OT. Copies of a Seed
// share the same key material, so once any copy is expanded every
// copy reports it as consumed and the key is wiped.
type Seed struct {
	s *seedState
}

type seedState struct {
	mu       sync.Mutex
	key      [SeedLen]byte
	consumed bool
}

// NewSeed copies key into a fresh seed.
func NewSeed(key []byte) (Seed, error) {
	if len(key) != SeedLen {
		return Seed{}, ErrSeedLength
	}

	s := &seedState{}
	copy(s.key[:], key)
	return Seed{s: s}, nil
}

// Consumed reports whether the seed was already used, or was never
// initialized.
func (s Seed) Consumed() bool {
	if s.s == nil {
		return true
	}

	s.s.mu.Lock()
	defer s.s.mu.Unlock()
	return s.s.consumed
}

// take hands out the key exactly once and wipes it from the seed.
func (s Seed) take() (key [SeedLen]byte, err error) {
	if s.s == nil {
		return key, ErrSeedConsumed
	}

	s.s.mu.Lock()
	defer s.s.mu.Unlock()
	if s.s.consumed {
		return key, ErrSeedConsumed
	}

	key = s.s.key
	s.s.key = [SeedLen]byte{}
	s.s.consumed = true
	return key, nil
}

// SeedPair holds the two seeds of one base OT, indexed by choice bit.
type SeedPair [2]Seed
