package otext

import (
	"github.com/optable/otext/internal/baseot"
	"github.com/optable/otext/pkg/message"
)

const (
	// MinKappa is the security floor for the number of base OTs.
	MinKappa = 128
	// MinStatSecurity is the floor for the statistical security parameter.
	MinStatSecurity = 40

	DefaultKappa        = 128
	DefaultMessageLen   = 16
	DefaultStatSecurity = 64

	// MaxMessageLen bounds the byte length of a single OT message.
	MaxMessageLen = 1 << 20

	// blockBits is the column granularity of the extension matrices.
	blockBits = 512
	// chunkBits is the width of one GF(2^128) element of a matrix row.
	chunkBits = 128
)

// Variant selects what an extension produces. It is fixed when the
// session is created.
type Variant uint8

const (
	// Random OT: pseudorandom pairs, no sender input.
	Random Variant = iota
	// Correlated OT: the second message of every pair is the first
	// one XOR a fixed delta.
	Correlated
	// Chosen message OT: the sender supplies both messages of every pair.
	Chosen
)

func (v Variant) String() string {
	switch v {
	case Random:
		return "random"
	case Correlated:
		return "correlated"
	case Chosen:
		return "chosen"
	default:
		return "undefined"
	}
}

// Group is the group the base OTs run in.
type Group = baseot.Group

const (
	GroupRistretto    = baseot.GroupRistretto
	GroupRistretto255 = baseot.GroupRistretto255
)

// HashKind selects the correlation robust hash.
type HashKind uint8

const (
	// HashBlake3 is keyed blake3 in XOF mode.
	HashBlake3 HashKind = iota
	// HashFixedKeyAES is the fixed-key AES tweakable correlation robust hash.
	HashFixedKeyAES
)

// PRGKind selects the seed expansion.
type PRGKind uint8

const (
	// PRGBlake3 reads the blake3 XOF.
	PRGBlake3 PRGKind = iota
	// PRGAESCTR runs AES-128 in counter mode.
	PRGAESCTR
)

// Config holds the parameters of a session. Every field but Workers
// must be identical on both peers.
type Config struct {
	// Kappa is the number of base OTs; a multiple of 128, at least MinKappa.
	Kappa int
	// Variant is fixed for the life of the session.
	Variant Variant
	// BatchSize is the number of OTs per extension; 0 accepts any size.
	BatchSize int
	// MessageLen is the byte length of every OT message.
	MessageLen int
	// StatSecurity is the statistical security parameter of the
	// consistency check.
	StatSecurity int
	Group        Group
	Hash         HashKind
	PRG          PRGKind
	// Workers bounds the goroutines used for expansion, transposition
	// and hashing. 0 uses GOMAXPROCS and 1 runs everything on the
	// calling goroutine.
	Workers int
}

// DefaultConfig returns a configuration for random OT with 128 base
// OTs and 16 byte messages.
func DefaultConfig() Config {
	return Config{
		Kappa:        DefaultKappa,
		Variant:      Random,
		MessageLen:   DefaultMessageLen,
		StatSecurity: DefaultStatSecurity,
		Group:        GroupRistretto,
		Hash:         HashBlake3,
		PRG:          PRGBlake3,
	}
}

// Validate rejects insecure or inconsistent parameters.
func (c Config) Validate() error {
	switch {
	case c.Kappa < MinKappa || c.Kappa%chunkBits != 0:
		return &ConfigError{Field: "Kappa", Err: ErrInsecureSecurityParameter}
	case c.StatSecurity < MinStatSecurity:
		return &ConfigError{Field: "StatSecurity", Err: ErrInsecureSecurityParameter}
	case c.Variant > Chosen:
		return &ConfigError{Field: "Variant", Err: ErrInvalidConfig}
	case c.BatchSize < 0:
		return &ConfigError{Field: "BatchSize", Err: ErrInvalidConfig}
	case c.MessageLen <= 0 || c.MessageLen > MaxMessageLen:
		return &ConfigError{Field: "MessageLen", Err: ErrInvalidConfig}
	case c.Group != GroupRistretto && c.Group != GroupRistretto255:
		return &ConfigError{Field: "Group", Err: ErrInvalidConfig}
	case c.Hash > HashFixedKeyAES:
		return &ConfigError{Field: "Hash", Err: ErrInvalidConfig}
	case c.PRG > PRGAESCTR:
		return &ConfigError{Field: "PRG", Err: ErrInvalidConfig}
	case c.Workers < 0:
		return &ConfigError{Field: "Workers", Err: ErrInvalidConfig}
	}
	return nil
}

// params returns the parameters announced to the peer.
func (c Config) params() message.Params {
	return message.Params{
		Kappa:        uint32(c.Kappa),
		Variant:      uint8(c.Variant),
		BatchSize:    uint64(c.BatchSize),
		MessageLen:   uint32(c.MessageLen),
		StatSecurity: uint32(c.StatSecurity),
		Group:        uint8(c.Group),
		Hash:         uint8(c.Hash),
		PRG:          uint8(c.PRG),
	}
}

// extendedWidth is the number of matrix columns for a batch of n: the
// n real instances, kappa + s masking instances for the consistency
// check, padded to the block size.
func (c Config) extendedWidth(n int) int {
	return padBlocks(n + c.Kappa + c.StatSecurity)
}

func padBlocks(n int) int {
	return (n + blockBits - 1) / blockBits * blockBits
}
