package otext

import (
	"crypto/rand"
	"fmt"

	"github.com/optable/otext/internal/crypto"
	"github.com/optable/otext/pkg/log"
	"github.com/optable/otext/pkg/message"
)

// nonceLen is the byte length of each peer's session nonce.
const nonceLen = 32

// session holds the public, per session derived values: the session
// id binding both nonces and the parameters, and the primitives keyed
// by it.
type session struct {
	id    [32]byte
	trace string
	prg   crypto.PRG
	crh   crypto.CorrelationRobustHash
}

func newSession(cfg Config, setupNonce, responseNonce []byte) (*session, error) {
	p := cfg.params()
	t := crypto.NewTranscript("otext/session")
	t.AppendUint64("kappa", uint64(p.Kappa))
	t.AppendUint64("variant", uint64(p.Variant))
	t.AppendUint64("batch", p.BatchSize)
	t.AppendUint64("msglen", uint64(p.MessageLen))
	t.AppendUint64("stat", uint64(p.StatSecurity))
	t.AppendUint64("group", uint64(p.Group))
	t.AppendUint64("hash", uint64(p.Hash))
	t.AppendUint64("prg", uint64(p.PRG))
	t.Append("setup nonce", setupNonce)
	t.Append("response nonce", responseNonce)

	s := &session{id: t.Sum()}
	s.trace = log.TraceID(s.id[:])

	domain := append([]byte("otext/prg/"), s.id[:]...)
	switch cfg.PRG {
	case PRGBlake3:
		s.prg = crypto.NewBlake3PRG(domain)
	case PRGAESCTR:
		s.prg = crypto.NewAESCTRPRG(domain)
	default:
		return nil, fmt.Errorf("%w: prg %d", ErrInvalidConfig, cfg.PRG)
	}

	kt := crypto.NewTranscript("otext/crh")
	kt.Append("session", s.id[:])
	key := kt.Sum()
	switch cfg.Hash {
	case HashBlake3:
		s.crh = crypto.NewBlake3Hash(key)
	case HashFixedKeyAES:
		var aesKey [16]byte
		copy(aesKey[:], key[:])
		h, err := crypto.NewFixedKeyAESHash(aesKey)
		if err != nil {
			return nil, err
		}
		s.crh = h
	default:
		return nil, fmt.Errorf("%w: hash %d", ErrInvalidConfig, cfg.Hash)
	}

	return s, nil
}

// checkTranscript starts the transcript of one extension, bound to the
// session and the batch shape.
func (s *session) checkTranscript(n, cols int) *crypto.Transcript {
	t := crypto.NewTranscript("otext/kos")
	t.Append("session", s.id[:])
	t.AppendUint64("n", uint64(n))
	t.AppendUint64("cols", uint64(cols))
	return t
}

func newNonce() ([]byte, error) {
	b := make([]byte, nonceLen)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// checkParams compares the peer's announced parameters with ours.
func checkParams(cfg Config, p message.Params) error {
	if mine := cfg.params(); mine != p {
		return fmt.Errorf("parameter mismatch: local %+v, peer %+v", mine, p)
	}
	return nil
}
