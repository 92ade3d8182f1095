package otext

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/optable/otext/internal/baseot"
	"github.com/optable/otext/internal/crypto"
	"github.com/optable/otext/internal/util"
	"github.com/optable/otext/pkg/message"
)

// combinerSeedLen is the byte length of the sender's challenge.
const combinerSeedLen = 32

// Sender is the sending side of an OT extension session. In the base
// OT phase it plays the base OT receiver: its random base choice bits
// become the correlation delta of the extension matrix.
//
// Handle is a pure transition over incoming messages; BaseSetup and
// Extend drive it over a channel. A Sender is not safe for concurrent
// use.
type Sender struct {
	machine
	cfg  Config
	base baseot.Receiver
	sess *session

	// base OT output, consumed by the extension
	seeds []crypto.Seed
	delta []uint64

	// extension batch state
	n          int
	input      *SenderInput
	q          *util.BitMatrix
	transcript *crypto.Transcript
	outputs    []MessagePair
}

// NewSender validates cfg and returns a sender in StateInit.
func NewSender(cfg Config) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := baseot.NewReceiver(cfg.Group)
	if err != nil {
		return nil, &ConfigError{Field: "Group", Err: err}
	}

	s := &Sender{cfg: cfg, base: base}
	s.machine.wipe = s.wipe
	return s, nil
}

// Config returns the session configuration.
func (s *Sender) Config() Config {
	return s.cfg
}

// Prepare supplies the input of the next extension of n OTs. It must
// be called in StateSeedsLoaded, before the receiver's commitment is
// handled.
func (s *Sender) Prepare(input SenderInput, n int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := validateBatch(s.cfg, n); err != nil {
		return err
	}
	if err := input.validate(s.cfg, n); err != nil {
		return err
	}

	s.n = n
	s.input = &input
	return nil
}

// ready reports whether an extension can start.
func (s *Sender) ready() error {
	if s.err == nil && s.state > StateSeedsLoaded {
		return ErrSeedsConsumed
	}
	return s.expect(StateSeedsLoaded)
}

// Handle advances the session with an incoming message and returns the
// messages to send back. An error is terminal unless it wraps
// ErrUnexpectedState for a local call made out of order; the
// returned messages must still be delivered to the peer.
func (s *Sender) Handle(msg message.Message) ([]message.Message, error) {
	if m, ok := msg.(*message.Abort); ok {
		return nil, s.abort(peerAbortReason(m), errPeerAbort)
	}
	if s.err != nil {
		return nil, s.err
	}

	switch m := msg.(type) {
	case *message.BaseOtSetup:
		if s.state == StateInit {
			return s.handleSetup(m)
		}
	case *message.ExtensionMatrixCommit:
		if s.state == StateSeedsLoaded {
			if s.input == nil {
				return nil, fmt.Errorf("%w: commitment received before Prepare", ErrUnexpectedState)
			}
			return s.handleCommit(m)
		}
	case *message.ExtensionCheckResponse:
		if s.state == StateChallengeReceived {
			return s.handleCheck(m)
		}
	}

	return s.reject(fmt.Errorf("unexpected %v in state %v", typeOf(msg), s.state))
}

// reject aborts because of the peer and tells it so.
func (s *Sender) reject(cause error) ([]message.Message, error) {
	return []message.Message{&message.Abort{Reason: message.AbortProtocol}}, s.abort(ReasonAbortedByPeer, cause)
}

func (s *Sender) handleSetup(m *message.BaseOtSetup) ([]message.Message, error) {
	if err := checkParams(s.cfg, m.Params); err != nil {
		return s.reject(err)
	}
	if len(m.Nonce) != nonceLen || len(m.Point) != baseot.EncodedLen {
		return s.reject(errors.New("malformed base OT setup"))
	}

	var params baseot.PublicParams
	copy(params.Point[:], m.Point)
	resp, err := s.base.Setup(&params, s.cfg.Kappa)
	if err != nil {
		if errors.Is(err, baseot.ErrMalformedPoint) {
			return s.reject(err)
		}
		return nil, s.abort(ReasonInternal, err)
	}

	seeds, choices, err := s.base.Receive()
	if err != nil {
		return nil, s.abort(ReasonInternal, err)
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, s.abort(ReasonInternal, err)
	}
	if s.sess, err = newSession(s.cfg, m.Nonce, nonce); err != nil {
		return nil, s.abort(ReasonInternal, err)
	}

	s.seeds = seeds
	s.delta = deltaWords(s.cfg.Kappa, func(i int) bool { return choices.Test(uint(i)) })
	s.advance(StateSeedsLoaded)

	out := &message.BaseOtResponse{Nonce: nonce, Points: make([][]byte, len(resp.Points))}
	for i := range resp.Points {
		out.Points[i] = append([]byte(nil), resp.Points[i][:]...)
	}
	return []message.Message{out}, nil
}

func (s *Sender) handleCommit(m *message.ExtensionMatrixCommit) ([]message.Message, error) {
	cols := s.cfg.extendedWidth(s.n)
	if m.BatchSize != uint64(s.n) {
		return s.reject(fmt.Errorf("commitment for %d OTs, expected %d", m.BatchSize, s.n))
	}
	if len(m.Rows) != s.cfg.Kappa {
		return s.reject(fmt.Errorf("commitment has %d rows, expected %d", len(m.Rows), s.cfg.Kappa))
	}
	for i, row := range m.Rows {
		if len(row) != cols/8 {
			return s.reject(fmt.Errorf("commitment row %d has %d bytes, expected %d", i, len(row), cols/8))
		}
	}

	// the seeds move into the expansion and are gone afterwards
	seeds := s.seeds
	s.seeds = nil
	Q, err := expandMatrix(s.sess.prg, seeds, cols, s.cfg.Workers)
	if err != nil {
		return nil, s.abort(ReasonInternal, err)
	}

	// Q_i = G(k_{s_i}) ^ s_i * U_i
	s.transcript = s.sess.checkTranscript(s.n, cols)
	u := make([]uint64, Q.Stride())
	for i, row := range m.Rows {
		s.transcript.Append("row", row)
		util.BytesIntoWords(u, row)
		util.MaskXorWords(Q.Row(i), u, util.BitMask(s.delta, i))
	}
	s.advance(StateMatrixCommitted)

	// the challenge exists only now that U is fixed
	seed := make([]byte, combinerSeedLen)
	if _, err := rand.Read(seed); err != nil {
		return nil, s.abort(ReasonInternal, err)
	}
	s.transcript.Append("combiner", seed)
	s.advance(StateChallengeReceived)

	s.q = Q.Transpose(s.cfg.Workers)
	Q.Wipe()

	return []message.Message{&message.ExtensionChallenge{CombinerSeed: seed}}, nil
}

func (s *Sender) handleCheck(m *message.ExtensionCheckResponse) ([]message.Message, error) {
	chunks := s.cfg.Kappa / chunkBits
	if len(m.X) != crypto.ElementLen || len(m.T) != chunks*crypto.ElementLen {
		return s.reject(errors.New("malformed check response"))
	}

	chi := s.transcript.Combiners(s.q.Rows())
	qSums, _ := combineRows(s.q, chi, nil, s.cfg.Workers)
	if !verifyCheck(qSums, decodeElements(m.T), crypto.ElementFromBytes(m.X), s.delta) {
		return []message.Message{&message.Abort{Reason: message.AbortConsistencyCheck}},
			s.abort(ReasonConsistencyCheckFailed, ErrConsistencyCheckFailed)
	}
	s.advance(StateChecked)

	pad0, pad1 := senderPads(s.q, s.delta, s.n, s.cfg.MessageLen, s.sess.crh, s.cfg.Workers)
	outputs, masks := senderRelease(s.cfg.Variant, *s.input, pad0, pad1)

	s.outputs = outputs
	s.wipe()
	s.advance(StateOutputsReady)
	return []message.Message{&message.ExtensionPayload{Masks: masks}}, nil
}

// Outputs returns the message pairs of the completed extension. For
// random OT they are the pseudorandom pairs, for correlated OT they
// satisfy m1 = m0 XOR delta, for chosen OT they are the input pairs.
func (s *Sender) Outputs() ([]MessagePair, error) {
	if s.state != StateOutputsReady {
		return nil, ErrOutputsUnavailable
	}
	return s.outputs, nil
}

// wipe drops the secret state of the session.
func (s *Sender) wipe() {
	if s.q != nil {
		s.q.Wipe()
		s.q = nil
	}
	for i := range s.delta {
		s.delta[i] = 0
	}
	s.seeds = nil
	s.input = nil
	s.transcript = nil
	if s.state == StateAborted {
		s.outputs = nil
	}
}

func validateBatch(cfg Config, n int) error {
	if n <= 0 {
		return &ConfigError{Field: "BatchSize", Err: fmt.Errorf("%w: batch of %d OTs", ErrInvalidConfig, n)}
	}
	if cfg.BatchSize != 0 && n != cfg.BatchSize {
		return &ConfigError{Field: "BatchSize", Err: fmt.Errorf("%w: batch of %d OTs, session expects %d", ErrInvalidConfig, n, cfg.BatchSize)}
	}
	return nil
}

func peerAbortReason(m *message.Abort) AbortReason {
	switch m.Reason {
	case message.AbortConsistencyCheck:
		return ReasonConsistencyCheckFailed
	case message.AbortCancelled:
		return ReasonCancelled
	default:
		return ReasonAbortedByPeer
	}
}

func typeOf(m message.Message) string {
	if m == nil {
		return "nil message"
	}
	return m.Type().String()
}
