package otext

import (
	"errors"
	"fmt"

	"github.com/optable/otext/internal/baseot"
	"github.com/optable/otext/internal/crypto"
	"github.com/optable/otext/internal/util"
	"github.com/optable/otext/pkg/message"
)

// Receiver is the receiving side of an OT extension session. In the
// base OT phase it plays the base OT sender and ends up with both
// seeds of every base OT.
//
// Start, Commit and Handle are pure transitions; BaseSetup and Extend
// drive them over a channel. A Receiver is not safe for concurrent use.
type Receiver struct {
	machine
	cfg        Config
	base       baseot.Sender
	setupNonce []byte
	sess       *session

	// base OT output, consumed by the extension
	pairs []crypto.SeedPair

	// extension batch state
	n          int
	choices    []uint64
	t          *util.BitMatrix
	transcript *crypto.Transcript
	outputs    [][]byte
}

// NewReceiver validates cfg and returns a receiver in StateInit.
func NewReceiver(cfg Config) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := baseot.NewSender(cfg.Group)
	if err != nil {
		return nil, &ConfigError{Field: "Group", Err: err}
	}

	r := &Receiver{cfg: cfg, base: base}
	r.machine.wipe = r.wipe
	return r, nil
}

// Config returns the session configuration.
func (r *Receiver) Config() Config {
	return r.cfg
}

// Start opens the session and returns the BaseOtSetup message.
func (r *Receiver) Start() (message.Message, error) {
	if err := r.expect(StateInit); err != nil {
		return nil, err
	}
	if r.setupNonce != nil {
		return nil, fmt.Errorf("%w: session already started", ErrUnexpectedState)
	}

	params, err := r.base.Setup()
	if err != nil {
		return nil, r.abort(ReasonInternal, err)
	}
	nonce, err := newNonce()
	if err != nil {
		return nil, r.abort(ReasonInternal, err)
	}
	r.setupNonce = nonce

	return &message.BaseOtSetup{
		Params: r.cfg.params(),
		Nonce:  nonce,
		Point:  append([]byte(nil), params.Point[:]...),
	}, nil
}

// Commit starts an extension of n OTs selecting by choices, and
// returns the matrix commitment. The base OT seeds are consumed: a
// session runs a single extension.
func (r *Receiver) Commit(choices ChoiceBits, n int) (message.Message, error) {
	if r.err == nil && r.state > StateSeedsLoaded {
		return nil, ErrSeedsConsumed
	}
	if err := r.expect(StateSeedsLoaded); err != nil {
		return nil, err
	}
	if err := validateBatch(r.cfg, n); err != nil {
		return nil, err
	}
	if choices.Len() != n {
		return nil, &ConfigError{Field: "ChoiceBits", Err: fmt.Errorf("%w: %d choice bits for %d OTs", ErrInvalidConfig, choices.Len(), n)}
	}

	cols := r.cfg.extendedWidth(n)
	bits, err := choices.extend(cols)
	if err != nil {
		return nil, r.abort(ReasonInternal, err)
	}

	// the seeds move into the expansion and are gone afterwards
	pairs := r.pairs
	r.pairs = nil
	seeds0 := make([]crypto.Seed, len(pairs))
	seeds1 := make([]crypto.Seed, len(pairs))
	for i := range pairs {
		seeds0[i], seeds1[i] = pairs[i][0], pairs[i][1]
	}

	T0, err := expandMatrix(r.sess.prg, seeds0, cols, r.cfg.Workers)
	if err != nil {
		return nil, r.abort(ReasonInternal, err)
	}
	// U = T0 ^ T1 ^ r
	U, err := expandMatrix(r.sess.prg, seeds1, cols, r.cfg.Workers)
	if err != nil {
		return nil, r.abort(ReasonInternal, err)
	}
	for i := 0; i < U.Rows(); i++ {
		U.XorRow(i, T0.Row(i))
		U.XorRow(i, bits)
	}

	rows := matrixRows(U)
	r.transcript = r.sess.checkTranscript(n, cols)
	for _, row := range rows {
		r.transcript.Append("row", row)
	}

	r.n = n
	r.choices = bits
	r.t = T0.Transpose(r.cfg.Workers)
	T0.Wipe()
	r.advance(StateMatrixCommitted)

	return &message.ExtensionMatrixCommit{BatchSize: uint64(n), Rows: rows}, nil
}

// Handle advances the session with an incoming message and returns the
// messages to send back. An error is terminal; the returned messages
// must still be delivered to the peer.
func (r *Receiver) Handle(msg message.Message) ([]message.Message, error) {
	if m, ok := msg.(*message.Abort); ok {
		return nil, r.abort(peerAbortReason(m), errPeerAbort)
	}
	if r.err != nil {
		return nil, r.err
	}

	switch m := msg.(type) {
	case *message.BaseOtResponse:
		if r.state == StateInit && r.setupNonce != nil {
			return r.handleResponse(m)
		}
	case *message.ExtensionChallenge:
		if r.state == StateMatrixCommitted {
			return r.handleChallenge(m)
		}
	case *message.ExtensionPayload:
		if r.state == StateChallengeReceived {
			return r.handlePayload(m)
		}
	}

	return r.reject(fmt.Errorf("unexpected %v in state %v", typeOf(msg), r.state))
}

func (r *Receiver) reject(cause error) ([]message.Message, error) {
	return []message.Message{&message.Abort{Reason: message.AbortProtocol}}, r.abort(ReasonAbortedByPeer, cause)
}

func (r *Receiver) handleResponse(m *message.BaseOtResponse) ([]message.Message, error) {
	if len(m.Nonce) != nonceLen || len(m.Points) != r.cfg.Kappa {
		return r.reject(errors.New("malformed base OT response"))
	}

	resp := &baseot.Response{Points: make([][baseot.EncodedLen]byte, len(m.Points))}
	for i, p := range m.Points {
		if len(p) != baseot.EncodedLen {
			return r.reject(fmt.Errorf("base OT point %d has %d bytes", i, len(p)))
		}
		copy(resp.Points[i][:], p)
	}

	pairs, err := r.base.Send(resp, r.cfg.Kappa)
	if err != nil {
		if errors.Is(err, baseot.ErrMalformedPoint) {
			return r.reject(err)
		}
		return nil, r.abort(ReasonInternal, err)
	}

	if r.sess, err = newSession(r.cfg, r.setupNonce, m.Nonce); err != nil {
		return nil, r.abort(ReasonInternal, err)
	}
	r.pairs = pairs
	r.advance(StateSeedsLoaded)
	return nil, nil
}

func (r *Receiver) handleChallenge(m *message.ExtensionChallenge) ([]message.Message, error) {
	if len(m.CombinerSeed) != combinerSeedLen {
		return r.reject(errors.New("malformed combiner seed"))
	}
	r.transcript.Append("combiner", m.CombinerSeed)
	r.advance(StateChallengeReceived)

	chi := r.transcript.Combiners(r.t.Rows())
	tSums, x := combineRows(r.t, chi, r.choices, r.cfg.Workers)

	return []message.Message{&message.ExtensionCheckResponse{
		X: x.Bytes(),
		T: encodeElements(tSums),
	}}, nil
}

func (r *Receiver) handlePayload(m *message.ExtensionPayload) ([]message.Message, error) {
	// the sender only releases its payload after the check passed
	if len(m.Masks) != maskCount(r.cfg.Variant, r.n) {
		return r.reject(fmt.Errorf("payload has %d masks, expected %d", len(m.Masks), maskCount(r.cfg.Variant, r.n)))
	}
	for i, mask := range m.Masks {
		if len(mask) != r.cfg.MessageLen {
			return r.reject(fmt.Errorf("mask %d has %d bytes, expected %d", i, len(mask), r.cfg.MessageLen))
		}
	}
	r.advance(StateChecked)

	pads := receiverPads(r.t, r.n, r.cfg.MessageLen, r.sess.crh, r.cfg.Workers)
	r.outputs = receiverRelease(r.cfg.Variant, r.choices, pads, m.Masks)

	r.wipe()
	r.advance(StateOutputsReady)
	return nil, nil
}

// Outputs returns, for every OT, the message selected by its choice bit.
func (r *Receiver) Outputs() ([][]byte, error) {
	if r.state != StateOutputsReady {
		return nil, ErrOutputsUnavailable
	}
	return r.outputs, nil
}

// wipe drops the secret state of the session.
func (r *Receiver) wipe() {
	if r.t != nil {
		r.t.Wipe()
		r.t = nil
	}
	for i := range r.choices {
		r.choices[i] = 0
	}
	r.choices = nil
	r.pairs = nil
	r.transcript = nil
	if r.state == StateAborted {
		r.outputs = nil
	}
}
