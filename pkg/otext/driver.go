package otext

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/optable/otext/pkg/channel"
	"github.com/optable/otext/pkg/log"
	"github.com/optable/otext/pkg/message"
)

// base OT phase
//  receiver -> sender: BaseOtSetup
//  sender -> receiver: BaseOtResponse
// extension phase
//  receiver -> sender: ExtensionMatrixCommit
//  sender -> receiver: ExtensionChallenge
//  receiver -> sender: ExtensionCheckResponse
//  sender -> receiver: ExtensionPayload, or Abort when the check fails

// party is the transition side of a Sender or a Receiver.
type party interface {
	Handle(msg message.Message) ([]message.Message, error)
	State() State
	abort(reason AbortReason, cause error) error
}

// BaseSetup runs the base OT phase over ch, leaving the sender in
// StateSeedsLoaded.
func (s *Sender) BaseSetup(ctx context.Context, ch channel.Channel) error {
	logger := log.ForRole(ctx, "sender")
	start := time.Now()

	logger.V(1).Info("Starting stage 1")
	if err := run(ctx, ch, s, StateSeedsLoaded); err != nil {
		logAbort(logger, &s.machine, err)
		return err
	}

	logger.V(1).Info("Finished stage 1", "session", s.sess.trace, "baseOTs", s.cfg.Kappa, "elapsed", time.Since(start))
	return nil
}

// Extend runs one extension of n OTs over ch with the given input and
// returns the sender's message pairs. Nothing is returned unless the
// consistency check passed.
func (s *Sender) Extend(ctx context.Context, ch channel.Channel, input SenderInput, n int) ([]MessagePair, error) {
	logger := log.ForRole(ctx, "sender")
	if err := s.Prepare(input, n); err != nil {
		return nil, err
	}
	logger = logger.WithValues("session", s.sess.trace, "variant", s.cfg.Variant, "n", n)
	start := time.Now()

	// stage 2: receive the commitment, issue the challenge
	// stage 3: verify the check response and release the payload
	logger.V(1).Info("Starting stage 2")
	if err := run(ctx, ch, s, StateOutputsReady); err != nil {
		logAbort(logger, &s.machine, err)
		return nil, err
	}

	logger.V(1).Info("Finished stage 3", "elapsed", time.Since(start))
	return s.Outputs()
}

// BaseSetup runs the base OT phase over ch, leaving the receiver in
// StateSeedsLoaded.
func (r *Receiver) BaseSetup(ctx context.Context, ch channel.Channel) error {
	logger := log.ForRole(ctx, "receiver")
	start := time.Now()

	logger.V(1).Info("Starting stage 1")
	setup, err := r.Start()
	if err != nil {
		return err
	}
	if err := send(ctx, ch, r, setup); err != nil {
		logAbort(logger, &r.machine, err)
		return err
	}
	if err := run(ctx, ch, r, StateSeedsLoaded); err != nil {
		logAbort(logger, &r.machine, err)
		return err
	}

	logger.V(1).Info("Finished stage 1", "session", r.sess.trace, "baseOTs", r.cfg.Kappa, "elapsed", time.Since(start))
	return nil
}

// Extend runs one extension of n OTs over ch and returns, for every
// OT, the message selected by its choice bit. Nothing is returned
// unless the sender accepted the consistency check.
func (r *Receiver) Extend(ctx context.Context, ch channel.Channel, choices ChoiceBits, n int) ([][]byte, error) {
	logger := log.ForRole(ctx, "receiver")
	start := time.Now()

	logger.V(1).Info("Starting stage 2")
	commit, err := r.Commit(choices, n)
	if err != nil {
		return nil, err
	}
	logger = logger.WithValues("session", r.sess.trace, "variant", r.cfg.Variant, "n", n)
	logger.V(2).Info("matrix committed", "elapsed", time.Since(start))

	if err := send(ctx, ch, r, commit); err != nil {
		logAbort(logger, &r.machine, err)
		return nil, err
	}
	if err := run(ctx, ch, r, StateOutputsReady); err != nil {
		logAbort(logger, &r.machine, err)
		return nil, err
	}

	logger.V(1).Info("Finished stage 3", "elapsed", time.Since(start))
	return r.Outputs()
}

// run feeds messages from ch into p until p reaches state until.
// Replies are sent before a transition error is returned, so the
// peer learns about aborts.
func run(ctx context.Context, ch channel.Channel, p party, until State) error {
	for p.State() != until {
		msg, err := ch.Receive(ctx)
		if err != nil {
			return channelFailure(p, err)
		}

		out, herr := p.Handle(msg)
		if err := send(ctx, ch, p, out...); err != nil && herr == nil {
			return err
		}
		if herr != nil {
			return herr
		}
	}
	return nil
}

func send(ctx context.Context, ch channel.Channel, p party, msgs ...message.Message) error {
	for _, m := range msgs {
		if err := ch.Send(ctx, m); err != nil {
			return channelFailure(p, err)
		}
	}
	return nil
}

// channelFailure aborts p after a failed Send or Receive.
func channelFailure(p party, err error) error {
	switch {
	case errors.Is(err, channel.ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return p.abort(ReasonCancelled, err)
	case errors.Is(err, message.ErrMalformed), errors.Is(err, message.ErrVersion),
		errors.Is(err, message.ErrUnknownType), errors.Is(err, channel.ErrChecksum):
		return p.abort(ReasonAbortedByPeer, err)
	default:
		return p.abort(ReasonChannelFailure, &ChannelError{Err: err})
	}
}

func logAbort(logger logr.Logger, m *machine, err error) {
	logger.V(1).Info("session aborted", "state", m.State(), "reason", m.Reason(), "error", err.Error())
}
