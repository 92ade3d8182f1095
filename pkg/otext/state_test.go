package otext

import (
	"errors"
	"testing"

	"github.com/optable/otext/pkg/message"
)

func TestMachineTransitions(t *testing.T) {
	var wiped int
	m := machine{wipe: func() { wiped++ }}

	m.advance(StateSeedsLoaded)
	if err := m.expect(StateSeedsLoaded); err != nil {
		t.Fatal(err)
	}
	if err := m.expect(StateInit); !errors.Is(err, ErrUnexpectedState) {
		t.Fatalf("expected ErrUnexpectedState, got %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("skipping a state did not panic")
			}
		}()
		m.advance(StateChecked)
	}()

	err := m.abort(ReasonCancelled, errors.New("hang up"))
	if !errors.Is(err, ErrCancelled) || m.State() != StateAborted || wiped != 1 {
		t.Fatalf("unexpected abort: %v in %v, wiped %d", err, m.State(), wiped)
	}
	// the first reason sticks
	m.abort(ReasonConsistencyCheckFailed, nil)
	if m.Reason() != ReasonCancelled || wiped != 1 {
		t.Fatalf("second abort changed the session: %v, wiped %d", m.Reason(), wiped)
	}
	if err := m.expect(StateAborted); err != m.err {
		t.Fatalf("an aborted session must keep its error, got %v", err)
	}
}

func TestMachineCompletedStaysCompleted(t *testing.T) {
	m := machine{}
	for _, s := range []State{StateSeedsLoaded, StateMatrixCommitted, StateChallengeReceived, StateChecked, StateOutputsReady} {
		m.advance(s)
	}

	if err := m.abort(ReasonCancelled, nil); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if m.State() != StateOutputsReady || m.Reason() != ReasonNone {
		t.Fatalf("a completed session was aborted: %v{%v}", m.State(), m.Reason())
	}
}

func TestUnexpectedMessage(t *testing.T) {
	s, err := NewSender(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	out, err := s.Handle(&message.ExtensionCheckResponse{})
	if !errors.Is(err, ErrAbortedByPeer) || s.State() != StateAborted {
		t.Fatalf("expected an abort, got %v in %v", err, s.State())
	}
	if len(out) != 1 {
		t.Fatalf("expected one Abort message, got %d messages", len(out))
	}
	if a, ok := out[0].(*message.Abort); !ok || a.Reason != message.AbortProtocol {
		t.Fatalf("expected Abort{Protocol}, got %#v", out[0])
	}
}

func TestPeerAbort(t *testing.T) {
	r, err := NewReceiver(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Start(); err != nil {
		t.Fatal(err)
	}

	out, err := r.Handle(&message.Abort{Reason: message.AbortConsistencyCheck})
	if out != nil || !errors.Is(err, ErrConsistencyCheckFailed) {
		t.Fatalf("expected ErrConsistencyCheckFailed and no reply, got %v, %v", out, err)
	}
	if r.State() != StateAborted || r.Reason() != ReasonConsistencyCheckFailed {
		t.Fatalf("expected Aborted{ConsistencyCheckFailed}, got %v{%v}", r.State(), r.Reason())
	}
}

func TestLocalCallsOutOfOrder(t *testing.T) {
	r, err := NewReceiver(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	choices, err := RandomChoiceBits(8)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Commit(choices, 8); !errors.Is(err, ErrUnexpectedState) {
		t.Fatalf("expected ErrUnexpectedState before base OTs, got %v", err)
	}
	if _, err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Start(); !errors.Is(err, ErrUnexpectedState) {
		t.Fatalf("expected ErrUnexpectedState for a second start, got %v", err)
	}
	if _, err := r.Outputs(); err != ErrOutputsUnavailable {
		t.Fatalf("expected ErrOutputsUnavailable, got %v", err)
	}
	// misuse does not end the session
	if r.State() != StateInit {
		t.Fatalf("expected Init, got %v", r.State())
	}
}
