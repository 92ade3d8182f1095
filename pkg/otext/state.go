package otext

import (
	"fmt"
)

// State is the position of a session in the protocol.
//
//  Init -> SeedsLoaded -> MatrixCommitted -> ChallengeReceived -> Checked -> OutputsReady
//
// OutputsReady and Aborted are terminal; Aborted is reachable from
// every other state.
type State uint8

const (
	StateInit State = iota
	StateSeedsLoaded
	StateMatrixCommitted
	StateChallengeReceived
	StateChecked
	StateOutputsReady
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSeedsLoaded:
		return "SeedsLoaded"
	case StateMatrixCommitted:
		return "MatrixCommitted"
	case StateChallengeReceived:
		return "ChallengeReceived"
	case StateChecked:
		return "Checked"
	case StateOutputsReady:
		return "OutputsReady"
	case StateAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// next lists the only state each state may advance to.
var next = map[State]State{
	StateInit:              StateSeedsLoaded,
	StateSeedsLoaded:       StateMatrixCommitted,
	StateMatrixCommitted:   StateChallengeReceived,
	StateChallengeReceived: StateChecked,
	StateChecked:           StateOutputsReady,
}

// machine tracks the state of one session. Once aborted it keeps
// returning the error that ended the session.
type machine struct {
	state State
	err   *ProtocolError
	wipe  func()
}

// State returns the current state.
func (m *machine) State() State {
	return m.state
}

// Reason returns why the session aborted, or ReasonNone.
func (m *machine) Reason() AbortReason {
	if m.err == nil {
		return ReasonNone
	}
	return m.err.Reason
}

// expect returns nil when the session is in state s.
func (m *machine) expect(s State) error {
	if m.err != nil {
		return m.err
	}
	if m.state != s {
		return fmt.Errorf("%w: in %v, need %v", ErrUnexpectedState, m.state, s)
	}
	return nil
}

// advance moves one step forward. It panics on a transition the
// protocol does not have.
func (m *machine) advance(to State) {
	if next[m.state] != to || m.err != nil {
		panic(fmt.Sprintf("otext: invalid transition %v -> %v", m.state, to))
	}
	m.state = to
}

// abort ends the session, wipes its secret state and returns the
// terminal error. Aborting twice keeps the first reason, and a
// completed session stays complete.
func (m *machine) abort(reason AbortReason, cause error) error {
	if m.err != nil {
		return m.err
	}
	if m.state == StateOutputsReady {
		return &ProtocolError{Reason: reason, Err: cause}
	}

	m.state = StateAborted
	m.err = &ProtocolError{Reason: reason, Err: cause}
	if m.wipe != nil {
		m.wipe()
	}
	return m.err
}
