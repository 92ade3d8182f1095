package otext

import (
	"errors"
	"fmt"
)

var (
	ErrInsecureSecurityParameter = errors.New("security parameter below the configured floor")
	ErrInvalidConfig             = errors.New("invalid configuration")

	ErrAbortedByPeer          = errors.New("aborted by peer")
	ErrConsistencyCheckFailed = errors.New("consistency check failed")
	ErrCancelled              = errors.New("session cancelled")
	ErrChannelFailure         = errors.New("channel failure")
	ErrInternal               = errors.New("internal failure")

	ErrSeedsConsumed      = errors.New("base OT seeds were already consumed, start a fresh session")
	ErrOutputsUnavailable = errors.New("outputs are only available once the session completed")
	ErrUnexpectedState    = errors.New("operation not allowed in the current session state")

	errPeerAbort = errors.New("peer ended the session")
)

// AbortReason tells why a session reached StateAborted.
type AbortReason uint8

const (
	ReasonNone AbortReason = iota
	// ReasonAbortedByPeer covers malformed, out of order or mismatched
	// messages, and explicit aborts from the peer.
	ReasonAbortedByPeer
	// ReasonConsistencyCheckFailed is never downgraded to another reason.
	ReasonConsistencyCheckFailed
	// ReasonCancelled means the channel was closed or the context ended.
	ReasonCancelled
	// ReasonChannelFailure wraps an opaque transport error.
	ReasonChannelFailure
	// ReasonInternal covers local failures such as an exhausted
	// randomness source.
	ReasonInternal
)

func (r AbortReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonAbortedByPeer:
		return "aborted by peer"
	case ReasonConsistencyCheckFailed:
		return "consistency check failed"
	case ReasonCancelled:
		return "cancelled"
	case ReasonChannelFailure:
		return "channel failure"
	case ReasonInternal:
		return "internal failure"
	default:
		return "undefined"
	}
}

func (r AbortReason) sentinel() error {
	switch r {
	case ReasonAbortedByPeer:
		return ErrAbortedByPeer
	case ReasonConsistencyCheckFailed:
		return ErrConsistencyCheckFailed
	case ReasonCancelled:
		return ErrCancelled
	case ReasonChannelFailure:
		return ErrChannelFailure
	case ReasonInternal:
		return ErrInternal
	default:
		return nil
	}
}

// ConfigError rejects a configuration before any network interaction.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("otext: config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ProtocolError ends a session. errors.Is matches it against the
// sentinel of its reason as well as the underlying cause.
type ProtocolError struct {
	Reason AbortReason
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("otext: session aborted: %s", e.Reason)
	}
	return fmt.Sprintf("otext: session aborted: %s: %v", e.Reason, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool {
	s := e.Reason.sentinel()
	return s != nil && target == s
}

// ChannelError wraps a transport failure.
type ChannelError struct {
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("otext: channel: %v", e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }
