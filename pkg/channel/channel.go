// Package channel provides the duplex transports an OT extension
// session runs over.
package channel

import (
	"context"
	"errors"

	"github.com/optable/otext/pkg/message"
)

// ErrClosed is returned once either end of a channel was closed.
var ErrClosed = errors.New("channel closed")

// Channel is a duplex, message oriented transport between two peers.
// Send and Receive may be used from different goroutines, but each
// must not be called concurrently with itself.
type Channel interface {
	Send(ctx context.Context, m message.Message) error
	Receive(ctx context.Context) (message.Message, error)
	Close() error
}
