package channel

import (
	"context"
	"sync"

	"github.com/optable/otext/pkg/message"
)

// pipeDepth is the number of messages in flight per direction.
const pipeDepth = 8

type pipeEnd struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once *sync.Once
}

// Pipe returns the two ends of an in-memory loopback channel.
// Messages are encoded on send and decoded on receive, so the ends
// never share memory. Closing either end closes both.
func Pipe() (Channel, Channel) {
	ab := make(chan []byte, pipeDepth)
	ba := make(chan []byte, pipeDepth)
	done := make(chan struct{})
	once := &sync.Once{}

	return &pipeEnd{in: ba, out: ab, done: done, once: once},
		&pipeEnd{in: ab, out: ba, done: done, once: once}
}

func (p *pipeEnd) Send(ctx context.Context, m message.Message) error {
	b, err := message.Marshal(m)
	if err != nil {
		return err
	}

	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.out <- b:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeEnd) Receive(ctx context.Context) (message.Message, error) {
	select {
	case <-p.done:
		return nil, ErrClosed
	default:
	}

	select {
	case b := <-p.in:
		return message.Unmarshal(b)
	case <-p.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() {
		close(p.done)
	})
	return nil
}
