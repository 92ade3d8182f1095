package channel

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/minio/highwayhash"
	"github.com/optable/otext/internal/util"
	"github.com/optable/otext/pkg/message"
)

// MaxFrameLen bounds the size of a single frame.
const MaxFrameLen = 1 << 30

var ErrChecksum = errors.New("frame checksum mismatch")

// checksumKey keys the frame checksum. It is public: the checksum
// detects corrupted frames, it does not authenticate them.
var checksumKey = []byte("otext/channel/frame/checksum/v1.")

// Stream frames messages over a byte stream such as a net.Conn:
//  uint32 length || message || uint64 highwayhash(message)
// all big endian.
//
// A Receive abandoned by its context leaves the frame read in flight;
// the next Receive picks it up. A Send abandoned by its context may
// leave half a frame on the wire, so it closes the stream.
type Stream struct {
	rw     io.ReadWriter
	r      *bufio.Reader
	w      *bufio.Writer
	mu     sync.Mutex
	closed chan struct{}
	once   sync.Once

	// rmu serializes receivers; pending is the read in flight, if any.
	rmu     sync.Mutex
	pending chan frame
}

type frame struct {
	b   []byte
	err error
}

// NewStream returns a Channel sending and receiving framed messages
// over rw. Close closes rw when it implements io.Closer.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{
		rw:     rw,
		r:      bufio.NewReader(rw),
		w:      bufio.NewWriter(rw),
		closed: make(chan struct{}),
	}
}

func (s *Stream) Send(ctx context.Context, m message.Message) error {
	if s.isClosed() {
		return ErrClosed
	}

	b, err := message.Marshal(m)
	if err != nil {
		return err
	}
	if len(b) > MaxFrameLen {
		return fmt.Errorf("message of %d bytes exceeds the frame limit", len(b))
	}

	err = util.Sel(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.writeFrame(b)
	})
	if err != nil && ctx.Err() != nil && !s.isClosed() {
		// the writer may still be mid frame
		s.Close()
		return ctx.Err()
	}
	return s.mapErr(err)
}

func (s *Stream) Receive(ctx context.Context) (message.Message, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	s.rmu.Lock()
	defer s.rmu.Unlock()
	if s.pending == nil {
		s.pending = make(chan frame, 1)
		go func(done chan<- frame) {
			b, err := s.readFrame()
			done <- frame{b, err}
		}(s.pending)
	}

	select {
	case f := <-s.pending:
		s.pending = nil
		if f.err != nil {
			return nil, s.mapErr(f.err)
		}
		return message.Unmarshal(f.b)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrClosed
	}
}

func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		if c, ok := s.rw.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (s *Stream) writeFrame(b []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(b)))
	if _, err := s.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], checksum(b))
	if _, err := s.w.Write(sum[:]); err != nil {
		return err
	}

	return s.w.Flush()
}

func (s *Stream) readFrame() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameLen {
		return nil, fmt.Errorf("frame of %d bytes exceeds the frame limit", n)
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(s.r, b); err != nil {
		return nil, err
	}

	var sum [8]byte
	if _, err := io.ReadFull(s.r, sum[:]); err != nil {
		return nil, err
	}
	if binary.BigEndian.Uint64(sum[:]) != checksum(b) {
		return nil, ErrChecksum
	}

	return b, nil
}

func (s *Stream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// mapErr reports a stream that ended, locally or at the peer, as
// ErrClosed.
func (s *Stream) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if s.isClosed() || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}

func checksum(b []byte) uint64 {
	// the key is 32 bytes, so Sum64 cannot fail
	return highwayhash.Sum64(b, checksumKey)
}
