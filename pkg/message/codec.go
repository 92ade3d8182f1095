package message

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrVersion     = errors.New("unsupported message version")
	ErrMalformed   = errors.New("malformed message")
)

// Marshal encodes m as version || type || body. Integers are
// unsigned varints and byte strings are length prefixed.
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}

	e := &encoder{buf: []byte{Version, byte(m.Type())}}
	m.encode(e)
	return e.buf, nil
}

// Unmarshal decodes a message produced by Marshal. Trailing bytes are
// rejected.
func Unmarshal(b []byte) (Message, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: short header", ErrMalformed)
	}
	if b[0] != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, b[0])
	}

	m, err := newMessage(Type(b[1]))
	if err != nil {
		return nil, err
	}

	d := &decoder{buf: b[2:]}
	m.decode(d)
	if d.err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrMalformed, m.Type(), d.err)
	}
	if len(d.buf) != 0 {
		return nil, fmt.Errorf("%w: %v: %d trailing bytes", ErrMalformed, m.Type(), len(d.buf))
	}
	return m, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) uint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	e.buf = append(e.buf, tmp[:n]...)
}

func (e *encoder) bytes(b []byte) {
	e.uint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) list(l [][]byte) {
	e.uint(uint64(len(l)))
	for _, b := range l {
		e.bytes(b)
	}
}

// decoder reads from buf, recording the first error and returning
// zero values after it.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) uint() uint64 {
	if d.err != nil {
		return 0
	}

	v, n := binary.Uvarint(d.buf)
	if n <= 0 {
		d.err = errors.New("bad varint")
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) uint32() uint32 {
	v := d.uint()
	if v > math.MaxUint32 {
		d.fail("integer overflows 32 bits")
		return 0
	}
	return uint32(v)
}

func (d *decoder) uint8() uint8 {
	v := d.uint()
	if v > math.MaxUint8 {
		d.fail("integer overflows 8 bits")
		return 0
	}
	return uint8(v)
}

func (d *decoder) bytes() []byte {
	n := d.uint()
	if d.err != nil {
		return nil
	}
	if n > uint64(len(d.buf)) {
		d.fail("byte string exceeds message")
		return nil
	}

	b := make([]byte, n)
	copy(b, d.buf[:n])
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) list() [][]byte {
	n := d.uint()
	if d.err != nil {
		return nil
	}
	// every element takes at least its length byte
	if n > uint64(len(d.buf)) {
		d.fail("list exceeds message")
		return nil
	}

	l := make([][]byte, n)
	for i := range l {
		l[i] = d.bytes()
	}
	return l
}

func (d *decoder) fail(msg string) {
	if d.err == nil {
		d.err = errors.New(msg)
	}
}
