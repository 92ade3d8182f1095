package baseot

import (
	gr "github.com/bwesterb/go-ristretto"
)

// "github.com/bwesterb/go-ristretto"
type grGroup struct{}

type grSecret struct {
	x gr.Scalar
	X gr.Point
}

func decodeGR(enc [EncodedLen]byte) (*gr.Point, error) {
	var p, zero gr.Point
	if !p.SetBytes(&enc) {
		return nil, ErrMalformedPoint
	}
	if p.Equals(zero.SetZero()) {
		return nil, ErrMalformedPoint
	}
	return &p, nil
}

func encodeGR(p *gr.Point) (out [EncodedLen]byte) {
	p.BytesInto(&out)
	return
}

func (grGroup) random() (secret, error) {
	var s grSecret
	s.x.Rand()
	s.X.ScalarMultBase(&s.x)
	return &s, nil
}

func (grGroup) add(p, q [EncodedLen]byte) (out [EncodedLen]byte, err error) {
	P, err := decodeGR(p)
	if err != nil {
		return out, err
	}
	Q, err := decodeGR(q)
	if err != nil {
		return out, err
	}
	var R gr.Point
	return encodeGR(R.Add(P, Q)), nil
}

func (grGroup) sub(p, q [EncodedLen]byte) (out [EncodedLen]byte, err error) {
	P, err := decodeGR(p)
	if err != nil {
		return out, err
	}
	Q, err := decodeGR(q)
	if err != nil {
		return out, err
	}
	var R gr.Point
	return encodeGR(R.Sub(P, Q)), nil
}

func (grGroup) validate(p [EncodedLen]byte) error {
	_, err := decodeGR(p)
	return err
}

func (s *grSecret) public() [EncodedLen]byte {
	return encodeGR(&s.X)
}

func (s *grSecret) mult(p [EncodedLen]byte) (out [EncodedLen]byte, err error) {
	P, err := decodeGR(p)
	if err != nil {
		return out, err
	}
	var R gr.Point
	return encodeGR(R.ScalarMult(P, &s.x)), nil
}
